package mi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nvmemid/internal/subsystem"
)

func newTestSubsystem(t *testing.T) (*subsystem.Subsystem, subsystem.PortID, subsystem.ControllerID) {
	t.Helper()
	sub := subsystem.New(subsystem.DefaultSubsystemInfo())
	portID, err := sub.AddPort(subsystem.PortPCIe)
	require.NoError(t, err)
	ctlID, err := sub.AddController(portID)
	require.NoError(t, err)
	return sub, portID, ctlID
}

func TestDispatchProhibitedAdminOpcodeRejected(t *testing.T) {
	sub, _, ctlID := newTestSubsystem(t)

	body := make([]byte, adminHeaderSize)
	body[0] = 0x00 // opcode 0x00 (Delete I/O SQ)
	body[2] = byte(ctlID)
	body[3] = byte(ctlID >> 8)
	raw := EncodeFrame(OuterHeader{NMIMT: NmimtNvmeAdminCommand}, body)

	resp, err := Dispatch(context.Background(), sub, raw)
	require.NoError(t, err)
	require.NotNil(t, resp)

	_, respBody, err := ParseFrame(resp)
	require.NoError(t, err)
	require.Len(t, respBody, 16)

	dword3 := uint32(respBody[12]) | uint32(respBody[13])<<8 | uint32(respBody[14])<<16 | uint32(respBody[15])<<24
	sc := uint8(dword3 >> 17)
	assert.Equal(t, ScInvalidOpcode, sc)
}

func TestDispatchCorruptFrameDroppedSilently(t *testing.T) {
	sub, _, _ := newTestSubsystem(t)

	raw := EncodeFrame(OuterHeader{NMIMT: NmimtNvmeMiCommand}, []byte{0x00})
	raw[len(raw)-1] ^= 0xff

	resp, err := Dispatch(context.Background(), sub, raw)
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestDispatchReadNVMSubsystemInfo(t *testing.T) {
	sub, _, _ := newTestSubsystem(t)

	body := []byte{byte(OpReadNVMeMIDataStructure), DtypeNVMSubsystemInfo}
	raw := EncodeFrame(OuterHeader{NMIMT: NmimtNvmeMiCommand}, body)

	resp, err := Dispatch(context.Background(), sub, raw)
	require.NoError(t, err)
	require.NotNil(t, resp)

	_, respBody, err := ParseFrame(resp)
	require.NoError(t, err)
	require.NotEmpty(t, respBody)
	assert.Equal(t, byte(StatusSuccess), respBody[0])
}
