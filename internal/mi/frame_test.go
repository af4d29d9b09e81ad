package mi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	hdr := OuterHeader{ROR: true, NMIMT: NmimtNvmeMiCommand}
	body := []byte{0x01, 0x02, 0x03}

	framed := EncodeFrame(hdr, body)
	gotHdr, gotBody, err := ParseFrame(framed)
	require.NoError(t, err)
	assert.Equal(t, hdr, gotHdr)
	assert.Equal(t, body, gotBody)
}

func TestFrameICVMismatchDropped(t *testing.T) {
	framed := EncodeFrame(OuterHeader{NMIMT: NmimtNvmeMiCommand}, []byte{0x01})
	framed[len(framed)-1] ^= 0xff // corrupt the trailing ICV byte

	_, _, err := ParseFrame(framed)
	require.Error(t, err)
}

func TestFrameTooShort(t *testing.T) {
	_, _, err := ParseFrame([]byte{0x01, 0x02})
	require.Error(t, err)
}
