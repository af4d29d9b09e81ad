package mi

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/marmos91/nvmemid/internal/logger"
	"github.com/marmos91/nvmemid/internal/subsystem"
	"github.com/marmos91/nvmemid/internal/wire"
)

// HandlerResult separates the wire-encoded response body from the
// status metadata used for logging and metrics, mirroring how this
// responder's teacher keeps protocol status out of the response bytes
// at the dispatch layer.
type HandlerResult struct {
	Data   []byte
	Status ResponseStatus
}

// MiOpcode identifies an NVMe-MI command (NMIMT == NmimtNvmeMiCommand).
type MiOpcode uint8

const (
	OpReadNVMeMIDataStructure     MiOpcode = 0x00
	OpNVMSubsystemHealthStatusPoll MiOpcode = 0x01
	OpControllerHealthStatusPoll  MiOpcode = 0x02
	OpConfigurationSet            MiOpcode = 0x03
	OpConfigurationGet            MiOpcode = 0x04
)

func (o MiOpcode) String() string {
	switch o {
	case OpReadNVMeMIDataStructure:
		return "ReadNVMeMIDataStructure"
	case OpNVMSubsystemHealthStatusPoll:
		return "NVMSubsystemHealthStatusPoll"
	case OpControllerHealthStatusPoll:
		return "ControllerHealthStatusPoll"
	case OpConfigurationSet:
		return "ConfigurationSet"
	case OpConfigurationGet:
		return "ConfigurationGet"
	default:
		return fmt.Sprintf("Unknown(0x%x)", uint8(o))
	}
}

// miHandler processes one NVMe-MI command body and returns its
// response body plus status.
type miHandler func(ctx context.Context, sub *subsystem.Subsystem, body []byte) (*HandlerResult, error)

// miProcedure is one entry of the NVMe-MI command dispatch table.
type miProcedure struct {
	Name    string
	Handler miHandler
}

var miDispatchTable map[MiOpcode]*miProcedure

func init() {
	miDispatchTable = map[MiOpcode]*miProcedure{
		OpReadNVMeMIDataStructure:      {Name: "ReadNVMeMIDataStructure", Handler: handleReadNVMeMIDataStructure},
		OpNVMSubsystemHealthStatusPoll: {Name: "NVMSubsystemHealthStatusPoll", Handler: handleNVMSubsystemHealthStatusPoll},
		OpControllerHealthStatusPoll:   {Name: "ControllerHealthStatusPoll", Handler: handleControllerHealthStatusPoll},
		OpConfigurationSet:             {Name: "ConfigurationSet", Handler: handleConfigurationSet},
		OpConfigurationGet:             {Name: "ConfigurationGet", Handler: handleConfigurationGet},
	}
}

// AdminOpcode identifies an NVMe Admin command (NMIMT == NmimtNvmeAdminCommand).
type AdminOpcode uint8

const (
	OpAdminGetLogPage          AdminOpcode = 0x02
	OpAdminIdentify            AdminOpcode = 0x06
	OpAdminNamespaceManagement AdminOpcode = 0x0d
	OpAdminNamespaceAttachment AdminOpcode = 0x15
)

// prohibitedAdminOpcodes lists every standard NVMe Admin opcode this
// responder refuses over the MI out-of-band path because it requires
// a host-resident data buffer transfer or I/O-queue-backed state this
// management interface does not model.
var prohibitedAdminOpcodes = map[AdminOpcode]bool{
	0x00: true, // Delete I/O Submission Queue
	0x01: true, // Create I/O Submission Queue
	0x04: true, // Delete I/O Completion Queue
	0x05: true, // Create I/O Completion Queue
	0x08: true, // Abort
	0x09: true, // Set Features
	0x0a: true, // Get Features
	0x0c: true, // Asynchronous Event Request
	0x10: true, // Firmware Commit
	0x11: true, // Firmware Image Download
	0x14: true, // Device Self-test
	0x18: true, // Keep Alive
	0x19: true, // Directive Send
	0x1a: true, // Directive Receive
	0x1c: true, // Virtualization Management
	0x1d: true, // NVMe-MI Send
	0x1e: true, // NVMe-MI Receive
	0x20: true, // Capacity Management
	0x24: true, // Lockdown
	0x7c: true, // Doorbell Buffer Config
	0x7f: true, // Fabrics Command
	0x80: true, // Format NVM
	0x81: true, // Security Send
	0x82: true, // Security Receive
	0x84: true, // Sanitize
	0x86: true, // Get LBA Status
}

// AdminCommandFlags are the per-request command flags carried in the
// admin command header (cflgs), decoded through wire.FlagSet so any
// bit this responder doesn't recognize is rejected rather than
// silently ignored.
type AdminCommandFlags uint8

// AdminFlagISH is the ignore-shutdown-state bit. This responder has no
// notion of a pending shutdown state to ignore, so a request setting
// it is refused outright.
const AdminFlagISH AdminCommandFlags = 1 << 2

// adminHeaderSize is the length, in bytes, of the common admin command
// header every admin request carries ahead of its opcode-specific
// body: opcode(1) + cflgs(1) + ctlid(2) + dofst(4) + dlen(4).
const adminHeaderSize = 12

// adminHandler processes one NVMe Admin command body against a single
// controller and returns its data and completion status.
type adminHandler func(ctx context.Context, sub *subsystem.Subsystem, ctl *subsystem.Controller, body []byte) ([]byte, AdminStatus, error)

type adminProcedure struct {
	Name    string
	Handler adminHandler
}

var adminDispatchTable map[AdminOpcode]*adminProcedure

func init() {
	adminDispatchTable = map[AdminOpcode]*adminProcedure{
		OpAdminIdentify:            {Name: "Identify", Handler: handleAdminIdentify},
		OpAdminGetLogPage:          {Name: "GetLogPage", Handler: handleAdminGetLogPage},
		OpAdminNamespaceManagement: {Name: "NamespaceManagement", Handler: handleAdminNamespaceManagement},
		OpAdminNamespaceAttachment: {Name: "NamespaceAttachment", Handler: handleAdminNamespaceAttachment},
	}
}

// Dispatch parses a framed message, routes it by NMIMT and opcode, and
// returns the framed response. A nil, nil return means the message must
// be silently dropped: it failed integrity verification, or its outer
// header marks it as a response (ROR) or names a non-zero command slot
// (CSI) — never send an error response for a corrupted, unauthenticated
// or non-request message.
func Dispatch(ctx context.Context, sub *subsystem.Subsystem, raw []byte) ([]byte, error) {
	// Controller state changes are latched on every inbound message,
	// before integrity verification.
	sub.ObserveControllers()

	hdr, body, err := ParseFrame(raw)
	if err != nil {
		logger.DebugCtx(ctx, "dropping frame that failed integrity check", "error", err)
		return nil, nil
	}

	if hdr.ROR || hdr.CSI {
		logger.DebugCtx(ctx, "dropping frame with non-request outer header", "ror", hdr.ROR, "csi", hdr.CSI)
		return nil, nil
	}

	switch hdr.NMIMT {
	case NmimtNvmeMiCommand:
		return dispatchMiCommand(ctx, sub, body)
	case NmimtNvmeAdminCommand:
		return dispatchAdminCommand(ctx, sub, body)
	default:
		logger.WarnCtx(ctx, "unsupported message type", "nmimt", hdr.NMIMT.String())
		return EncodeFrame(OuterHeader{ROR: true, NMIMT: hdr.NMIMT}, []byte{byte(StatusInvalidCommandOpcode)}), nil
	}
}

func dispatchMiCommand(ctx context.Context, sub *subsystem.Subsystem, body []byte) ([]byte, error) {
	start := time.Now()
	if len(body) < 1 {
		activeMetrics.RecordRequest(NmimtNvmeMiCommand.String(), "unknown", StatusInvalidCommandSize.String(), time.Since(start))
		return EncodeFrame(OuterHeader{ROR: true, NMIMT: NmimtNvmeMiCommand}, []byte{byte(StatusInvalidCommandSize)}), nil
	}

	opcode := MiOpcode(body[0])
	proc, ok := miDispatchTable[opcode]
	if !ok {
		logger.WarnCtx(ctx, "invalid MI opcode", "opcode", fmt.Sprintf("0x%x", uint8(opcode)))
		activeMetrics.RecordRequest(NmimtNvmeMiCommand.String(), opcode.String(), StatusInvalidCommandOpcode.String(), time.Since(start))
		return EncodeFrame(OuterHeader{ROR: true, NMIMT: NmimtNvmeMiCommand}, []byte{byte(StatusInvalidCommandOpcode)}), nil
	}

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext()
	} else {
		lc = lc.Clone()
	}
	lc.NMIMT = NmimtNvmeMiCommand.String()
	lc.Opcode = proc.Name
	ctx = logger.WithContext(ctx, lc)

	result, err := proc.Handler(ctx, sub, body[1:])
	if err != nil {
		logger.ErrorCtx(ctx, "handler failed", "error", err)
		activeMetrics.RecordRequest(NmimtNvmeMiCommand.String(), proc.Name, StatusInternalError.String(), time.Since(start))
		return EncodeFrame(OuterHeader{ROR: true, NMIMT: NmimtNvmeMiCommand}, []byte{byte(StatusInternalError)}), nil
	}

	activeMetrics.RecordRequest(NmimtNvmeMiCommand.String(), proc.Name, result.Status.String(), time.Since(start))
	respBody := append([]byte{byte(result.Status)}, result.Data...)
	return EncodeFrame(OuterHeader{ROR: true, NMIMT: NmimtNvmeMiCommand}, respBody), nil
}

func dispatchAdminCommand(ctx context.Context, sub *subsystem.Subsystem, body []byte) ([]byte, error) {
	start := time.Now()
	if len(body) < adminHeaderSize {
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), "unknown", "InvalidField", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil), nil
	}

	opcode := AdminOpcode(body[0])
	ctlid := subsystem.ControllerID(uint16(body[2]) | uint16(body[3])<<8)
	dofst := binary.LittleEndian.Uint32(body[4:8])
	dlen := binary.LittleEndian.Uint32(body[8:12])
	cmdBody := body[adminHeaderSize:]

	cflgs, err := wire.NewFlagSet(AdminCommandFlags(body[1]), AdminFlagISH)
	if err != nil {
		logger.WarnCtx(ctx, "undefined admin command flag bits", "cflgs", fmt.Sprintf("0x%x", body[1]))
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), fmt.Sprintf("0x%x", uint8(opcode)), "Internal", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil), nil
	}
	if cflgs.Has(AdminFlagISH) {
		logger.WarnCtx(ctx, "admin command sets ignore-shutdown-state flag", "opcode", fmt.Sprintf("0x%x", uint8(opcode)))
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), fmt.Sprintf("0x%x", uint8(opcode)), "Internal", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil), nil
	}

	if prohibitedAdminOpcodes[opcode] {
		logger.WarnCtx(ctx, "prohibited admin opcode", "opcode", fmt.Sprintf("0x%x", uint8(opcode)))
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), fmt.Sprintf("0x%x", uint8(opcode)), "InvalidOpcode", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInvalidOpcode, SCT: SctGeneric, DNR: true}, nil), nil
	}

	proc, ok := adminDispatchTable[opcode]
	if !ok {
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), fmt.Sprintf("0x%x", uint8(opcode)), "InvalidOpcode", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInvalidOpcode, SCT: SctGeneric, DNR: true}, nil), nil
	}

	ctl, err := sub.Controller(ctlid)
	if err != nil {
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), proc.Name, "InvalidField", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil), nil
	}

	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext()
	} else {
		lc = lc.Clone()
	}
	lc.NMIMT = NmimtNvmeAdminCommand.String()
	lc.Opcode = proc.Name
	lc.ControllerID = uint32(ctlid)
	ctx = logger.WithContext(ctx, lc)

	data, status, err := proc.Handler(ctx, sub, ctl, cmdBody)
	if err != nil {
		logger.ErrorCtx(ctx, "admin handler failed", "error", err)
		activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), proc.Name, "Internal", time.Since(start))
		return encodeAdminResponse(AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil), nil
	}

	if status.SC == ScSuccess && len(data) > 0 {
		windowed, werr := windowAdminResponse(data, dofst, dlen)
		if werr != nil {
			activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), proc.Name, "InvalidField", time.Since(start))
			return encodeAdminResponse(AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil), nil
		}
		data = windowed
	}

	activeMetrics.RecordRequest(NmimtNvmeAdminCommand.String(), proc.Name, fmt.Sprintf("SC0x%x", status.SC), time.Since(start))
	return encodeAdminResponse(status, data), nil
}

// windowAdminResponse constrains an admin handler's full response body
// to the (dofst, dlen) window the host requested, per the shared
// validation policy every admin response is routed through before CQE
// encoding.
func windowAdminResponse(body []byte, dofst, dlen uint32) ([]byte, error) {
	switch {
	case dofst&3 != 0:
		return nil, fmt.Errorf("mi: dofst %d not dword-aligned", dofst)
	case dofst >= uint32(len(body)):
		return nil, fmt.Errorf("mi: dofst %d beyond body length %d", dofst, len(body))
	case dlen&3 != 0:
		return nil, fmt.Errorf("mi: dlen %d not dword-aligned", dlen)
	case dlen > 4096:
		return nil, fmt.Errorf("mi: dlen %d exceeds 4096-byte maximum", dlen)
	case dlen == 0:
		return nil, fmt.Errorf("mi: dlen is zero")
	case dlen > uint32(len(body)) || dofst > uint32(len(body))-dlen:
		return nil, fmt.Errorf("mi: window [%d:%d] exceeds body length %d", dofst, dofst+dlen, len(body))
	}
	return body[dofst : dofst+dlen], nil
}

func encodeAdminResponse(status AdminStatus, data []byte) []byte {
	dword3 := EncodeCQEDword3(0, false, status)
	var cqe [16]byte
	cqe[12] = byte(dword3)
	cqe[13] = byte(dword3 >> 8)
	cqe[14] = byte(dword3 >> 16)
	cqe[15] = byte(dword3 >> 24)

	body := append(append([]byte{}, data...), cqe[:]...)
	return EncodeFrame(OuterHeader{ROR: true, NMIMT: NmimtNvmeAdminCommand}, body)
}
