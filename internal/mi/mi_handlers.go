package mi

import (
	"context"
	"fmt"
	"math"

	"github.com/marmos91/nvmemid/internal/logger"
	"github.com/marmos91/nvmemid/internal/subsystem"
	"github.com/marmos91/nvmemid/internal/wire"
)

// NVMe-MI Data Structure types, selected by the first byte of a Read
// NVMe-MI Data Structure command's body.
const (
	DtypeNVMSubsystemInfo   = 0x00
	DtypePortInfo           = 0x01
	DtypeControllerList     = 0x02
	DtypeControllerInfo     = 0x03
	DtypeOptSupportedCmds   = 0x04
	DtypeManagementEndpoint = 0x05
)

// handleReadNVMeMIDataStructure serves the Read NVMe-MI Data Structure
// command. body is the command-specific bytes following the opcode:
// [0]=dtype; for PortInfo [1]=port id; for ControllerInfo [1:3]=controller
// id (little-endian); other types ignore the remaining bytes.
func handleReadNVMeMIDataStructure(ctx context.Context, sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	if len(body) < 1 {
		return &HandlerResult{Status: StatusInvalidCommandSize}, nil
	}

	switch body[0] {
	case DtypeNVMSubsystemInfo:
		return readNVMSubsystemInfo(sub), nil
	case DtypePortInfo:
		return readPortInfo(sub, body)
	case DtypeControllerList:
		return readControllerList(sub), nil
	case DtypeControllerInfo:
		return readControllerInfo(sub, body)
	default:
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}
}

func readNVMSubsystemInfo(sub *subsystem.Subsystem) *HandlerResult {
	w := wire.NewWriter(32)
	w.Uint8(uint8(len(sub.Ports())))
	w.Uint8(uint8(len(sub.Controllers())))
	// NUMP/MEC reserved region kept zero-filled; IEEE OUI is carried here
	// unreversed, unlike Identify Controller's wire encoding.
	w.Raw(sub.Info.IEEEOUI[:])
	w.PadTo(32)
	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}
}

func readPortInfo(sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	if len(body) < 2 {
		return &HandlerResult{Status: StatusInvalidCommandSize}, nil
	}
	port, err := sub.Port(subsystem.PortID(body[1]))
	if err != nil {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}

	w := wire.NewWriter(32)
	w.Uint8(uint8(port.Kind))
	w.Uint8(0) // reserved
	w.Uint16(port.MMTUS)
	w.Uint32(port.MEBS)
	w.Uint16(port.MTUS)

	var caps uint8
	if port.Caps.CIAPS {
		caps |= 1 << 0
	}
	if port.Caps.AEMS {
		caps |= 1 << 1
	}
	w.Uint8(caps)

	switch port.Kind {
	case subsystem.PortPCIe:
		w.Uint8(port.Pcie.Segment)
		w.Uint16(port.Pcie.Bus<<8 | port.Pcie.Device<<3 | port.Pcie.Function)
		w.Uint8(uint8(port.Pcie.MaxPayloadSize))
		w.Uint8(uint8(port.Pcie.LinkSpeed))
		w.Uint8(uint8(port.Pcie.MaxLinkWidth))
		w.Uint8(uint8(port.Pcie.NegotiatedWidth))
	case subsystem.PortTwoWire:
		w.Uint8(port.Two.VPDAddress)
		w.Uint8(uint8(port.Two.VPDFrequencyCap))
		w.Uint8(port.Two.MgmtAddress)
		if port.Two.I3CSupport {
			w.Uint8(1)
		} else {
			w.Uint8(0)
		}
		w.Uint8(uint8(port.Two.MaxSMBusFreq))
		w.Uint8(uint8(port.Two.CurrentSMBusFreq))
	}
	w.PadTo(32)
	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}, nil
}

func readControllerList(sub *subsystem.Subsystem) *HandlerResult {
	controllers := sub.Controllers()
	// Not padded to a fixed controller capacity: emitted dynamically
	// sized, matching how real NVMe-MI clients already tolerate a
	// variable-length controller list response.
	w := wire.NewWriter(2 + 2*len(controllers))
	w.Uint16(uint16(len(controllers)))
	for _, c := range controllers {
		w.Uint16(uint16(c.ID))
	}
	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}
}

func readControllerInfo(sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	if len(body) < 3 {
		return &HandlerResult{Status: StatusInvalidCommandSize}, nil
	}
	ctlid := subsystem.ControllerID(uint16(body[1]) | uint16(body[2])<<8)
	ctl, err := sub.Controller(ctlid)
	if err != nil {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}

	w := wire.NewWriter(16)
	w.Uint8(uint8(ctl.Port))
	w.Uint8(uint8(ctl.Type))
	w.PadTo(16)
	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}, nil
}

// handleNVMSubsystemHealthStatusPoll serves the NVM Subsystem Health
// Status Poll command. body[0] holds the Clear Status (CS) bit in its
// LSB; when set, every controller's latched change bits are cleared
// after being reported.
func handleNVMSubsystemHealthStatusPoll(ctx context.Context, sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	clearStatus := len(body) > 0 && body[0]&0x01 != 0

	sub.ObserveControllers()
	health := sub.Health()

	var ctemp uint8
	if ctlr0, err := sub.HealthController(); err == nil {
		ctemp = ctlr0.Ctemp()
	}

	w := wire.NewWriter(8)
	w.Uint8(ctemp)

	var pf uint8
	if health.Status.ATF {
		pf |= 1 << 0
	}
	if health.Status.SFM {
		pf |= 1 << 1
	}
	w.Uint8(pf)

	var sr uint8
	if health.Status.DF {
		sr |= 1 << 0
	}
	if health.Status.RNR {
		sr |= 1 << 1
	}
	if health.Status.RD {
		sr |= 1 << 2
	}
	w.Uint8(sr)

	var ccs uint32
	for _, port := range sub.Ports() {
		ep, err := sub.Endpoint(port.ID)
		if err != nil {
			continue
		}
		for _, id := range ep.PendingControllers() {
			ccs |= 1 << uint(id)
			activeMetrics.RecordCCSTransition(fmt.Sprintf("%d", uint16(id)))
			if clearStatus {
				ep.Clear(id, math.MaxUint16)
			}
		}
	}
	w.Uint32(ccs)

	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}, nil
}

// handleControllerHealthStatusPoll serves the Controller Health Status
// Poll command. body layout: [0:2]=starting controller id [2]=flags
// (bit0=report all, bit1=clear status).
func handleControllerHealthStatusPoll(ctx context.Context, sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	if len(body) < 3 {
		return &HandlerResult{Status: StatusInvalidCommandSize}, nil
	}
	reportAll := body[2]&0x01 != 0
	clearStatus := body[2]&0x02 != 0

	if !reportAll {
		// Reporting a bounded controller range is a path this
		// responder's mandatory command set does not implement;
		// logged rather than silently misreported.
		logger.WarnCtx(ctx, "controller health status poll without report-all is not implemented")
		return &HandlerResult{Status: StatusInternalError}, nil
	}

	sub.ObserveControllers()

	controllers := sub.Controllers()
	w := wire.NewWriter(4 + 16*len(controllers))
	w.Uint16(uint16(len(controllers)))
	w.Uint16(0) // reserved

	for _, c := range controllers {
		ep, err := sub.Endpoint(c.Port)
		var chscf subsystem.CHSCFlags
		if err == nil {
			chscf = ep.Pending(c.ID)
			if chscf != 0 {
				activeMetrics.RecordCCSTransition(fmt.Sprintf("%d", uint16(c.ID)))
			}
			if clearStatus {
				ep.Clear(c.ID, chscf)
			}
		}

		w.Uint16(uint16(c.ID))
		w.Uint16(uint16(chscf))
		w.Uint16(uint16(c.Csts))
		w.Uint16(ctempOf(c))
	}

	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}, nil
}

func ctempOf(c subsystem.Controller) uint16 {
	return c.Temp
}

// handleConfigurationGet serves the Configuration Get command. body[0]
// selects the configuration identifier (SMBus port frequency, MCTP MTU,
// etc.); only the port-frequency identifier is implemented.
func handleConfigurationGet(ctx context.Context, sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	if len(body) < 2 {
		return &HandlerResult{Status: StatusInvalidCommandSize}, nil
	}
	const cfgSMBusFreq = 0x01
	if body[0] != cfgSMBusFreq {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}

	port, err := sub.Port(subsystem.PortID(body[1]))
	if err != nil || port.Kind != subsystem.PortTwoWire {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}

	w := wire.NewWriter(4)
	w.Uint8(uint8(port.Two.CurrentSMBusFreq))
	w.PadTo(4)
	return &HandlerResult{Status: StatusSuccess, Data: w.Bytes()}, nil
}

// handleConfigurationSet serves the Configuration Set command. body
// layout: [0]=config id [1]=port id [2]=new SMBus frequency.
func handleConfigurationSet(ctx context.Context, sub *subsystem.Subsystem, body []byte) (*HandlerResult, error) {
	if len(body) < 3 {
		return &HandlerResult{Status: StatusInvalidCommandSize}, nil
	}
	const cfgSMBusFreq = 0x01
	if body[0] != cfgSMBusFreq {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}

	port, err := sub.Port(subsystem.PortID(body[1]))
	if err != nil || port.Kind != subsystem.PortTwoWire {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}

	requested := subsystem.SMBusFrequency(body[2])
	if requested > port.Two.MaxSMBusFreq {
		return &HandlerResult{Status: StatusInvalidParameter}, nil
	}
	port.Two.CurrentSMBusFreq = requested
	return &HandlerResult{Status: StatusSuccess}, nil
}
