package mi

import (
	"context"
	"errors"
	"slices"

	"github.com/marmos91/nvmemid/internal/logger"
	"github.com/marmos91/nvmemid/internal/subsystem"
	"github.com/marmos91/nvmemid/internal/wire"
)

// Controller Identify Structure CNS values this responder implements.
const (
	CnsIdentifyNamespace            = 0x00
	CnsIdentifyController           = 0x01
	CnsActiveNamespaceList          = 0x02
	CnsNamespaceIdentDescriptorList = 0x03
	CnsAllocatedNamespaceList       = 0x10
	CnsNvmSubsystemControllerList   = 0x13
	CnsSecondaryControllerList      = 0x15
)

// handleAdminIdentify serves the Identify admin command across every
// CNS variant this responder supports. body layout: [0]=CNS
// [1:5]=NSID (little-endian) [5:7]=CNTID (little-endian, optional,
// defaults to 0 when omitted), matching the subset of the Identify
// dword fields this command set needs.
func handleAdminIdentify(ctx context.Context, sub *subsystem.Subsystem, ctl *subsystem.Controller, body []byte) ([]byte, AdminStatus, error) {
	if len(body) < 5 {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}
	cns := body[0]
	nsid := subsystem.NamespaceID(uint32(body[1]) | uint32(body[2])<<8 | uint32(body[3])<<16 | uint32(body[4])<<24)
	var cntid uint16
	if len(body) >= 7 {
		cntid = uint16(body[5]) | uint16(body[6])<<8
	}

	switch cns {
	case CnsIdentifyController:
		return identifyController(sub, ctl), AdminSuccess, nil
	case CnsIdentifyNamespace:
		if nsid == subsystem.BroadcastNamespaceID {
			logger.WarnCtx(ctx, "identify namespace with broadcast NSID is not implemented")
			return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
		}
		return identifyNamespace(sub, ctl, nsid)
	case CnsActiveNamespaceList:
		var ids []subsystem.NamespaceID
		for _, c := range sub.Controllers() {
			for _, id := range c.ActiveNS {
				if id > nsid && !slices.Contains(ids, id) {
					ids = append(ids, id)
				}
			}
		}
		slices.Sort(ids)
		return namespaceList(ids), AdminSuccess, nil
	case CnsNamespaceIdentDescriptorList:
		return namespaceIdentDescriptorList(sub, nsid)
	case CnsAllocatedNamespaceList:
		var ids []subsystem.NamespaceID
		for _, id := range allocatedNamespaceIDs(sub) {
			if id > nsid {
				ids = append(ids, id)
			}
		}
		return namespaceList(ids), AdminSuccess, nil
	case CnsNvmSubsystemControllerList:
		return subsystemControllerList(sub, cntid), AdminSuccess, nil
	case CnsSecondaryControllerList:
		return secondaryControllerList(ctl), AdminSuccess, nil
	default:
		return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
	}
}

func identifyController(sub *subsystem.Subsystem, ctl *subsystem.Controller) []byte {
	w := wire.NewWriter(64)
	w.Uint16(sub.Info.PCIVendorID)
	w.Uint16(sub.Info.PCISubsystemVID)
	w.FixedString(sub.Info.SerialNumber, 20)
	w.FixedString(sub.Info.ModelNumber, 40)
	w.FixedString(sub.Info.FirmwareRevision, 8)

	// Identify Controller reverses the stored OUI byte order relative
	// to NVM Subsystem Information's encoding.
	var oui [3]byte
	for i := range oui {
		oui[i] = sub.Info.IEEEOUI[len(sub.Info.IEEEOUI)-1-i]
	}
	w.Raw(oui[:])

	w.Uint8(uint8(ctl.Type))
	w.Uint32(subsystem.MaxNamespaces) // NN: namespace capacity
	w.PadTo(80)
	return w.Bytes()
}

func identifyNamespace(sub *subsystem.Subsystem, ctl *subsystem.Controller, nsid subsystem.NamespaceID) ([]byte, AdminStatus, error) {
	ns, err := sub.Namespace(nsid)
	if errors.Is(err, subsystem.ErrNamespaceNotFound) {
		// An unallocated namespace identifier reports as a zero-filled
		// structure, not an error.
		w := wire.NewWriter(40)
		w.PadTo(40)
		return w.Bytes(), AdminSuccess, nil
	}
	if err != nil {
		return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
	}
	if !ctl.HasNamespace(nsid) {
		return nil, AdminStatus{SC: ScInvalidNamespace, SCT: SctGeneric, DNR: true}, nil
	}

	w := wire.NewWriter(40)
	w.Uint64(ns.Size)
	w.Uint64(ns.Capacity)
	w.Uint64(ns.Used)
	w.Uint8(uint8(ns.BlockOrder))
	w.UUID(ns.UUID)
	w.PadTo(40)
	return w.Bytes(), AdminSuccess, nil
}

// namespaceIdentDescriptorList serves Identify CNS 0x03: the tagged
// namespace identifier descriptor list. Broadcast or out-of-range NSID
// is rejected rather than reporting a skeleton, since descriptors are
// only meaningful for one concrete namespace.
func namespaceIdentDescriptorList(sub *subsystem.Subsystem, nsid subsystem.NamespaceID) ([]byte, AdminStatus, error) {
	if nsid == 0 || nsid == subsystem.BroadcastNamespaceID {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}
	ns, err := sub.Namespace(nsid)
	if err != nil {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}

	w := wire.NewWriter(64)
	for _, d := range ns.Nids {
		w.Uint8(uint8(d.Type))
		w.Uint8(uint8(len(d.Value)))
		w.Uint16(0) // reserved
		w.Raw(d.Value)
	}
	return w.Bytes(), AdminSuccess, nil
}

// subsystemControllerList serves Identify CNS 0x13: every controller
// id greater than or equal to cntid.
func subsystemControllerList(sub *subsystem.Subsystem, cntid uint16) []byte {
	var ids []subsystem.ControllerID
	for _, c := range sub.Controllers() {
		if uint16(c.ID) >= cntid {
			ids = append(ids, c.ID)
		}
	}

	w := wire.NewWriter(2 + 2*len(ids))
	w.Uint16(uint16(len(ids)))
	for _, id := range ids {
		w.Uint16(uint16(id))
	}
	return w.Bytes()
}

// secondaryControllerList serves Identify CNS 0x15. This responder's
// bootstrap topology never populates a controller's Secondaries list,
// so the zero-filled stub is always returned.
func secondaryControllerList(ctl *subsystem.Controller) []byte {
	w := wire.NewWriter(4096)
	w.PadTo(4096)
	return w.Bytes()
}

func namespaceList(ids []subsystem.NamespaceID) []byte {
	w := wire.NewWriter(4 * (len(ids) + 1))
	for _, id := range ids {
		w.Uint32(uint32(id))
	}
	w.Uint32(0) // list terminator
	return w.Bytes()
}

func allocatedNamespaceIDs(sub *subsystem.Subsystem) []subsystem.NamespaceID {
	ns := sub.Namespaces()
	ids := make([]subsystem.NamespaceID, len(ns))
	for i, n := range ns {
		ids[i] = n.ID
	}
	return ids
}

// Fixed response sizes for the log pages this responder serves. Every
// Get Log Page body is a fixed size regardless of how much of it is
// meaningfully populated; the rest is zero-padded.
const (
	supportedLogPagesSize    = 1024
	smartHealthLogSize       = 512
	featureIDsEffectsLogSize = 1024
)

// handleAdminGetLogPage serves the Get Log Page admin command. body
// layout: [0]=LID [1:3]=NUMDW (little-endian dword count, minus one).
func handleAdminGetLogPage(ctx context.Context, sub *subsystem.Subsystem, ctl *subsystem.Controller, body []byte) ([]byte, AdminStatus, error) {
	if len(body) < 3 {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}
	lid := body[0]
	numdw := uint32(body[1]) | uint32(body[2])<<8
	if int(lid) >= len(ctl.LSAEs) || !ctl.LSAEs[lid].Supported {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}

	var data []byte
	var fixedSize int
	switch lid {
	case subsystem.LidSupportedLogPages:
		fixedSize = supportedLogPagesSize
		data = supportedLogPagesLog(ctl)
	case subsystem.LidSmartHealth:
		fixedSize = smartHealthLogSize
		data = smartHealthLog(ctl)
	case subsystem.LidFeatureIDsEffects:
		// All-zero stub; this responder does not model per-command
		// effects.
		fixedSize = featureIDsEffectsLogSize
		data = make([]byte, featureIDsEffectsLogSize)
	default:
		// NUMDW-sized variable log pages beyond the fixed layouts this
		// responder models are not implemented.
		logger.WarnCtx(ctx, "get log page for an unmodelled log page is not implemented", "lid", lid)
		return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
	}

	if (numdw+1)*4 != uint32(fixedSize) {
		logger.WarnCtx(ctx, "get log page with a NUMDW-specified size is not implemented", "lid", lid, "numdw", numdw)
		return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
	}
	return data, AdminSuccess, nil
}

func supportedLogPagesLog(ctl *subsystem.Controller) []byte {
	w := wire.NewWriter(supportedLogPagesSize)
	for _, e := range ctl.LSAEs {
		var b uint32
		if e.Supported {
			b |= 1 << 0
		}
		if e.Ios {
			b |= 1 << 1
		}
		w.Uint32(b)
	}
	w.PadTo(supportedLogPagesSize)
	return w.Bytes()
}

func smartHealthLog(ctl *subsystem.Controller) []byte {
	w := wire.NewWriter(smartHealthLogSize)

	var cw uint8
	if uint16(ctl.SparePercent()) < ctl.SpareRange.Lower {
		cw |= 1 << 0 // Ascbt
	}
	if ctl.Temp < ctl.TempRange.Lower || ctl.Temp > ctl.TempRange.Upper {
		cw |= 1 << 1 // Ttc
	}
	if ctl.ReadOnly {
		cw |= 1 << 3 // Amro
	}
	w.Uint8(cw)

	w.Uint8(ctl.Ctemp())
	w.Uint8(ctl.SparePercent())
	w.Uint8(ctl.PercentageUsed())
	for i := 0; i < 8; i++ {
		w.Uint16(ctl.Temp) // tsen[0..8]: all sensors report the same reading
	}
	w.PadTo(smartHealthLogSize)
	return w.Bytes()
}

// handleAdminNamespaceManagement serves the Namespace Management admin
// command. body layout: [0]=SEL (0=create,1=delete) [1:5]=NSID for
// delete, [8:16]=requested size in blocks, [16]=block order for create.
func handleAdminNamespaceManagement(ctx context.Context, sub *subsystem.Subsystem, ctl *subsystem.Controller, body []byte) ([]byte, AdminStatus, error) {
	if len(body) < 1 {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}

	switch body[0] {
	case 0x00: // create
		if len(body) < 17 {
			return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
		}
		var size uint64
		for i := 0; i < 8; i++ {
			size |= uint64(body[8+i]) << (8 * i)
		}
		order := subsystem.BlockOrder(body[16])

		id, err := sub.AddNamespace(size, order)
		if errors.Is(err, subsystem.ErrNamespaceIdentifierUnavailable) {
			return nil, AdminStatus{SC: ScNamespaceIdentifierUnavailable, SCT: SctCommandSpecific, DNR: true}, nil
		}
		if err != nil {
			return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
		}

		w := wire.NewWriter(4)
		w.Uint32(uint32(id))
		return w.Bytes(), AdminSuccess, nil

	case 0x01: // delete
		if len(body) < 5 {
			return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
		}
		nsid := subsystem.NamespaceID(uint32(body[1]) | uint32(body[2])<<8 | uint32(body[3])<<16 | uint32(body[4])<<24)
		if err := sub.RemoveNamespace(nsid); err != nil {
			return nil, AdminStatus{SC: ScNamespaceIdentifierUnavailable, SCT: SctCommandSpecific, DNR: true}, nil
		}
		return nil, AdminSuccess, nil

	default:
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}
}

// handleAdminNamespaceAttachment serves the Namespace Attachment admin
// command. body layout: [0]=SEL (0=attach,1=detach) [1:5]=NSID
// [5:7]=controller id.
func handleAdminNamespaceAttachment(ctx context.Context, sub *subsystem.Subsystem, ctl *subsystem.Controller, body []byte) ([]byte, AdminStatus, error) {
	if len(body) < 7 {
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}
	nsid := subsystem.NamespaceID(uint32(body[1]) | uint32(body[2])<<8 | uint32(body[3])<<16 | uint32(body[4])<<24)
	target := subsystem.ControllerID(uint16(body[5]) | uint16(body[6])<<8)

	switch body[0] {
	case 0x00: // attach
		err := sub.AttachNamespace(nsid, target)
		switch {
		case errors.Is(err, subsystem.ErrAlreadyAttached):
			return nil, AdminStatus{SC: ScNamespaceAlreadyAttached, SCT: SctCommandSpecific, DNR: true}, nil
		case errors.Is(err, subsystem.ErrNamespaceAttachmentLimitExceeded):
			return nil, AdminStatus{SC: ScNamespaceAttachmentLimitExceeded, SCT: SctCommandSpecific, DNR: true}, nil
		case errors.Is(err, subsystem.ErrNamespaceNotFound), errors.Is(err, subsystem.ErrControllerNotFound):
			return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
		case err != nil:
			return nil, AdminStatus{SC: ScInternal, SCT: SctGeneric, DNR: true}, nil
		}
		return nil, AdminSuccess, nil

	case 0x01: // detach
		err := sub.DetachNamespace(nsid, target)
		switch {
		case errors.Is(err, subsystem.ErrNamespaceNotAttached):
			return nil, AdminStatus{SC: ScNamespaceNotAttached, SCT: SctCommandSpecific, DNR: true}, nil
		case err != nil:
			return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
		}
		return nil, AdminSuccess, nil

	default:
		return nil, AdminStatus{SC: ScInvalidField, SCT: SctGeneric, DNR: true}, nil
	}
}
