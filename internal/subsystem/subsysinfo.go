package subsystem

// SubsystemInfo is the immutable build-time identity of a subsystem
// instance. It is supplied once at construction by an external
// collaborator (internal/config) and never mutated afterward.
type SubsystemInfo struct {
	PCIVendorID       uint16
	PCIDeviceID       uint16
	PCISubsystemVID   uint16
	PCISubsystemDID   uint16
	IEEEOUI           [3]byte
	InstanceSeed      [16]byte
	SerialNumber      string
	ModelNumber       string
	FirmwareRevision  string
}

// DefaultSubsystemInfo returns the placeholder identity used when no
// real build-time values are supplied: 0xFFFF PCI ids and the IEEE
// private OUI AC-DE-48, stored byte-reversed exactly as internal/config
// stores a parsed NVME_MI_DEV_IEEE_OUI of "ac-de-48".
func DefaultSubsystemInfo() SubsystemInfo {
	return SubsystemInfo{
		PCIVendorID:      0xFFFF,
		PCIDeviceID:      0xFFFF,
		PCISubsystemVID:  0xFFFF,
		PCISubsystemDID:  0xFFFF,
		IEEEOUI:          [3]byte{0x48, 0xde, 0xac},
		SerialNumber:     "1000",
		ModelNumber:      "MIDEV",
		FirmwareRevision: "00.00.01",
	}
}
