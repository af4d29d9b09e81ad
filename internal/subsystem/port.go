package subsystem

// MaxPorts is the fixed capacity of the subsystem's port collection.
const MaxPorts = 2

// PortID identifies a port, assigned monotonically starting at 0.
type PortID uint8

// PortKind tags which variant a Port's type-specific fields hold.
type PortKind uint8

const (
	PortInactive PortKind = 0x00
	PortPCIe     PortKind = 0x01
	PortTwoWire  PortKind = 0x02
)

// PCIeLinkSpeed is the negotiated or maximum PCIe link speed, GTS2P5
// through GTS64 per PCIe Base.
type PCIeLinkSpeed uint8

const (
	LinkSpeedGTS2P5 PCIeLinkSpeed = 0x01
	LinkSpeedGTS5   PCIeLinkSpeed = 0x02
	LinkSpeedGTS8   PCIeLinkSpeed = 0x03
	LinkSpeedGTS16  PCIeLinkSpeed = 0x04
	LinkSpeedGTS32  PCIeLinkSpeed = 0x05
	LinkSpeedGTS64  PCIeLinkSpeed = 0x06
)

// PCIeLinkWidth is a negotiated or maximum PCIe lane width.
type PCIeLinkWidth uint8

const (
	LinkWidthX1  PCIeLinkWidth = 1
	LinkWidthX2  PCIeLinkWidth = 2
	LinkWidthX4  PCIeLinkWidth = 4
	LinkWidthX8  PCIeLinkWidth = 8
	LinkWidthX12 PCIeLinkWidth = 12
	LinkWidthX16 PCIeLinkWidth = 16
	LinkWidthX32 PCIeLinkWidth = 32
)

// PCIePayloadSize is the maximum payload size advertised by a PCIe port.
type PCIePayloadSize uint8

const (
	Payload128B  PCIePayloadSize = 0x00
	Payload256B  PCIePayloadSize = 0x01
	Payload512B  PCIePayloadSize = 0x02
	Payload1024B PCIePayloadSize = 0x03
)

// PciePort describes a port backed by a PCIe function.
type PciePort struct {
	Bus             uint16
	Device          uint16
	Function        uint16
	Segment         uint8
	MaxPayloadSize  PCIePayloadSize
	LinkSpeed       PCIeLinkSpeed
	MaxLinkWidth    PCIeLinkWidth
	NegotiatedWidth PCIeLinkWidth
}

// NewPciePort returns a PciePort with the original's defaults: function 0
// at segment 0, 128B max payload, Gen1 link speed, x2/x1 width.
func NewPciePort() PciePort {
	return PciePort{
		MaxPayloadSize:  Payload128B,
		LinkSpeed:       LinkSpeedGTS2P5,
		MaxLinkWidth:    LinkWidthX2,
		NegotiatedWidth: LinkWidthX1,
	}
}

// SMBusFrequency is a negotiated or advertised SMBus/I2C clock rate.
type SMBusFrequency uint8

const (
	FreqNotSupported SMBusFrequency = 0x00
	Freq100kHz       SMBusFrequency = 0x01
	Freq400kHz       SMBusFrequency = 0x02
	Freq1MHz         SMBusFrequency = 0x03
)

// TwoWirePort describes a port backed by an SMBus/I2C/I3C link.
type TwoWirePort struct {
	VPDAddress       uint8
	VPDFrequencyCap  SMBusFrequency
	MgmtAddress      uint8
	I3CSupport       bool
	MaxSMBusFreq     SMBusFrequency
	NVMeBasicMgmt    bool
	CurrentSMBusFreq SMBusFrequency
}

// NewTwoWirePort returns a TwoWirePort with the original's defaults:
// management controller address 0x1d, 400kHz maximum, 100kHz negotiated.
func NewTwoWirePort() TwoWirePort {
	return TwoWirePort{
		VPDFrequencyCap:  FreqNotSupported,
		MgmtAddress:      0x1d,
		MaxSMBusFreq:     Freq400kHz,
		CurrentSMBusFreq: Freq100kHz,
	}
}

// PortCapabilities are the CIAPS/AEMS capability bits of a Port.
type PortCapabilities struct {
	CIAPS bool
	AEMS  bool
}

// Port is a communication endpoint of the subsystem.
type Port struct {
	ID    PortID
	Kind  PortKind
	Pcie  PciePort
	Two   TwoWirePort
	Caps  PortCapabilities
	MMTUS uint16 // maximum MCTP transmission unit, default 64
	MEBS  uint32 // management endpoint buffer size
	MTUS  uint16 // current negotiated MTU
}

// NewInactivePort returns an inactive port with the default 64-byte MMTUS.
func NewInactivePort(id PortID) Port {
	return Port{ID: id, Kind: PortInactive, MMTUS: 64}
}

// NewPciePortEntry returns a PCIe-backed port.
func NewPciePortEntry(id PortID) Port {
	return Port{ID: id, Kind: PortPCIe, Pcie: NewPciePort(), MMTUS: 64}
}

// NewTwoWirePortEntry returns a two-wire-backed port.
func NewTwoWirePortEntry(id PortID) Port {
	return Port{ID: id, Kind: PortTwoWire, Two: NewTwoWirePort(), MMTUS: 64}
}
