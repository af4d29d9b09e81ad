package subsystem

// MaxControllers is the fixed capacity of the subsystem's controller
// collection.
const MaxControllers = 2

// MaxActiveNamespaces is the fixed capacity of a controller's attached
// namespace list.
const MaxActiveNamespaces = 4

// lsaesCount is the number of per-LID supported-and-effects entries a
// controller tracks (log page identifiers 0x00-0x12 inclusive).
const lsaesCount = 19

// ControllerID identifies a controller, assigned monotonically.
type ControllerID uint16

// ControllerType is the CNTRLTYPE reported by Identify Controller.
type ControllerType uint8

const (
	ControllerTypeIo             ControllerType = 1
	ControllerTypeDiscovery      ControllerType = 2
	ControllerTypeAdministrative ControllerType = 3
)

// UnitKind distinguishes the unit a temperature or percentage range is
// expressed in.
type UnitKind uint8

const (
	UnitKelvin  UnitKind = 0
	UnitPercent UnitKind = 1
)

// OperatingRange is an inclusive [Lower, Upper] bound for a health
// property, expressed in Kind's unit.
type OperatingRange struct {
	Kind  UnitKind
	Lower uint16
	Upper uint16
}

// Cc models the controller configuration register — only the Enable bit
// is tracked, matching the scope of this responder.
type Cc struct {
	En bool
}

// CstsFlags are the controller status register bits this responder
// models.
type CstsFlags uint16

const (
	CstsRdy  CstsFlags = 1 << 0
	CstsCfs  CstsFlags = 1 << 1
	CstsShst CstsFlags = 0b11 << 2 // ShstInProgress=01, ShstComplete=10
	CstsNssro CstsFlags = 1 << 4
	CstsPp   CstsFlags = 1 << 5
	CstsSt   CstsFlags = 1 << 6
)

// LPAFlags are the Log Page Attributes capability bits.
type LPAFlags uint8

const (
	LpaSmartPerNamespace LPAFlags = 1 << 0
	LpaCmdEffectsLog     LPAFlags = 1 << 1
	LpaExtendedData      LPAFlags = 1 << 2
)

// LSAE is a per-LID log-supported-and-effects descriptor.
type LSAE struct {
	Supported bool
	Ios       bool // offset-and-type (OT) supported for this log
}

// LID values this responder gives non-default LSAE entries for.
const (
	LidSupportedLogPages   = 0x00
	LidSmartHealth         = 0x02
	LidFeatureIDsEffects   = 0x12
)

// Controller is a logical NVMe controller.
type Controller struct {
	ID             ControllerID
	Type           ControllerType
	Port           PortID
	Secondaries    []ControllerID
	ActiveNS       []NamespaceID
	Temp           uint16 // Kelvin
	TempRange      OperatingRange
	Capacity       uint64
	Spare          uint64
	SpareRange     OperatingRange
	WriteAge       uint64
	WriteLifespan  uint64
	ReadOnly       bool
	Cc             Cc
	Csts           CstsFlags
	LPA            LPAFlags
	LSAEs          [lsaesCount]LSAE
}

// NewController returns a controller with the original's default health
// values: 293K temperature with a [213,400]K operating range, 100/100
// capacity/spare with a [5,100]% spare range, write age 38 of lifespan
// 100, and the default LSAE table (Supported Log Pages, SMART/Health,
// and Feature Identifiers Supported and Effects marked supported).
func NewController(id ControllerID, port PortID) Controller {
	c := Controller{
		ID:            id,
		Type:          ControllerTypeIo,
		Port:          port,
		Temp:          293,
		TempRange:     OperatingRange{Kind: UnitKelvin, Lower: 213, Upper: 400},
		Capacity:      100,
		Spare:         100,
		SpareRange:    OperatingRange{Kind: UnitPercent, Lower: 5, Upper: 100},
		WriteAge:      38,
		WriteLifespan: 100,
	}
	c.LSAEs[LidSupportedLogPages] = LSAE{Supported: true}
	c.LSAEs[LidSmartHealth] = LSAE{Supported: true}
	c.LSAEs[LidFeatureIDsEffects] = LSAE{Supported: true}
	return c
}

// SetProperty assigns cc, setting or clearing Csts.Rdy to match Cc.En.
func (c *Controller) SetProperty(cc Cc) {
	c.Cc = cc
	if cc.En {
		c.Csts |= CstsRdy
	} else {
		c.Csts &^= CstsRdy
	}
}

// SetTemperatureKelvin overwrites the controller's temperature. Only
// Kelvin readings are accepted at the model boundary.
func (c *Controller) SetTemperatureKelvin(kelvin uint16) {
	c.Temp = kelvin
}

// SparePercent derives the normalized spare-capacity percentage,
// saturating at 100 rather than overflowing.
func (c *Controller) SparePercent() uint8 {
	if c.Capacity == 0 {
		return 0
	}
	pct := 100 * c.Spare / c.Capacity
	if pct > 100 {
		pct = 100
	}
	return uint8(pct)
}

// PercentageUsed derives the write-wear PLDU field: 100 times the
// fraction of rated write lifespan consumed so far, saturating at 255
// rather than overflowing.
func (c *Controller) PercentageUsed() uint8 {
	if c.WriteLifespan == 0 {
		return 0
	}
	v := 100 * c.WriteAge / c.WriteLifespan
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Ctemp derives the wire CTEMP encoding of this controller's current
// temperature: clamp Temp into TempRange, convert Kelvin to Celsius,
// then encode the signed Celsius value as an unsigned byte via
// two's-complement wrap (negative values wrap to 256+value) rather
// than saturating. Recomputed on every call so a prior
// SetTemperatureKelvin is always reflected.
func (c *Controller) Ctemp() uint8 {
	clamped := c.Temp
	if clamped < c.TempRange.Lower {
		clamped = c.TempRange.Lower
	}
	if clamped > c.TempRange.Upper {
		clamped = c.TempRange.Upper
	}
	celsius := int32(clamped) - 273
	if celsius < 0 {
		celsius += 256
	}
	return uint8(celsius)
}

// AttachNamespace records nsid as attached to this controller.
func (c *Controller) AttachNamespace(nsid NamespaceID) error {
	for _, id := range c.ActiveNS {
		if id == nsid {
			return ErrAlreadyAttached
		}
	}
	if len(c.ActiveNS) >= MaxActiveNamespaces {
		return ErrNamespaceAttachmentLimitExceeded
	}
	c.ActiveNS = append(c.ActiveNS, nsid)
	return nil
}

// DetachNamespace removes nsid from this controller's attached list.
func (c *Controller) DetachNamespace(nsid NamespaceID) error {
	for i, id := range c.ActiveNS {
		if id == nsid {
			c.ActiveNS = append(c.ActiveNS[:i], c.ActiveNS[i+1:]...)
			return nil
		}
	}
	return ErrNamespaceNotAttached
}

// HasNamespace reports whether nsid is attached to this controller.
func (c *Controller) HasNamespace(nsid NamespaceID) bool {
	for _, id := range c.ActiveNS {
		if id == nsid {
			return true
		}
	}
	return false
}
