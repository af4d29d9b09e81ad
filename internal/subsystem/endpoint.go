package subsystem

// CHSCFlags are the per-controller Composite Controller Status change
// bits a management endpoint tracks between polls. Each bit latches
// when the corresponding controller property changes and stays set
// until explicitly cleared by a Controller Health Status Poll with its
// Clear Status bit set.
type CHSCFlags uint16

const (
	ChRdy    CHSCFlags = 1 << 0 // Csts.Rdy changed
	ChCfs    CHSCFlags = 1 << 1 // Csts.Cfs changed
	ChShst   CHSCFlags = 1 << 2 // Csts.Shst changed
	ChNssro  CHSCFlags = 1 << 3 // Csts.Nssro changed
	ChCeco   CHSCFlags = 1 << 4 // composite error count overflow
	ChNac    CHSCFlags = 1 << 5 // namespace attachment changed
	ChFa     CHSCFlags = 1 << 6 // firmware activation occurred
	ChCtemp  CHSCFlags = 1 << 7 // composite temperature crossed a reporting threshold
	ChPdlu   CHSCFlags = 1 << 8 // percentage drive life used changed
	ChSpare  CHSCFlags = 1 << 9 // spare capacity changed
)

// ccsMirror is the last-observed snapshot of a controller's reportable
// properties, used to detect what changed since the previous poll.
type ccsMirror struct {
	cc    Cc
	csts  CstsFlags
	temp  uint16
	spare uint64
}

// ManagementEndpoint is the management-side view of a port: it tracks,
// per controller, which Composite Controller Status bits have changed
// since the last Controller Health Status Poll, plus an aggregate
// bitmask for which controllers have any pending change at all.
type ManagementEndpoint struct {
	Port PortID

	mirrors map[ControllerID]ccsMirror
	chscf   map[ControllerID]CHSCFlags
	ccsf    uint32 // bit i set => controller with ID i has a pending change
}

// NewManagementEndpoint returns an endpoint with no pending changes.
func NewManagementEndpoint(port PortID) *ManagementEndpoint {
	return &ManagementEndpoint{
		Port:    port,
		mirrors: make(map[ControllerID]ccsMirror),
		chscf:   make(map[ControllerID]CHSCFlags),
	}
}

// Observe compares a controller's current state against the endpoint's
// last mirrored snapshot of it, latches the bits for whatever changed,
// updates the aggregate flag, and re-captures the mirror so the next
// Observe call only reports changes since now.
func (e *ManagementEndpoint) Observe(c *Controller) {
	prev, known := e.mirrors[c.ID]
	next := ccsMirror{cc: c.Cc, csts: c.Csts, temp: c.Temp, spare: c.Spare}

	if known {
		var delta CHSCFlags
		if prev.csts&CstsRdy != next.csts&CstsRdy {
			delta |= ChRdy
		}
		if prev.csts&CstsCfs != next.csts&CstsCfs {
			delta |= ChCfs
		}
		if prev.csts&CstsShst != next.csts&CstsShst {
			delta |= ChShst
		}
		if prev.csts&CstsNssro != next.csts&CstsNssro {
			delta |= ChNssro
		}
		if prev.temp != next.temp {
			delta |= ChCtemp
		}
		if prev.spare != next.spare {
			delta |= ChSpare
		}
		if delta != 0 {
			e.chscf[c.ID] |= delta
			e.ccsf |= 1 << uint(c.ID)
		}
	}

	e.mirrors[c.ID] = next
}

// MarkNamespaceAttachmentChanged latches ChNac for the given controller,
// independent of Observe's property comparison (namespace attachment is
// a subsystem-level event, not a controller-register change).
func (e *ManagementEndpoint) MarkNamespaceAttachmentChanged(ctlID ControllerID) {
	e.chscf[ctlID] |= ChNac
	e.ccsf |= 1 << uint(ctlID)
}

// Pending reports the latched change bits for a controller.
func (e *ManagementEndpoint) Pending(ctlID ControllerID) CHSCFlags {
	return e.chscf[ctlID]
}

// PendingControllers returns the IDs of controllers with at least one
// latched change bit, read from the per-controller change sets, in no
// particular order.
func (e *ManagementEndpoint) PendingControllers() []ControllerID {
	var ids []ControllerID
	for id, bits := range e.chscf {
		if bits != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Clear removes mask from a controller's latched bits and, if that
// empties its change set, clears the controller's aggregate flag too.
func (e *ManagementEndpoint) Clear(ctlID ControllerID, mask CHSCFlags) {
	remaining := e.chscf[ctlID] &^ mask
	e.chscf[ctlID] = remaining
	if remaining == 0 {
		e.ccsf &^= 1 << uint(ctlID)
	}
}

// AggregateChanged reports whether any controller behind this endpoint
// has a pending Composite Controller Status change.
func (e *ManagementEndpoint) AggregateChanged() bool {
	return e.ccsf != 0
}
