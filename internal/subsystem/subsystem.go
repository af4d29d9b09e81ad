// Package subsystem holds the data model for a single NVMe-MI
// subsystem instance: its ports, controllers, namespaces, and the
// composite health/status state a management endpoint polls. It has no
// knowledge of wire encoding or message dispatch; internal/mi builds on
// top of it.
package subsystem

// Subsystem is the root aggregate of the data model described in
// SPEC_FULL.md §3. A single instance is owned exclusively by the
// dispatch goroutine in internal/mi; nothing here is safe for
// concurrent access by design, matching the cooperative, single
// reference-holder concurrency model.
type Subsystem struct {
	Info SubsystemInfo

	ports       []Port
	controllers []Controller
	namespaces  map[NamespaceID]Namespace
	endpoints   []*ManagementEndpoint

	health SubsystemHealth

	nextControllerID ControllerID
	nextNamespaceID  NamespaceID
}

// New builds an empty subsystem from the given build-time identity.
func New(info SubsystemInfo) *Subsystem {
	return &Subsystem{
		Info:             info,
		namespaces:       make(map[NamespaceID]Namespace),
		health:           NewSubsystemHealth(),
		nextControllerID: 1,
		nextNamespaceID:  1,
	}
}

// AddPort appends a port, enforcing MaxPorts, and gives it a matching
// management endpoint.
func (s *Subsystem) AddPort(kind PortKind) (PortID, error) {
	if len(s.ports) >= MaxPorts {
		return 0, ErrPortLimitExceeded
	}
	id := PortID(len(s.ports))

	var p Port
	switch kind {
	case PortPCIe:
		p = NewPciePortEntry(id)
	case PortTwoWire:
		p = NewTwoWirePortEntry(id)
	default:
		p = NewInactivePort(id)
	}

	s.ports = append(s.ports, p)
	s.endpoints = append(s.endpoints, NewManagementEndpoint(id))
	return id, nil
}

// Port returns the port with the given identifier.
func (s *Subsystem) Port(id PortID) (*Port, error) {
	if int(id) >= len(s.ports) {
		return nil, ErrPortNotFound
	}
	return &s.ports[id], nil
}

// Ports returns every port in the subsystem.
func (s *Subsystem) Ports() []Port {
	return s.ports
}

// Endpoint returns the management endpoint bound to the given port.
func (s *Subsystem) Endpoint(id PortID) (*ManagementEndpoint, error) {
	if int(id) >= len(s.endpoints) {
		return nil, ErrPortNotFound
	}
	return s.endpoints[id], nil
}

// AddController appends a controller bound to the given port,
// enforcing MaxControllers, and assigns it the next controller
// identifier.
func (s *Subsystem) AddController(port PortID) (ControllerID, error) {
	if len(s.controllers) >= MaxControllers {
		return 0, ErrControllerLimitExceeded
	}
	if _, err := s.Port(port); err != nil {
		return 0, err
	}

	id := s.nextControllerID
	s.nextControllerID++
	s.controllers = append(s.controllers, NewController(id, port))
	return id, nil
}

// Controller returns the controller with the given identifier.
func (s *Subsystem) Controller(id ControllerID) (*Controller, error) {
	for i := range s.controllers {
		if s.controllers[i].ID == id {
			return &s.controllers[i], nil
		}
	}
	return nil, ErrControllerNotFound
}

// Controllers returns every controller in the subsystem.
func (s *Subsystem) Controllers() []Controller {
	return s.controllers
}

// Health returns the subsystem-wide composite health snapshot.
func (s *Subsystem) Health() *SubsystemHealth {
	return &s.health
}

// HealthController returns the controller whose live temperature backs
// subsystem-wide composite-temperature reporting: the first controller
// in id order, matching the original's "pick the first controller"
// strategy for a device with no single designated health controller.
func (s *Subsystem) HealthController() (*Controller, error) {
	if len(s.controllers) == 0 {
		return nil, ErrControllerNotFound
	}
	return &s.controllers[0], nil
}

// AddNamespace allocates a namespace of the given size, enforcing
// MaxNamespaces and refusing once the identifier counter reaches the
// reserved broadcast value, and assigns it a deterministic UUID derived
// from the subsystem's instance seed.
func (s *Subsystem) AddNamespace(size uint64, order BlockOrder) (NamespaceID, error) {
	if len(s.namespaces) >= MaxNamespaces || s.nextNamespaceID == BroadcastNamespaceID {
		return 0, ErrNamespaceIdentifierUnavailable
	}

	id := s.nextNamespaceID
	s.nextNamespaceID++
	s.namespaces[id] = NewNamespace(id, size, order, s.Info.InstanceSeed)
	return id, nil
}

// Namespace returns the namespace with the given identifier.
func (s *Subsystem) Namespace(id NamespaceID) (*Namespace, error) {
	ns, ok := s.namespaces[id]
	if !ok {
		return nil, ErrNamespaceNotFound
	}
	return &ns, nil
}

// Namespaces returns every allocated namespace, ordered by identifier.
func (s *Subsystem) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(s.namespaces))
	for id := NamespaceID(1); id < s.nextNamespaceID; id++ {
		if ns, ok := s.namespaces[id]; ok {
			out = append(out, ns)
		}
	}
	return out
}

// RemoveNamespace deallocates a namespace (every namespace when id is
// BroadcastNamespaceID), detaching it from every controller it is
// currently attached to and marking each affected controller's
// management endpoint as having a namespace-attachment change pending.
// An unknown id yields ErrNamespaceIdentifierUnavailable.
func (s *Subsystem) RemoveNamespace(id NamespaceID) error {
	if id == BroadcastNamespaceID {
		for nsid := range s.namespaces {
			if err := s.RemoveNamespace(nsid); err != nil {
				return err
			}
		}
		return nil
	}
	if _, ok := s.namespaces[id]; !ok {
		return ErrNamespaceIdentifierUnavailable
	}

	for i := range s.controllers {
		c := &s.controllers[i]
		if !c.HasNamespace(id) {
			continue
		}
		_ = c.DetachNamespace(id)
		if ep, err := s.Endpoint(c.Port); err == nil {
			ep.MarkNamespaceAttachmentChanged(c.ID)
		}
	}

	delete(s.namespaces, id)
	return nil
}

// AttachNamespace attaches namespace nsid to controller ctlid and marks
// the controller's management endpoint as having a pending namespace-
// attachment change.
func (s *Subsystem) AttachNamespace(nsid NamespaceID, ctlid ControllerID) error {
	if _, err := s.Namespace(nsid); err != nil {
		return err
	}
	c, err := s.Controller(ctlid)
	if err != nil {
		return err
	}
	if err := c.AttachNamespace(nsid); err != nil {
		return err
	}
	if ep, err := s.Endpoint(c.Port); err == nil {
		ep.MarkNamespaceAttachmentChanged(ctlid)
	}
	return nil
}

// DetachNamespace detaches namespace nsid from controller ctlid and
// marks the controller's management endpoint as having a pending
// namespace-attachment change.
func (s *Subsystem) DetachNamespace(nsid NamespaceID, ctlid ControllerID) error {
	c, err := s.Controller(ctlid)
	if err != nil {
		return err
	}
	if err := c.DetachNamespace(nsid); err != nil {
		return err
	}
	if ep, err := s.Endpoint(c.Port); err == nil {
		ep.MarkNamespaceAttachmentChanged(ctlid)
	}
	return nil
}

// ObserveControllers refreshes every management endpoint's Composite
// Controller Status change tracking against the live state of the
// controllers bound to it. Call this before serving a Controller
// Health Status Poll so mirrors reflect any mutation dispatched since
// the previous poll.
func (s *Subsystem) ObserveControllers() {
	for i := range s.controllers {
		c := &s.controllers[i]
		if ep, err := s.Endpoint(c.Port); err == nil {
			ep.Observe(c)
		}
	}
}
