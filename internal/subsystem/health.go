package subsystem

// NVMSubsystemStatus is the composite status reported by an NVM
// Subsystem Health Status Poll, independent of any single controller.
type NVMSubsystemStatus struct {
	// ATF: NVM Subsystem Reliability - a failure has been detected
	ATF bool
	// SFM: spare space for at least one controller has fallen below the
	// configured threshold
	SFM bool
	// DF: drive functional - the subsystem is able to process commands
	DF bool
	// RNR: reset not required for the subsystem to resume normal operation
	RNR bool
	// RD: reset required
	RD bool
}

// DefaultNVMSubsystemStatus returns the original's nominal status: no
// reliability failure, no spare-space warning, functional, no reset
// required or pending.
func DefaultNVMSubsystemStatus() NVMSubsystemStatus {
	return NVMSubsystemStatus{
		ATF: false,
		SFM: false,
		DF:  true,
		RNR: true,
		RD:  false,
	}
}

// SubsystemHealth aggregates the subsystem-wide composite status used
// by the NVM Subsystem Health Status Poll command. Composite
// temperature is deliberately not cached here: it is derived fresh on
// every poll from controller 0's live Temp/TempRange (see
// Controller.Ctemp and Subsystem.HealthController), so it always
// reflects whatever SetTemperatureKelvin last set.
type SubsystemHealth struct {
	Status NVMSubsystemStatus
}

// NewSubsystemHealth returns a health snapshot seeded from the default
// status.
func NewSubsystemHealth() SubsystemHealth {
	return SubsystemHealth{
		Status: DefaultNVMSubsystemStatus(),
	}
}
