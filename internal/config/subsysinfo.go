package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/marmos91/nvmemid/internal/subsystem"
)

// LoadSubsystemInfo builds a SubsystemInfo from the build-time
// environment variables this responder honors, falling back to
// subsystem.DefaultSubsystemInfo's placeholder values for anything
// unset. Unlike Config, this collaborator is env-var-only: it has no
// config file or CLI flag layer, since these values are meant to be
// baked in once at image-build time, not tuned at runtime.
func LoadSubsystemInfo() (subsystem.SubsystemInfo, error) {
	info := subsystem.DefaultSubsystemInfo()

	var err error
	if info.PCIVendorID, err = hex16Env("NVME_MI_DEV_PCI_VID", info.PCIVendorID); err != nil {
		return info, err
	}
	if info.PCIDeviceID, err = hex16Env("NVME_MI_DEV_PCI_DID", info.PCIDeviceID); err != nil {
		return info, err
	}
	if info.PCISubsystemVID, err = hex16Env("NVME_MI_DEV_PCI_SVID", info.PCISubsystemVID); err != nil {
		return info, err
	}
	if info.PCISubsystemDID, err = hex16Env("NVME_MI_DEV_PCI_SDID", info.PCISubsystemDID); err != nil {
		return info, err
	}

	if oui, ok := os.LookupEnv("NVME_MI_DEV_IEEE_OUI"); ok {
		parsed, err := parseIEEEOUI(oui)
		if err != nil {
			return info, err
		}
		info.IEEEOUI = parsed
	}

	epoch, err := sourceDateEpoch()
	if err != nil {
		return info, err
	}
	binary.LittleEndian.PutUint64(info.InstanceSeed[:8], epoch)

	return info, nil
}

func hex16Env(name string, fallback uint16) (uint16, error) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("config: %s: invalid hex16 value %q: %w", name, raw, err)
	}
	return uint16(v), nil
}

// parseIEEEOUI parses the dash-separated hex octet form ("ac-de-48")
// and stores it byte-reversed relative to the input order: the last
// input octet lands at index 0. This asymmetry is preserved
// deliberately — the Identify Controller wire encoding reverses it
// again, while NVM Subsystem Information does not reverse it at all.
func parseIEEEOUI(s string) ([3]byte, error) {
	var oui [3]byte
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return oui, fmt.Errorf("config: NVME_MI_DEV_IEEE_OUI: expected XX-XX-XX, got %q", s)
	}
	for idx, part := range parts {
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return oui, fmt.Errorf("config: NVME_MI_DEV_IEEE_OUI: invalid octet %q: %w", part, err)
		}
		oui[len(oui)-1-idx] = byte(v)
	}
	return oui, nil
}

func sourceDateEpoch() (uint64, error) {
	raw, ok := os.LookupEnv("SOURCE_DATE_EPOCH")
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: SOURCE_DATE_EPOCH: invalid decimal value %q: %w", raw, err)
	}
	return v, nil
}
