package subsystem

import "github.com/marmos91/nvmemid/internal/bytesize"

// defaultBlockOrder is the log2 LBA size Bootstrap seeds namespaces
// with: order 12 => 4096-byte logical blocks.
const defaultBlockOrder BlockOrder = 12

// Bootstrap populates a freshly constructed subsystem with the minimal
// topology this responder always exposes: one PCIe port and one
// two-wire port, each with a bound controller, and a single namespace
// of the given size attached to both controllers.
func Bootstrap(s *Subsystem, namespaceSize bytesize.ByteSize) error {
	pciePort, err := s.AddPort(PortPCIe)
	if err != nil {
		return err
	}
	twoWirePort, err := s.AddPort(PortTwoWire)
	if err != nil {
		return err
	}

	ctlA, err := s.AddController(pciePort)
	if err != nil {
		return err
	}
	ctlB, err := s.AddController(twoWirePort)
	if err != nil {
		return err
	}

	blockSize := uint64(1) << defaultBlockOrder
	blocks := namespaceSize.Uint64() / blockSize
	if blocks == 0 {
		blocks = 1
	}

	nsid, err := s.AddNamespace(blocks, defaultBlockOrder)
	if err != nil {
		return err
	}

	if err := s.AttachNamespace(nsid, ctlA); err != nil {
		return err
	}
	if err := s.AttachNamespace(nsid, ctlB); err != nil {
		return err
	}

	return nil
}
