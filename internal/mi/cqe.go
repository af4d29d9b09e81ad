package mi

// EncodeCQEDword3 packs the fourth completion-queue-entry dword this
// responder reports for NVMe Admin commands, LSB to MSB:
// CID:16 | P:1 | SC:8 | SCT:3 | CRD:2 | M:1 | DNR:1.
func EncodeCQEDword3(cid uint16, phase bool, status AdminStatus) uint32 {
	var d3 uint32
	d3 |= uint32(cid)
	if phase {
		d3 |= 1 << 16
	}
	d3 |= uint32(status.SC) << 17
	d3 |= uint32(status.SCT&0x7) << 25
	// CRD (command retry delay) is always 0 in this responder.
	if status.M {
		d3 |= 1 << 30
	}
	if status.DNR {
		d3 |= 1 << 31
	}
	return d3
}
