package mi

import "fmt"

// ResponseStatus is the one-byte NVMe-MI response status field carried
// in every NVMe-MI command response (distinct from the NVMe Admin
// command completion's SC/SCT fields, see AdminStatus below).
type ResponseStatus uint8

const (
	StatusSuccess                     ResponseStatus = 0x00
	StatusMoreProcessingRequired      ResponseStatus = 0x01
	StatusInternalError               ResponseStatus = 0x02
	StatusInvalidCommandOpcode        ResponseStatus = 0x03
	StatusInvalidParameter            ResponseStatus = 0x04
	StatusInvalidCommandSize          ResponseStatus = 0x05
	StatusInvalidCommandInputDataSize ResponseStatus = 0x06
	StatusAccessDenied                ResponseStatus = 0x07
	StatusVPDUpdatesExceeded          ResponseStatus = 0x20
	StatusPCIeInaccessible            ResponseStatus = 0x21
	StatusMEBusy                      ResponseStatus = 0x22
	StatusCommandNotEffective         ResponseStatus = 0x23
	StatusAEAgentAbsent               ResponseStatus = 0x24
	StatusMechanismInvalid            ResponseStatus = 0x25
)

// String renders the status by name for logging.
func (s ResponseStatus) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusMoreProcessingRequired:
		return "MoreProcessingRequired"
	case StatusInternalError:
		return "InternalError"
	case StatusInvalidCommandOpcode:
		return "InvalidCommandOpcode"
	case StatusInvalidParameter:
		return "InvalidParameter"
	case StatusInvalidCommandSize:
		return "InvalidCommandSize"
	case StatusInvalidCommandInputDataSize:
		return "InvalidCommandInputDataSize"
	case StatusAccessDenied:
		return "AccessDenied"
	case StatusVPDUpdatesExceeded:
		return "VPDUpdatesExceeded"
	case StatusPCIeInaccessible:
		return "PCIeInaccessible"
	case StatusMEBusy:
		return "MEBusy"
	case StatusCommandNotEffective:
		return "CommandNotEffective"
	case StatusAEAgentAbsent:
		return "AEAgentAbsent"
	case StatusMechanismInvalid:
		return "MechanismInvalid"
	default:
		return fmt.Sprintf("Unknown(0x%x)", uint8(s))
	}
}

// AdminStatusCodeType is the Status Code Type (SCT) field of an NVMe
// Admin command's completion queue entry.
type AdminStatusCodeType uint8

const (
	SctGeneric       AdminStatusCodeType = 0x0
	SctCommandSpecific AdminStatusCodeType = 0x1
)

// Status codes this responder returns. Success, InvalidOpcode,
// InvalidField, InvalidNamespace and Internal are generic (SCT=0); the
// Namespace* codes are command-specific (SCT=1) to Namespace Management
// and Namespace Attachment.
const (
	ScSuccess             uint8 = 0x00
	ScInvalidOpcode       uint8 = 0x01
	ScInvalidField        uint8 = 0x02
	ScInvalidNamespace    uint8 = 0x0b
	ScNamespaceNotAttached uint8 = 0x1a
	ScNamespaceAlreadyAttached uint8 = 0x18
	ScNamespaceIdentifierUnavailable uint8 = 0x16
	ScNamespaceAttachmentLimitExceeded uint8 = 0x27
	ScInternal            uint8 = 0x06
)

// AdminStatus is the completion status of an NVMe Admin command,
// independent of the wire position its bits occupy in the CQE.
type AdminStatus struct {
	SC  uint8
	SCT AdminStatusCodeType
	DNR bool // Do Not Retry
	M   bool // More
}

// AdminSuccess is the zero-value success completion.
var AdminSuccess = AdminStatus{SC: ScSuccess, SCT: SctGeneric}
