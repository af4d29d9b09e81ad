package subsystem

import "errors"

// Sentinel errors returned by Subsystem and Controller mutating operations.
// Handlers in internal/mi map these to the wire-level ResponseStatus
// taxonomy; they never cross the wire directly.
var (
	ErrPortLimitExceeded               = errors.New("subsystem: port limit exceeded")
	ErrControllerLimitExceeded         = errors.New("subsystem: controller limit exceeded")
	ErrNamespaceIdentifierUnavailable  = errors.New("subsystem: namespace identifier unavailable")
	ErrAlreadyAttached                 = errors.New("subsystem: namespace already attached")
	ErrNamespaceNotAttached            = errors.New("subsystem: namespace not attached")
	ErrNamespaceAttachmentLimitExceeded = errors.New("subsystem: namespace attachment limit exceeded")
	ErrPortNotFound                    = errors.New("subsystem: port not found")
	ErrControllerNotFound              = errors.New("subsystem: controller not found")
	ErrNamespaceNotFound               = errors.New("subsystem: namespace not found")
)
