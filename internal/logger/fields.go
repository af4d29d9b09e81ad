package logger

import "log/slog"

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// NVMe-MI dispatch
	// ========================================================================
	KeyNMIMT        = "nmimt"         // NVMe-MI message type name
	KeyOpcode       = "opcode"        // Opcode name within the NMIMT
	KeyControllerID = "controller_id" // Admin command controller id (ctlid)
	KeyPortID       = "port_id"       // Port id referenced by a request
	KeyNamespaceID  = "namespace_id"  // Namespace id (NSID) referenced by a request
	KeyCNS          = "cns"           // Admin Identify CNS selector
	KeyLID          = "lid"           // Get Log Page log identifier
	KeyStatus       = "status"        // Resolved ResponseStatus name
	KeyStatusCode   = "status_code"   // Resolved ResponseStatus wire value
	KeyDurationMs   = "duration_ms"   // Dispatch duration in milliseconds

	// ========================================================================
	// Configuration
	// ========================================================================
	KeyConfigPath = "config_path" // Path to the loaded config file, if any
	KeyListenAddr = "listen_addr" // Listener address (metrics or transport)

	KeyError = "error" // Error message
)

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Opcode returns a slog.Attr for the dispatched opcode name
func Opcode(name string) slog.Attr {
	return slog.String(KeyOpcode, name)
}

// Status returns a slog.Attr for a resolved ResponseStatus name
func Status(name string) slog.Attr {
	return slog.String(KeyStatus, name)
}
