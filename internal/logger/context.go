package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds dispatch-scoped logging context for a single inbound
// NVMe-MI message.
type LogContext struct {
	TraceID      string    // OpenTelemetry trace ID
	SpanID       string    // OpenTelemetry span ID
	NMIMT        string    // NVMe-MI message type name (NvmeMiCommand, NvmeAdminCommand, ...)
	Opcode       string    // Opcode name within the NMIMT (ReadNvmeMiDataStructure, Identify, ...)
	ControllerID uint32    // Admin command controller id (ctlid), 0 for non-admin requests
	StartTime    time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a freshly dispatched message.
func NewLogContext() *LogContext {
	return &LogContext{
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:      lc.TraceID,
		SpanID:       lc.SpanID,
		NMIMT:        lc.NMIMT,
		Opcode:       lc.Opcode,
		ControllerID: lc.ControllerID,
		StartTime:    lc.StartTime,
	}
}

// WithOpcode returns a copy with the NMIMT/opcode names set
func (lc *LogContext) WithOpcode(nmimt, opcode string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.NMIMT = nmimt
		clone.Opcode = opcode
	}
	return clone
}

// WithController returns a copy with the admin controller id set
func (lc *LogContext) WithController(ctlid uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ControllerID = ctlid
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
