// Package metrics wires Prometheus collectors for this responder's
// dispatch loop. Every collector type is safe to use as a nil pointer
// — when metrics are disabled, NewDispatchMetrics returns nil and every
// method becomes a no-op, so call sites never need a feature check of
// their own.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	enabled  bool
	registry *prometheus.Registry
)

// Init enables metrics collection and creates the registry collectors
// register against. Call once at startup before constructing any
// metrics type.
func Init(enable bool) {
	enabled = enable
	if enable {
		registry = prometheus.NewRegistry()
	}
}

// IsEnabled reports whether Init was called with enable=true.
func IsEnabled() bool {
	return enabled
}

// Registry returns the active registry, or nil if metrics are disabled.
func Registry() *prometheus.Registry {
	return registry
}
