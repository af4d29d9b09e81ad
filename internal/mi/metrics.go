package mi

import "github.com/marmos91/nvmemid/internal/metrics"

// activeMetrics is the optional dispatch observer. A nil value (the
// default) makes every recording call below a no-op, matching the
// nil-safe convention internal/metrics establishes.
var activeMetrics *metrics.DispatchMetrics

// SetMetrics installs the dispatcher's metrics observer. Call once at
// startup, before serving any connections.
func SetMetrics(m *metrics.DispatchMetrics) {
	activeMetrics = m
}
