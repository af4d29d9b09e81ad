package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DispatchMetrics observes internal/mi's request dispatcher: request
// counts by NMIMT/opcode/status, dispatch latency, and Composite
// Controller Status change transitions.
type DispatchMetrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	ccsTransitions *prometheus.CounterVec
}

// NewDispatchMetrics returns a DispatchMetrics, or nil if metrics are
// disabled — every method on a nil *DispatchMetrics is a no-op.
func NewDispatchMetrics() *DispatchMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := Registry()
	return &DispatchMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvmemi_dispatch_requests_total",
				Help: "Total number of dispatched NVMe-MI/Admin requests by message type, opcode, and status.",
			},
			[]string{"nmimt", "opcode", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nvmemi_dispatch_duration_seconds",
				Help:    "Dispatch handler duration in seconds by message type and opcode.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"nmimt", "opcode"},
		),
		ccsTransitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvmemi_ccs_transitions_total",
				Help: "Total number of pending Composite Controller Status changes reported by health status polls, by controller id.",
			},
			[]string{"controller_id"},
		),
	}
}

// RecordRequest records a completed dispatch with its message type,
// opcode, status, and handler duration.
func (m *DispatchMetrics) RecordRequest(nmimt, opcode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(nmimt, opcode, status).Inc()
	m.duration.WithLabelValues(nmimt, opcode).Observe(duration.Seconds())
}

// RecordCCSTransition records that a health status poll reported a
// pending Composite Controller Status change for the given controller.
func (m *DispatchMetrics) RecordCCSTransition(controllerID string) {
	if m == nil {
		return
	}
	m.ccsTransitions.WithLabelValues(controllerID).Inc()
}
