package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records order lifecycle activity: transition counts by
// outcome and checkout latency.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	checkout    prometheus.Histogram
}

// NewLifecycleMetrics registers the order metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Applied order lifecycle transitions by kind.",
	}, []string{"transition"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transition_failures_total",
		Help: "Rejected order lifecycle transitions by kind.",
	}, []string{"transition"})
	checkout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(transitions, failures, checkout)
	return &LifecycleMetrics{
		transitions: transitions,
		failures:    failures,
		checkout:    checkout,
	}
}

// IncTransition increments the applied-transition counter.
func (m *LifecycleMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

// IncFailure increments the rejected-transition counter.
func (m *LifecycleMetrics) IncFailure(transition string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(transition)).Inc()
}

// ObserveCheckout records the duration of a checkout transaction.
func (m *LifecycleMetrics) ObserveCheckout(duration time.Duration) {
	if m == nil || m.checkout == nil {
		return
	}
	m.checkout.Observe(duration.Seconds())
}

func normalizeLabel(transition string) string {
	if transition == "" {
		return "unknown"
	}
	return transition
}
