package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Mutation outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeError     = "error"
)

// CommissionMetrics records commission mutations and rate resolutions.
type CommissionMetrics struct {
	mutations   *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCommissionMetrics registers the commission collectors on the provided registerer.
func NewCommissionMetrics(reg prometheus.Registerer) *CommissionMetrics {
	if reg == nil {
		return &CommissionMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_mutations_total",
		Help: "Commission create/update/assign operations by kind and outcome.",
	}, []string{"kind", "operation", "outcome"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_resolutions_total",
		Help: "Commission rate resolutions by scope and the tier that produced the rate.",
	}, []string{"scope", "source"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commission_mutation_duration_seconds",
		Help:    "Duration of commission mutations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(mutations, resolutions, duration)
	return &CommissionMetrics{
		mutations:   mutations,
		resolutions: resolutions,
		duration:    duration,
	}
}

// ObserveMutation counts one mutation and records how long it took.
func (c *CommissionMetrics) ObserveMutation(kind, operation, outcome string, took time.Duration) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(kind), normalizeLabel(operation), normalizeLabel(outcome)).Inc()
	c.duration.WithLabelValues(normalizeLabel(operation)).Observe(took.Seconds())
}

// IncResolution counts one resolution for the given scope (vendor, category, period).
func (c *CommissionMetrics) IncResolution(scope, source string) {
	if c == nil || c.resolutions == nil {
		return
	}
	c.resolutions.WithLabelValues(normalizeLabel(scope), normalizeLabel(source)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
