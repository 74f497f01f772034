package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CardMetrics records card generation outcomes.
type CardMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	placed   prometheus.Counter
}

// NewCardMetrics registers the card metrics on the provided registerer.
func NewCardMetrics(reg prometheus.Registerer) *CardMetrics {
	if reg == nil {
		return &CardMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "card_generation_duration_seconds",
		Help:    "Duration of card document generation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cards_generated_total",
		Help: "Card documents generated successfully.",
	}, []string{"kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "card_generation_failures_total",
		Help: "Card generations that failed, by error code.",
	}, []string{"kind", "code"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "combined_cards_placed_total",
		Help: "Cards placed into combined documents.",
	})
	reg.MustRegister(duration, success, failure, placed)
	return &CardMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		placed:   placed,
	}
}

// ObserveDuration records how long generating one document of kind took.
func (c *CardMetrics) ObserveDuration(kind string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for kind.
func (c *CardMetrics) IncSuccess(kind string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailure increments the failure counter for kind and error code.
func (c *CardMetrics) IncFailure(kind, code string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(kind), normalizeLabel(code)).Inc()
}

// AddPlaced counts cards drawn into a combined document.
func (c *CardMetrics) AddPlaced(n int) {
	if c == nil || c.placed == nil || n <= 0 {
		return
	}
	c.placed.Add(float64(n))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
