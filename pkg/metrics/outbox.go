package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	PublishOutcomePublished = "published"
	PublishOutcomeRetry     = "retry"
	PublishOutcomeTerminal  = "terminal"
)

// OutboxMetrics tracks what the outbox publisher does with each row.
type OutboxMetrics struct {
	publishes *prometheus.CounterVec
	batches   prometheus.Histogram
}

func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	publishes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_outbox_publish_total",
		Help: "Outbox rows handled by the publisher, by event type and outcome.",
	}, []string{"event_type", "outcome"})
	batches := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_outbox_batch_rows",
		Help:    "Rows claimed per publisher batch.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})
	reg.MustRegister(publishes, batches)
	return &OutboxMetrics{publishes: publishes, batches: batches}
}

func (m *OutboxMetrics) ObservePublish(eventType, outcome string) {
	if m == nil || m.publishes == nil {
		return
	}
	m.publishes.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *OutboxMetrics) ObserveBatch(rows int) {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Observe(float64(rows))
}
