package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// StorefrontMetrics records cart admission and order lifecycle activity.
type StorefrontMetrics struct {
	admissions    *prometheus.CounterVec
	ordersCreated prometheus.Counter
	orderLines    prometheus.Counter
	checkout      prometheus.Histogram
	statusChanges *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_admissions_total",
		Help: "Cart mutations by operation and admission outcome.",
	}, []string{"operation", "outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Orders committed at checkout.",
	})
	orderLines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_order_lines_total",
		Help: "Cart lines transferred into orders.",
	})
	checkout := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_duration_seconds",
		Help:    "Duration of the checkout transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_status_changes_total",
		Help: "Order status updates by source and target status.",
	}, []string{"from", "to"})
	reg.MustRegister(admissions, ordersCreated, orderLines, checkout, statusChanges)
	return &StorefrontMetrics{
		admissions:    admissions,
		ordersCreated: ordersCreated,
		orderLines:    orderLines,
		checkout:      checkout,
		statusChanges: statusChanges,
	}
}

// ObserveAdmission counts one cart mutation attempt.
func (m *StorefrontMetrics) ObserveAdmission(operation, outcome string) {
	if m == nil || m.admissions == nil {
		return
	}
	m.admissions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// ObserveOrderCreated counts a committed order and its checkout latency.
func (m *StorefrontMetrics) ObserveOrderCreated(lines int, duration time.Duration) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
	m.orderLines.Add(float64(lines))
	m.checkout.Observe(duration.Seconds())
}

// ObserveStatusChange counts a committed status update.
func (m *StorefrontMetrics) ObserveStatusChange(from, to string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
