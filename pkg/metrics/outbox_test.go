package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)

	metrics.ObservePublish("order_created", PublishOutcomePublished)
	metrics.ObservePublish("order_created", PublishOutcomeRetry)
	metrics.ObservePublish("order_deleted", PublishOutcomeTerminal)
	metrics.ObserveBatch(3)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_outbox_publish_total", "outcome", PublishOutcomeTerminal); err != nil {
		t.Fatalf("fetch publishes: %v", err)
	} else if got != 1 {
		t.Fatalf("expected terminal=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "storefront_outbox_batch_rows", "", ""); err != nil {
		t.Fatalf("fetch batch rows: %v", err)
	} else if got != 3 {
		t.Fatalf("expected batch sum=3, got %f", got)
	}
}

func TestNilOutboxMetricsIsNoop(t *testing.T) {
	var metrics *OutboxMetrics
	metrics.ObservePublish("order_created", PublishOutcomePublished)
	metrics.ObserveBatch(1)
	NewOutboxMetrics(nil).ObserveBatch(2)
}
