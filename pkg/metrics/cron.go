package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records outcomes of housekeeping jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

const (
	JobOutcomeSuccess = "success"
	JobOutcomeFailure = "failure"
)

// NewCronJobMetrics registers the job metrics on reg. A nil registerer yields a no-op collector.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_cron_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cron_job_runs_total",
		Help: "Housekeeping job executions by outcome.",
	}, []string{"job", "outcome"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cron_job_rows_total",
		Help: "Rows removed or flagged by housekeeping jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, rows)
	return &CronJobMetrics{duration: duration, runs: runs, rows: rows}
}

// ObserveRun records one execution of the named job.
func (c *CronJobMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
	outcome := JobOutcomeSuccess
	if err != nil {
		outcome = JobOutcomeFailure
	}
	c.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}

// AddRows counts rows a job removed or flagged.
func (c *CronJobMetrics) AddRows(job string, rows int64) {
	if c == nil || c.rows == nil || rows <= 0 {
		return
	}
	c.rows.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}
