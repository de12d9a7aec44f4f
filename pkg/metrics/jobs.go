package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records outcomes for scheduled monitor jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	alerts   *prometheus.GaugeVec
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	alerts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitoring_open_alerts",
		Help: "Open monitoring alerts by type after the latest scan.",
	}, []string{"alert_type"})
	reg.MustRegister(duration, success, failure, alerts)
	return &JobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		alerts:   alerts,
	}
}

// ObserveDuration records the duration for the named job.
func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetOpenAlerts publishes the open alert count for an alert type.
func (m *JobMetrics) SetOpenAlerts(alertType string, count int) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(alertType)).Set(float64(count))
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
