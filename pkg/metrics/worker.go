package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerJobMetrics records outcomes for background worker jobs.
type WorkerJobMetrics struct {
	duration       *prometheus.HistogramVec
	success        *prometheus.CounterVec
	failure        *prometheus.CounterVec
	belowThreshold prometheus.Gauge
	alertsSent     prometheus.Counter
}

// NewWorkerJobMetrics registers the worker metrics on the provided registerer.
func NewWorkerJobMetrics(reg prometheus.Registerer) *WorkerJobMetrics {
	if reg == nil {
		return &WorkerJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_job_duration_seconds",
		Help:    "Duration of worker jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_job_success",
		Help: "Successful worker job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_job_failure",
		Help: "Failed worker job executions.",
	}, []string{"job"})
	belowThreshold := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stock_items_below_threshold",
		Help: "Stock items at or below their restock threshold as of the last scan.",
	})
	alertsSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restock_alerts_published",
		Help: "Restock alert events published.",
	})
	reg.MustRegister(duration, success, failure, belowThreshold, alertsSent)
	return &WorkerJobMetrics{
		duration:       duration,
		success:        success,
		failure:        failure,
		belowThreshold: belowThreshold,
		alertsSent:     alertsSent,
	}
}

// ObserveDuration records the duration for the named job.
func (m *WorkerJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *WorkerJobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *WorkerJobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetBelowThreshold records how many items the last scan found short.
func (m *WorkerJobMetrics) SetBelowThreshold(count int) {
	if m == nil || m.belowThreshold == nil {
		return
	}
	m.belowThreshold.Set(float64(count))
}

// IncAlertsPublished increments the published restock alert counter.
func (m *WorkerJobMetrics) IncAlertsPublished() {
	if m == nil || m.alertsSent == nil {
		return
	}
	m.alertsSent.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
