// Package metrics exposes Prometheus instrumentation for the normalization
// pipeline and its HTTP boundary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the service.
type Metrics struct {
	JobsStarted   prometheus.Counter
	JobsCompleted *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	ActiveJobs    prometheus.Gauge

	ConversionDuration prometheus.Histogram
	RenderDuration     prometheus.Histogram

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "medianorm_jobs_started_total",
			Help: "Total number of pipeline jobs started",
		}),
		JobsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medianorm_jobs_completed_total",
			Help: "Total number of jobs completed successfully",
		}, []string{"classification"}),
		JobsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medianorm_jobs_failed_total",
			Help: "Total number of jobs that ended in failure",
		}, []string{"kind"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "medianorm_active_jobs",
			Help: "Current number of jobs being processed",
		}),
		ConversionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "medianorm_conversion_duration_seconds",
			Help:    "Duration of audio normalization runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "medianorm_render_duration_seconds",
			Help:    "Duration of text rendering runs",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "medianorm_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medianorm_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordJobStarted increments the started counter and active gauge.
func (m *Metrics) RecordJobStarted() {
	m.JobsStarted.Inc()
	m.ActiveJobs.Inc()
}

// RecordJobCompleted records a successful job outcome.
func (m *Metrics) RecordJobCompleted(classification string) {
	m.JobsCompleted.WithLabelValues(classification).Inc()
	m.ActiveJobs.Dec()
}

// RecordJobFailed records a failed job outcome by error kind.
func (m *Metrics) RecordJobFailed(kind string) {
	if kind == "" {
		kind = "internal"
	}
	m.JobsFailed.WithLabelValues(kind).Inc()
	m.ActiveJobs.Dec()
}

// RecordConversion observes one normalization duration.
func (m *Metrics) RecordConversion(durationSeconds float64) {
	m.ConversionDuration.Observe(durationSeconds)
}

// RecordRender observes one render duration.
func (m *Metrics) RecordRender(durationSeconds float64) {
	m.RenderDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request with its latency.
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}
