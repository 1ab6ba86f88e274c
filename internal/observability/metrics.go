package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	submissionOpsTotal       *prometheus.CounterVec
	submissionLatencySeconds *prometheus.HistogramVec
	uploadRejectedTotal      *prometheus.CounterVec
	cleanupAnomaliesTotal    prometheus.Counter
	httpRequestsTotal        *prometheus.CounterVec
	httpLatencySeconds       *prometheus.HistogramVec
	httpErrorsTotal          *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		submissionOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_operations_total",
			Help: "Total number of submission operations, by operation and outcome.",
		}, []string{"operation", "outcome"})

		submissionLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "submission_operation_seconds",
			Help:    "Latency distribution for submission operations.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"operation"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attachment_uploads_rejected_total",
			Help: "Total number of attachment uploads rejected during validation.",
		}, []string{"reason"})

		cleanupAnomaliesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attachment_cleanup_anomalies_total",
			Help: "Total number of attachment blobs that were already absent or failed to delete during cleanup.",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency distribution for HTTP requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Total number of HTTP requests that returned an error status.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(
			submissionOpsTotal, submissionLatencySeconds, uploadRejectedTotal, cleanupAnomaliesTotal,
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
		)
	})
}

// SubmissionOps exposes the counter for submission operations.
func SubmissionOps() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionOpsTotal
}

// SubmissionLatency exposes the latency histogram for submission operations.
func SubmissionLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return submissionLatencySeconds
}

// UploadRejected exposes the counter for rejected attachment uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// CleanupAnomalies exposes the counter for attachment cleanup anomalies.
func CleanupAnomalies() prometheus.Counter {
	RegisterMetrics()
	return cleanupAnomaliesTotal
}

// HTTPRequests exposes the counter for served HTTP requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for HTTP requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for HTTP requests ending in error statuses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}
