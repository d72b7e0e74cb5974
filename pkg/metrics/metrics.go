package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorTotal      *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec

	// Attachment metrics
	UploadsTotal  *prometheus.CounterVec
	UploadBytes   prometheus.Counter
	UploadsFailed prometheus.Counter
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		ErrorTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of HTTP errors",
		}, []string{"method", "path", "type"}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Total number of radiology image uploads",
		}, []string{"status"}),
		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_upload_bytes_total",
			Help:      "Total bytes of stored radiology images",
		}),
		UploadsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_failed_total",
			Help:      "Total number of rejected or failed image uploads",
		}),
	}
}
