package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/pkg/config"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   prometheus.CounterVec
	HttpRequestDuration prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DbOperationDuration prometheus.HistogramVec

	// Entity operation metrics
	VendorOperationsCounter prometheus.CounterVec
	OrderOperationsCounter  prometheus.CounterVec

	// Metrics recalculation
	RecalculationDuration prometheus.Histogram
	RecalculationsTotal   prometheus.Counter
	RecalculationErrors   prometheus.Counter
)

var initialized bool

// InitMetrics initializes Prometheus metrics with configuration. Calling it
// again is a no-op; collectors can only be registered once.
func InitMetrics(config *config.Config) {
	if initialized {
		return
	}
	initialized = true

	// Use metric prefix from configuration
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
	)

	DbOperationDuration = *promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	VendorOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_vendor_operations_total",
			Help: "Total number of vendor operations",
		},
		[]string{"operation"},
	)

	OrderOperationsCounter = *promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_order_operations_total",
			Help: "Total number of purchase order operations",
		},
		[]string{"operation"},
	)

	RecalculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_metrics_recalculation_duration_seconds",
			Help:    "Duration of vendor metrics recalculation passes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecalculationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_metrics_recalculations_total",
			Help: "Total number of vendor metrics recalculation passes",
		},
	)

	RecalculationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_metrics_recalculation_errors_total",
			Help: "Total number of failed vendor metrics recalculation passes",
		},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordVendorOperation increments the counter for vendor operations
func RecordVendorOperation(operation string) {
	VendorOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordOrderOperation increments the counter for purchase order operations
func RecordOrderOperation(operation string) {
	OrderOperationsCounter.WithLabelValues(operation).Inc()
}

// Middleware creates an Echo middleware function that records HTTP request metrics
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			// Record metrics after the request is processed
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method
			path := c.Path()

			HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
			HttpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// Handler returns an HTTP handler for exposing Prometheus metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
