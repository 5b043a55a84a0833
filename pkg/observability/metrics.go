package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal      *prometheus.CounterVec
	CacheMissesTotal    *prometheus.CounterVec
	CachePurgedKeys     *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Redis metrics
	RedisConnectionsActive prometheus.Gauge

	// Task metrics
	TaskRunsTotal        *prometheus.CounterVec
	TaskDuration         *prometheus.HistogramVec
	NotificationAttempts *prometheus.CounterVec
	NotificationsByState *prometheus.CounterVec

	// Business metrics
	BooksTotal   prometheus.Gauge
	UsersTotal   prometheus.Gauge
	ReviewsTotal prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfwise_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfwise_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfwise_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Storage metrics
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "entity", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfwise_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "entity"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation", "entity", "error_type"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_level", "key_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_level", "key_type"},
		),
		CachePurgedKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_cache_purged_keys_total",
				Help: "Total number of keys removed by the purge job",
			},
			[]string{"pattern"},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfwise_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfwise_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		// Redis metrics
		RedisConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfwise_redis_connections_active",
				Help: "Number of active Redis connections",
			},
		),

		// Task metrics
		TaskRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_task_runs_total",
				Help: "Total number of scheduled task runs",
			},
			[]string{"task", "status"},
		),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shelfwise_task_duration_seconds",
				Help:    "Scheduled task duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"task"},
		),
		NotificationAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_notification_attempts_total",
				Help: "Total number of notification delivery attempts",
			},
			[]string{"status"},
		),
		NotificationsByState: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shelfwise_notifications_total",
				Help: "Notifications reaching a terminal state",
			},
			[]string{"state"},
		),

		// Business metrics
		BooksTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfwise_books_total",
				Help: "Total number of books",
			},
		),
		UsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfwise_users_total",
				Help: "Total number of users",
			},
		),
		ReviewsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "shelfwise_reviews_total",
				Help: "Total number of reviews",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CachePurgedKeys,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.RedisConnectionsActive,
		m.TaskRunsTotal,
		m.TaskDuration,
		m.NotificationAttempts,
		m.NotificationsByState,
		m.BooksTotal,
		m.UsersTotal,
		m.ReviewsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			// Record request size
			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			// Serve the request
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
