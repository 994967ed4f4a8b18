package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter prometheus.Counter
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   prometheus.Counter

	// Database operation metrics
	DBOperationDuration *prometheus.HistogramVec

	// Entity metrics
	EntityOperationsCounter *prometheus.CounterVec
	LowStockGauge           prometheus.Gauge
}

// NewMetrics registers the collectors on reg, named with prefix.
func NewMetrics(prefix string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		AuthAttemptsCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		}),
		AuthSuccessCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		}),
		AuthErrorsCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		}),

		DBOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),

		EntityOperationsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_entity_operations_total",
				Help: "Total number of entity operations",
			},
			[]string{"entity", "operation"},
		),
		LowStockGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_low_stock_products",
			Help: "Number of products at or below their minimum stock level",
		}),
	}
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the exposition format for the registry the metrics were
// built on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// TrackDBOperation returns a function that records the duration of a database operation
func (m *Metrics) TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if m == nil {
			return
		}
		m.DBOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordEntityOperation increments the counter for entity operations
func (m *Metrics) RecordEntityOperation(entity, operation string) {
	if m == nil {
		return
	}
	m.EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
}

// SetLowStock updates the low-stock gauge.
func (m *Metrics) SetLowStock(n int) {
	if m == nil {
		return
	}
	m.LowStockGauge.Set(float64(n))
}

func (m *Metrics) RecordAuthAttempt() {
	if m != nil {
		m.AuthAttemptsCounter.Inc()
	}
}

func (m *Metrics) RecordAuthSuccess() {
	if m != nil {
		m.AuthSuccessCounter.Inc()
	}
}

func (m *Metrics) RecordAuthError() {
	if m != nil {
		m.AuthErrorsCounter.Inc()
	}
}
