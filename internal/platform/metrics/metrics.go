// Package metrics exposes Prometheus instrumentation for the document
// pipeline and HTTP layer.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the server records.
type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	RecordsCreatedTotal prometheus.Counter
	AnalysisTotal       *prometheus.CounterVec
	StorageUploadsTotal *prometheus.CounterVec
	QRScansTotal        prometheus.Counter
}

// Analysis outcome label values.
const (
	AnalysisOutcomeOK       = "ok"
	AnalysisOutcomeFallback = "fallback"
	AnalysisOutcomeDegraded = "degraded"
)

// Storage outcome label values.
const (
	StorageOutcomeOK     = "ok"
	StorageOutcomeFailed = "failed"
)

// NewCollector registers all metrics on a fresh registry.
func NewCollector(serviceName string) *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		RecordsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "records",
			Name:      "created_total",
			Help:      "Total number of medical records created.",
		}),

		AnalysisTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "analysis",
			Name:      "documents_total",
			Help:      "Document analyses by outcome.",
		}, []string{"outcome"}),

		StorageUploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "storage",
			Name:      "uploads_total",
			Help:      "Blob uploads by outcome.",
		}, []string{"outcome"}),

		QRScansTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "qr",
			Name:      "scans_total",
			Help:      "Total QR code scans recorded.",
		}),
	}
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts, latency, and in-flight gauge for every
// request, labeled by route pattern rather than raw path.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			c.InFlightGauge.Inc()
			start := time.Now()

			err := next(ec)

			c.InFlightGauge.Dec()

			path := ec.Path()
			if path == "" {
				path = ec.Request().URL.Path
			}

			// On error the echo error handler has not written the response
			// yet, so the status must come from the error itself.
			code := ec.Response().Status
			if err != nil {
				code = http.StatusInternalServerError
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					code = httpErr.Code
				}
			}
			status := strconv.Itoa(code)

			c.RequestsTotal.WithLabelValues(ec.Request().Method, path, status).Inc()
			c.RequestDuration.WithLabelValues(ec.Request().Method, path, status).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}
