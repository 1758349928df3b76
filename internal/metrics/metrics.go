package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bakehouse/internal/costing"
)

const namespace = "bakehouse"

// Collector holds the Prometheus metrics for the service. Each collector owns
// its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Resolutions      *prometheus.CounterVec
	BatchProducts    prometheus.Counter
	BatchWarnings    prometheus.Counter
	BatchDuration    prometheus.Histogram
	SnapshotRequests *prometheus.CounterVec
}

// NewCollector creates and registers every metric.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cost_resolutions_total",
				Help:      "Recipe cost resolutions by outcome",
			},
			[]string{"outcome"},
		),
		BatchProducts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_products_total",
				Help:      "Finished products resolved inside batches",
			},
		),
		BatchWarnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_warnings_total",
				Help:      "Warnings raised while aggregating batches",
			},
		),
		BatchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Time spent aggregating a batch",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SnapshotRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_requests_total",
				Help:      "Catalog snapshot requests by cache result",
			},
			[]string{"cache"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Resolutions,
		c.BatchProducts,
		c.BatchWarnings,
		c.BatchDuration,
		c.SnapshotRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveSnapshot counts a snapshot cache hit or miss.
func (c *Collector) ObserveSnapshot(hit bool) {
	label := "miss"
	if hit {
		label = "hit"
	}
	c.SnapshotRequests.WithLabelValues(label).Inc()
}

// ObserveResolution counts one single-recipe resolution by its outcome.
func (c *Collector) ObserveResolution(err error) {
	c.Resolutions.WithLabelValues(Outcome(err)).Inc()
}

// ObserveBatch records one aggregated batch.
func (c *Collector) ObserveBatch(products, warnings int, elapsed time.Duration) {
	c.BatchProducts.Add(float64(products))
	c.BatchWarnings.Add(float64(warnings))
	c.BatchDuration.Observe(elapsed.Seconds())
}

// Outcome maps a resolution error onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, costing.ErrCyclicDefinition):
		return "cyclic"
	case errors.Is(err, costing.ErrZeroWeightRecipe):
		return "zero_weight"
	case errors.Is(err, costing.ErrUnknownReference):
		return "unknown"
	case errors.Is(err, costing.ErrInvalidQuantity), errors.Is(err, costing.ErrInvalidYield):
		return "invalid"
	default:
		return "error"
	}
}

// Middleware records request counts and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
