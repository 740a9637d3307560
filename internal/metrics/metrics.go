// Package metrics exposes Prometheus collectors for the gateway: HTTP
// traffic, resolve outcomes and object store calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "iron_index"

// Metrics holds a self-contained registry so tests and multiple servers in
// one process never collide on the global one.
type Metrics struct {
	reg          *prometheus.Registry
	inflight     prometheus.Gauge
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	resolves     *prometheus.CounterVec
	storeOps     *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with a fresh registry and registers collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed, partitioned by status code and method.",
		}, []string{"code", "method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolves_total",
			Help:      "Total number of resolved request paths by outcome.",
		}, []string{"outcome"}), // file | folder | not_found | store_unavailable
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "ops_total",
			Help:      "Total number of object store calls by operation and outcome.",
		}, []string{"op", "outcome"}), // outcome = ok | absent | error
		storeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "op_duration_seconds",
			Help:      "Histogram of object store call durations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}

	m.reg.MustRegister(m.inflight, m.requests, m.latency, m.resolves, m.storeOps, m.storeLatency)
	return m
}

// Handler returns an http.Handler that serves Prometheus metrics using the internal registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Middleware collects the inflight gauge, request counter and latency
// histogram. It must run outside the middleware that hands errors to the echo
// error handler so the final status code is observed.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.inflight.Inc()
			defer m.inflight.Dec()

			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			code := strconv.Itoa(status)
			method := c.Request().Method

			m.requests.WithLabelValues(code, method).Inc()
			m.latency.WithLabelValues(code, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// ObserveResolve counts one resolved request path.
func (m *Metrics) ObserveResolve(outcome string) {
	m.resolves.WithLabelValues(outcome).Inc()
}

// ObserveStoreCall records one object store call.
func (m *Metrics) ObserveStoreCall(op, outcome string, dur time.Duration) {
	m.storeOps.WithLabelValues(op, outcome).Inc()
	m.storeLatency.WithLabelValues(op).Observe(dur.Seconds())
}
