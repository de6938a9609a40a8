// Package metrics exposes Prometheus counters for allocations and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "advent"

// Manager owns a private registry so tests and multiple servers do not collide
type Manager struct {
	registry *prometheus.Registry

	allocations  *prometheus.CounterVec
	poolSize     prometheus.Histogram
	rosterLoads  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers every metric on a fresh registry
func New() *Manager {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Manager{
		registry: reg,
		allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Allocation attempts by regime and outcome.",
		}, []string{"regime", "outcome"}),
		poolSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Participants in the random pool per allocation.",
			Buckets:   []float64{1, 5, 10, 15, 20, 24, 30, 40, 60},
		}),
		rosterLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_loads_total",
			Help:      "Roster reads by source and outcome.",
		}, []string{"source", "outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Registry returns the underlying registry
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// RecordAllocation counts a finished allocation
func (m *Manager) RecordAllocation(regime string, poolSize int) {
	m.allocations.WithLabelValues(regime, "ok").Inc()
	m.poolSize.Observe(float64(poolSize))
}

// RecordAllocationError counts an allocation that was rejected
func (m *Manager) RecordAllocationError(reason string) {
	m.allocations.WithLabelValues("none", reason).Inc()
}

// RecordRosterLoad counts a roster read from source ("json", "upload", "url")
func (m *Manager) RecordRosterLoad(source string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.rosterLoads.WithLabelValues(source, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
