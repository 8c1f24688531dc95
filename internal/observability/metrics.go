package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the dashboard's Prometheus instruments. All record
// methods are nil-safe so call sites do not need guards.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	queryErrors     prometheus.Counter
	searchFallbacks prometheus.Counter
}

// NewMetrics builds and registers the instrument set on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdash_requests_total",
			Help: "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ticketdash_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdash_errors_total",
			Help: "Request errors by path, method and error code.",
		}, []string{"path", "method", "code"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketdash_query_cache_hits_total",
			Help: "Query results served from the TTL cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketdash_query_cache_misses_total",
			Help: "Query results that required store execution.",
		}),
		queryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketdash_query_errors_total",
			Help: "Failed report queries.",
		}),
		searchFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticketdash_search_fallbacks_total",
			Help: "Searches degraded to the substring fallback.",
		}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.errorsTotal,
		m.cacheHits,
		m.cacheMisses,
		m.queryErrors,
		m.searchFallbacks,
	)
	return m
}

// Handler serves the registry for /metrics scrapes.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a completed request and observes its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts a request that surfaced an application error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(path, method, code).Inc()
}

// RecordCacheHit counts a query served from cache.
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss counts a query that had to execute.
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// RecordQueryError counts a failed report query.
func (m *Metrics) RecordQueryError() {
	if m == nil {
		return
	}
	m.queryErrors.Inc()
}

// RecordSearchFallback counts a search that degraded to substring matching.
func (m *Metrics) RecordSearchFallback() {
	if m == nil {
		return
	}
	m.searchFallbacks.Inc()
}
