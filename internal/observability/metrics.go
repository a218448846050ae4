package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute is the route label used for requests that did not match a
// registered route, keeping label cardinality bounded.
const UnmatchedRoute = "unmatched"

// Cache lookup outcomes used as the "result" label.
const (
	CacheResultHit    = "hit"
	CacheResultMiss   = "miss"
	CacheResultBypass = "bypass"
)

// Metrics holds the Prometheus metrics for the middleware chain.
type Metrics struct {
	rateLimitDecisions *prometheus.CounterVec
	rateLimitKeys      *prometheus.GaugeVec
	cacheLookups       *prometheus.CounterVec
	cacheStores        prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheEntries       prometheus.Gauge
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	configReloads      *prometheus.CounterVec
	registry           *prometheus.Registry
}

// NewMetrics creates a new Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "middleware"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Total number of rate limit decisions",
		},
		[]string{"limiter", "decision"},
	)

	m.rateLimitKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_tracked_keys",
			Help:      "Number of keys with an open rate limit window",
		},
		[]string{"limiter"},
	)

	m.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of response cache lookups",
		},
		[]string{"result"},
	)

	m.cacheStores = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_stores_total",
			Help:      "Total number of responses stored in the cache",
		},
	)

	m.cacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Total number of full cache invalidations",
		},
	)

	m.cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Current number of cached responses",
		},
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route"},
	)

	m.configReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Total number of configuration reloads by result",
		},
		[]string{"result"},
	)

	m.registry.MustRegister(
		m.rateLimitDecisions,
		m.rateLimitKeys,
		m.cacheLookups,
		m.cacheStores,
		m.cacheInvalidations,
		m.cacheEntries,
		m.requestsTotal,
		m.requestDuration,
		m.configReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordRateLimitDecision counts an allow or deny decision for limiter.
func (m *Metrics) RecordRateLimitDecision(limiter string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.rateLimitDecisions.WithLabelValues(limiter, decision).Inc()
}

// SetRateLimitKeys sets the number of tracked keys for limiter.
func (m *Metrics) SetRateLimitKeys(limiter string, n int) {
	if m == nil {
		return
	}
	m.rateLimitKeys.WithLabelValues(limiter).Set(float64(n))
}

// RecordCacheLookup counts a cache lookup with the given result.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordCacheStore counts a stored response.
func (m *Metrics) RecordCacheStore() {
	if m == nil {
		return
	}
	m.cacheStores.Inc()
}

// RecordCacheInvalidation counts a full invalidation.
func (m *Metrics) RecordCacheInvalidation() {
	if m == nil {
		return
	}
	m.cacheInvalidations.Inc()
}

// RecordConfigReload records the outcome of a configuration reload.
func (m *Metrics) RecordConfigReload(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.configReloads.WithLabelValues(result).Inc()
}

// SetCacheEntries sets the current number of cached responses.
func (m *Metrics) SetCacheEntries(n int) {
	if m == nil {
		return
	}
	m.cacheEntries.Set(float64(n))
}

// RecordRequest records a completed HTTP request.
// The route parameter should be the matched route pattern, not the raw
// request path, to prevent cardinality explosion.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = UnmatchedRoute
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
