package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RateLimit(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordRateLimitDecision("default", true)
	m.RecordRateLimitDecision("default", true)
	m.RecordRateLimitDecision("default", false)
	m.SetRateLimitKeys("default", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimitDecisions.WithLabelValues("default", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitDecisions.WithLabelValues("default", "deny")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rateLimitKeys.WithLabelValues("default")))
}

func TestMetrics_Cache(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordCacheLookup(CacheResultMiss)
	m.RecordCacheLookup(CacheResultHit)
	m.RecordCacheLookup(CacheResultHit)
	m.RecordCacheStore()
	m.RecordCacheInvalidation()
	m.SetCacheEntries(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheResultMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheStores))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheInvalidations))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.cacheEntries))
}

func TestMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	m.RecordRequest(http.MethodGet, "/api/productos", http.StatusOK, 15*time.Millisecond)
	m.RecordRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues(http.MethodGet, "/api/productos", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues(http.MethodGet, UnmatchedRoute, "404")))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "middleware_http_request_duration_seconds" {
			found = true
			require.NotEmpty(t, mf.GetMetric())
			assert.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	assert.True(t, found)
}

func TestMetrics_ConfigReload(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordConfigReload(true)
	m.RecordConfigReload(true)
	m.RecordConfigReload(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.configReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.configReloads.WithLabelValues("error")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRateLimitDecision("default", true)
		m.SetRateLimitKeys("default", 1)
		m.RecordCacheLookup(CacheResultHit)
		m.RecordCacheStore()
		m.RecordCacheInvalidation()
		m.SetCacheEntries(1)
		m.RecordRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.RecordConfigReload(true)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordCacheStore()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_cache_stores_total")
}
