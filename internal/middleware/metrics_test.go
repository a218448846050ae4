package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoParada/middleware-express/internal/observability"
)

func TestHTTPMetrics(t *testing.T) {
	metrics := observability.NewMetrics("test")

	router := gin.New()
	router.Use(Lifecycle(), HTTPMetrics(metrics))
	router.GET("/api/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(router, http.MethodGet, "/api/items/1", "", nil)
	doRequest(router, http.MethodGet, "/api/items/2", "", nil)
	doRequest(router, http.MethodGet, "/nope", "", nil)

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	routes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "route" {
					routes[lp.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 2.0, routes["/api/items/:id"])
	assert.Equal(t, 1.0, routes[observability.UnmatchedRoute])
}

func TestHTTPMetrics_NilMetrics(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/test", "", nil).Code)
}

func TestHTTPMetrics_WithoutLifecycle(t *testing.T) {
	metrics := observability.NewMetrics("test")

	router := gin.New()
	router.Use(HTTPMetrics(metrics))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(router, http.MethodGet, "/test", "", nil)

	count, err := testutil.GatherAndCount(metrics.Registry(), "test_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
