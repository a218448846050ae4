package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/observability"
)

// HTTPMetrics returns a middleware that records request count and latency.
// Routes are labelled by their registered pattern so that path parameters
// and unknown paths do not create new series.
func HTTPMetrics(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := StartTime(c)
		if start.IsZero() {
			start = time.Now()
		}

		record := func() {
			route := c.FullPath()
			if route == "" {
				route = observability.UnmatchedRoute
			}
			metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
		}

		if OnFinish(c, record) {
			c.Next()
			return
		}

		c.Next()
		record()
	}
}
