package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/observability"
)

// LoggingConfig holds configuration for the access log middleware.
type LoggingConfig struct {
	Logger          observability.Logger
	SkipPaths       []string
	SkipHealthCheck bool
}

// AccessLog returns a middleware that logs every completed request.
func AccessLog(logger observability.Logger) gin.HandlerFunc {
	return AccessLogWithConfig(LoggingConfig{Logger: logger})
}

// isHealthCheckPath checks if the path is a health check endpoint.
func isHealthCheckPath(path string) bool {
	return path == "/health" || path == "/healthz" || path == "/ready" || path == "/readyz"
}

// buildLogFields builds the log fields from request and response data.
func buildLogFields(c *gin.Context, path string, latency time.Duration, status int) []observability.Field {
	fields := []observability.Field{
		observability.String("requestID", GetRequestID(c)),
		observability.String("method", c.Request.Method),
		observability.String("path", path),
		observability.String("query", c.Request.URL.RawQuery),
		observability.Int("status", status),
		observability.Duration("latency", latency),
		observability.String("clientIP", c.ClientIP()),
		observability.String("lang", GetLocalizer(c).Tag().String()),
		observability.String("userAgent", c.Request.UserAgent()),
		observability.Int("bodySize", c.Writer.Size()),
	}

	if cacheStatus := c.Writer.Header().Get(HeaderCacheStatus); cacheStatus != "" {
		fields = append(fields, observability.String("cache", cacheStatus))
	}

	if len(c.Errors) > 0 {
		fields = append(fields, observability.String("errors", c.Errors.String()))
	}

	return fields
}

// logRequestByStatus logs the request with appropriate level based on status code.
func logRequestByStatus(logger observability.Logger, status int, fields []observability.Field) {
	switch {
	case status >= 500:
		logger.Error("request completed", fields...)
	case status >= 400:
		logger.Warn("request completed", fields...)
	default:
		logger.Info("request completed", fields...)
	}
}

// AccessLogWithConfig returns an access log middleware with custom configuration.
func AccessLogWithConfig(config LoggingConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path

		if skipPaths[path] || (config.SkipHealthCheck && isHealthCheckPath(path)) {
			c.Next()
			return
		}

		start := StartTime(c)
		if start.IsZero() {
			start = time.Now()
		}

		logFn := func() {
			status := c.Writer.Status()
			logRequestByStatus(config.Logger, status, buildLogFields(c, path, time.Since(start), status))
		}

		if OnFinish(c, logFn) {
			c.Next()
			return
		}

		c.Next()
		logFn()
	}
}
