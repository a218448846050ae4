package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/ratelimit"
)

// DefaultDenialLogInterval bounds how often denials are logged at Warn.
const DefaultDenialLogInterval = 10 * time.Second

// KeyFunc extracts the rate limit key from the request.
type KeyFunc func(c *gin.Context) string

// EndpointKeyFunc keys requests by method, path, and client IP.
func EndpointKeyFunc(c *gin.Context) string {
	return ratelimit.EndpointKey(c.Request.Method, c.Request.URL.Path, c.ClientIP())
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// Limiter is the rate limiter to use.
	Limiter ratelimit.Limiter

	// Name labels the limiter in logs and metrics.
	Name string

	// KeyFunc extracts the rate limit key from the request.
	KeyFunc KeyFunc

	// Logger for logging rate limit events.
	Logger observability.Logger

	// Metrics records decisions. Nil disables metrics.
	Metrics *observability.Metrics

	// DenialLogInterval is the minimum gap between Warn logs for denials.
	DenialLogInterval time.Duration
}

// RateLimit returns a middleware that enforces limiter's quota per endpoint
// and client.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter})
}

// RateLimitWithConfig returns a rate limit middleware with custom configuration.
func RateLimitWithConfig(config RateLimitConfig) gin.HandlerFunc {
	if config.Limiter == nil {
		panic("middleware: rate limit requires a limiter")
	}
	if config.KeyFunc == nil {
		config.KeyFunc = EndpointKeyFunc
	}
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}
	if config.Name == "" {
		config.Name = "default"
	}
	if config.DenialLogInterval <= 0 {
		config.DenialLogInterval = DefaultDenialLogInterval
	}

	denialLog := &rate.Sometimes{First: 1, Interval: config.DenialLogInterval}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		decision := config.Limiter.Allow(key)

		config.Metrics.RecordRateLimitDecision(config.Name, decision.Allowed)
		config.Metrics.SetRateLimitKeys(config.Name, config.Limiter.Len())

		c.Header(HeaderRateLimitLimit, strconv.Itoa(decision.Limit))

		if !decision.Allowed {
			retryAfter := strconv.Itoa(decision.RetryAfterSeconds())
			c.Header(HeaderRetryAfter, retryAfter)
			c.Header(HeaderRateLimitRemaining, "0")

			config.Logger.Debug("rate limit exceeded",
				observability.String("limiter", config.Name),
				observability.String("key", key),
				observability.Int("limit", decision.Limit),
			)
			denialLog.Do(func() {
				config.Logger.Warn("rate limit exceeded",
					observability.String("limiter", config.Name),
					observability.String("key", key),
					observability.String("retryAfter", retryAfter),
				)
			})

			AbortWithMessage(c, http.StatusTooManyRequests, i18n.RateLimitExceeded, retryAfter)
			return
		}

		c.Header(HeaderRateLimitRemaining, strconv.Itoa(decision.Remaining))
		c.Next()
	}
}
