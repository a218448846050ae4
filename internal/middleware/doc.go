// Package middleware provides the gin middleware chain: rate limiting,
// response caching, localization, request lifecycle, and observability.
//
// # Middleware Components
//
//   - Lifecycle: request start time, ISO timestamp, and completion callbacks
//   - RequestID: unique request identifier injection
//   - SecurityHeaders: hardening response headers
//   - CORS: cross-origin headers and preflight answers
//   - Localize: Accept-Language negotiation for response messages
//   - Recovery: panic recovery with a localized 500 body
//   - AccessLog: structured request logging by status class
//   - HTTPMetrics: Prometheus request counters and latency
//   - RateLimit: fixed window quota per method, path, and client
//   - CacheResponse / InvalidateCache: in-memory GET response cache
//
// # Emitting responses
//
// Handlers send JSON through JSON(c, status, body) instead of c.JSON.
// The call goes through the Emitter installed on the context, which lets
// CacheResponse observe successful bodies without wrapping the writer:
//
//	router.GET("/api/productos",
//	    middleware.RateLimit(limiter),
//	    middleware.CacheResponse(rc),
//	    func(c *gin.Context) {
//	        middleware.JSON(c, http.StatusOK, gin.H{"productos": list})
//	    },
//	)
package middleware
