package middleware

// HTTP header constants.
const (
	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderRateLimitLimit carries the configured quota.
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining carries the requests left in the window.
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"

	// HeaderCacheStatus reports HIT or MISS for cacheable requests.
	HeaderCacheStatus = "X-Cache-Status"

	// HeaderCacheControl is the Cache-Control header name.
	HeaderCacheControl = "Cache-Control"

	// HeaderAcceptLanguage is the Accept-Language header name.
	HeaderAcceptLanguage = "Accept-Language"
)

// Cache status header values.
const (
	CacheStatusHit  = "HIT"
	CacheStatusMiss = "MISS"
)

// Gin context keys.
const (
	// RequestIDKey is the context key for the request ID.
	RequestIDKey = "requestID"

	emitterKey   = "middleware.emitter"
	startTimeKey = "middleware.startTime"
	timestampKey = "middleware.timestamp"
	finishKey    = "middleware.finish"
	localizerKey = "middleware.localizer"
)

// TimestampFormat is the ISO-8601 layout used for response timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"
