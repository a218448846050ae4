package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           int
}

var defaultExposeHeaders = []string{
	HeaderXRequestID,
	HeaderRetryAfter,
	HeaderRateLimitLimit,
	HeaderRateLimitRemaining,
	HeaderCacheStatus,
}

// DefaultCORSConfig returns default CORS configuration.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", HeaderAcceptLanguage, "Authorization", HeaderXRequestID},
		ExposeHeaders: defaultExposeHeaders,
	}
}

// corsHeaders holds pre-computed CORS header values.
type corsHeaders struct {
	allowOrigins     map[string]bool
	wildcardPatterns []string
	allowAllOrigins  bool
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	maxAge           string
	allowCredentials bool
}

// newCORSHeaders creates pre-computed CORS headers from config.
func newCORSHeaders(cfg CORSConfig) *corsHeaders {
	h := &corsHeaders{
		allowOrigins:     make(map[string]bool),
		allowMethods:     strings.Join(cfg.AllowMethods, ", "),
		allowHeaders:     strings.Join(cfg.AllowHeaders, ", "),
		exposeHeaders:    strings.Join(cfg.ExposeHeaders, ", "),
		allowCredentials: cfg.AllowCredentials,
	}
	if cfg.MaxAge > 0 {
		h.maxAge = strconv.Itoa(cfg.MaxAge)
	}

	for _, origin := range cfg.AllowOrigins {
		switch {
		case origin == "*":
			h.allowAllOrigins = true
		case strings.HasPrefix(origin, "*."):
			h.wildcardPatterns = append(h.wildcardPatterns, origin)
		default:
			h.allowOrigins[origin] = true
		}
	}

	return h
}

// isOriginAllowed checks if the given origin is allowed.
func (h *corsHeaders) isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if h.allowAllOrigins || h.allowOrigins[origin] {
		return true
	}
	for _, pattern := range h.wildcardPatterns {
		if matchWildcardOrigin(origin, pattern) {
			return true
		}
	}
	return false
}

// matchWildcardOrigin reports whether origin is a subdomain of a
// "*.example.com" pattern.
func matchWildcardOrigin(origin, pattern string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return false
	}
	suffix := pattern[1:]

	host := origin
	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	return len(host) > len(suffix) && strings.HasSuffix(host, suffix)
}

// set writes the CORS headers for origin. Preflight-only headers are
// written when preflight is true.
func (h *corsHeaders) set(header http.Header, origin string, preflight bool) {
	if !h.isOriginAllowed(origin) {
		return
	}

	header.Set("Access-Control-Allow-Origin", origin)
	header.Add("Vary", "Origin")
	if h.allowCredentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}

	if !preflight {
		if h.exposeHeaders != "" {
			header.Set("Access-Control-Expose-Headers", h.exposeHeaders)
		}
		return
	}

	if h.allowMethods != "" {
		header.Set("Access-Control-Allow-Methods", h.allowMethods)
	}
	if h.allowHeaders != "" {
		header.Set("Access-Control-Allow-Headers", h.allowHeaders)
	}
	if h.maxAge != "" {
		header.Set("Access-Control-Max-Age", h.maxAge)
	}
}

// CORS returns a CORS middleware with default configuration.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a middleware that sets CORS headers and answers
// preflight requests with 204 before any route handler runs.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	headers := newCORSHeaders(cfg)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		preflight := c.Request.Method == http.MethodOptions &&
			c.GetHeader("Access-Control-Request-Method") != ""

		headers.set(c.Writer.Header(), origin, preflight)

		if preflight {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
