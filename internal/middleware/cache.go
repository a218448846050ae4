package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/cache"
	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/util"
)

// CacheConfig holds configuration for the cache middlewares.
type CacheConfig struct {
	// Cache is the response cache to read from and write to.
	Cache *cache.ResponseCache

	// Logger for cache hits, misses, and invalidations.
	Logger observability.Logger
}

// CacheResponse returns a middleware that serves fresh cached bodies for GET
// requests and stores successful responses emitted further down the chain.
func CacheResponse(rc *cache.ResponseCache) gin.HandlerFunc {
	return CacheResponseWithConfig(CacheConfig{Cache: rc})
}

// CacheResponseWithConfig returns a cache middleware with custom configuration.
func CacheResponseWithConfig(config CacheConfig) gin.HandlerFunc {
	if config.Cache == nil {
		panic("middleware: cache response requires a cache")
	}
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		key := c.Request.URL.RequestURI()
		decision := config.Cache.Intercept(c.Request.Context(), c.Request.Method, key)

		switch decision.Action {
		case cache.ServeCached:
			config.Logger.Debug("cache hit", observability.String("key", key))
			c.Header(HeaderCacheStatus, CacheStatusHit)
			JSON(c, http.StatusOK, json.RawMessage(decision.Body))
			c.Abort()
			return

		case cache.Continue:
			config.Logger.Debug("cache miss", observability.String("key", key))
			c.Header(HeaderCacheStatus, CacheStatusMiss)
			SetEmitter(c, &cachingEmitter{
				next:       GetEmitter(c),
				c:          c,
				cache:      config.Cache,
				logger:     config.Logger,
				key:        key,
				generation: decision.Generation,
			})
		}

		c.Next()
	}
}

// cachingEmitter stores successful bodies before passing them on.
type cachingEmitter struct {
	next       Emitter
	c          *gin.Context
	cache      *cache.ResponseCache
	logger     observability.Logger
	key        string
	generation uint64
}

func (e *cachingEmitter) Emit(status int, body any) {
	if status >= 200 && status < 300 {
		encoded, err := json.Marshal(body)
		if err != nil {
			e.logger.Warn("response body not cacheable",
				observability.String("key", e.key),
				observability.Error(err),
			)
		} else {
			e.cache.Store(e.c.Request.Context(), e.key, encoded, e.generation)
			e.c.Header(HeaderCacheControl, cacheControl(e.cache.TTL()))
		}
	}
	e.next.Emit(status, body)
}

// cacheControl is the Cache-Control value for a body cached for ttl.
func cacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", util.CeilSeconds(ttl))
}

// InvalidateCache returns a middleware that clears the whole cache before
// continuing. Use it on routes that modify data.
func InvalidateCache(rc *cache.ResponseCache) gin.HandlerFunc {
	return InvalidateCacheWithConfig(CacheConfig{Cache: rc})
}

// InvalidateCacheWithConfig returns an invalidation middleware with custom configuration.
func InvalidateCacheWithConfig(config CacheConfig) gin.HandlerFunc {
	if config.Cache == nil {
		panic("middleware: invalidate cache requires a cache")
	}
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		config.Cache.InvalidateAll(c.Request.Context())
		config.Logger.Info("cache invalidated by write request",
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
		)
		c.Next()
	}
}
