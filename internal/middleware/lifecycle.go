package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/util"
)

// finishCallbacks collects the callbacks registered during one request.
type finishCallbacks struct {
	fns []func()
	ran bool
}

// Lifecycle returns a middleware that records the request start time and
// timestamp, and runs OnFinish callbacks once the rest of the chain returns.
func Lifecycle() gin.HandlerFunc {
	return LifecycleWithClock(util.SystemClock{})
}

// LifecycleWithClock is Lifecycle with an explicit clock.
func LifecycleWithClock(clock util.Clock) gin.HandlerFunc {
	if clock == nil {
		clock = util.SystemClock{}
	}

	return func(c *gin.Context) {
		now := clock.Now()
		c.Set(startTimeKey, now)
		c.Set(timestampKey, now.UTC().Format(TimestampFormat))

		callbacks := &finishCallbacks{}
		c.Set(finishKey, callbacks)

		c.Next()

		if callbacks.ran {
			return
		}
		callbacks.ran = true
		for _, fn := range callbacks.fns {
			fn()
		}
	}
}

// OnFinish registers fn to run after the response has been produced.
// It returns false when Lifecycle is not installed, in which case fn is
// never called.
func OnFinish(c *gin.Context, fn func()) bool {
	v, exists := c.Get(finishKey)
	if !exists {
		return false
	}
	callbacks, ok := v.(*finishCallbacks)
	if !ok || callbacks.ran {
		return false
	}
	callbacks.fns = append(callbacks.fns, fn)
	return true
}

// StartTime returns when the request entered Lifecycle.
func StartTime(c *gin.Context) time.Time {
	if v, exists := c.Get(startTimeKey); exists {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

// Timestamp returns the request timestamp in TimestampFormat. Without
// Lifecycle it falls back to the current time.
func Timestamp(c *gin.Context) string {
	if v, exists := c.Get(timestampKey); exists {
		if ts, ok := v.(string); ok {
			return ts
		}
	}
	return time.Now().UTC().Format(TimestampFormat)
}
