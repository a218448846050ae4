package middleware

import "github.com/gin-gonic/gin"

// Emitter sends a JSON response body with a status code.
type Emitter interface {
	Emit(status int, body any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(status int, body any)

// Emit implements Emitter.
func (f EmitterFunc) Emit(status int, body any) {
	f(status, body)
}

// contextEmitter writes JSON through gin.
type contextEmitter struct {
	c *gin.Context
}

func (e contextEmitter) Emit(status int, body any) {
	e.c.JSON(status, body)
}

// GetEmitter returns the emitter installed on c, or one that writes
// directly with c.JSON.
func GetEmitter(c *gin.Context) Emitter {
	if v, exists := c.Get(emitterKey); exists {
		if e, ok := v.(Emitter); ok {
			return e
		}
	}
	return contextEmitter{c: c}
}

// SetEmitter installs e as the emitter for the rest of the request.
func SetEmitter(c *gin.Context, e Emitter) {
	c.Set(emitterKey, e)
}

// JSON emits body with status through the request's emitter.
func JSON(c *gin.Context, status int, body any) {
	GetEmitter(c).Emit(status, body)
}

// AbortWithMessage emits {error, timestamp} with the localized message for
// key and aborts the chain.
func AbortWithMessage(c *gin.Context, status int, key string, args ...string) {
	JSON(c, status, gin.H{
		"error":     T(c, key, args...),
		"timestamp": Timestamp(c),
	})
	c.Abort()
}
