package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/RodolfoParada/middleware-express/internal/i18n"
	"github.com/RodolfoParada/middleware-express/internal/observability"
)

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	Logger           observability.Logger
	EnableStackTrace bool

	// ExposeErrors puts the panic value in the response "mensaje" field
	// instead of the generic localized message.
	ExposeErrors bool
}

// Recovery returns a middleware that recovers from panics.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	return RecoveryWithConfig(RecoveryConfig{
		Logger:           logger,
		EnableStackTrace: true,
	})
}

// RecoveryWithConfig returns a recovery middleware with custom configuration.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	if config.Logger == nil {
		config.Logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				fields := []observability.Field{
					observability.Any("error", err),
					observability.String("method", c.Request.Method),
					observability.String("path", c.Request.URL.Path),
					observability.String("clientIP", c.ClientIP()),
				}

				if requestID := GetRequestID(c); requestID != "" {
					fields = append(fields, observability.String("requestID", requestID))
				}

				if config.EnableStackTrace {
					fields = append(fields, observability.String("stack", string(debug.Stack())))
				}

				config.Logger.Error("panic recovered", fields...)

				message := T(c, i18n.InternalServerError)
				detail := message
				if config.ExposeErrors {
					detail = fmt.Sprint(err)
				}

				if c.Writer.Written() {
					c.Abort()
					return
				}

				JSON(c, http.StatusInternalServerError, gin.H{
					"error":     message,
					"mensaje":   detail,
					"timestamp": Timestamp(c),
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}
