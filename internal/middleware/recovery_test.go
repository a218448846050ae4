package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/RodolfoParada/middleware-express/internal/observability"
)

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Lifecycle(), RequestID(), Localize(nil), Recovery(observability.NewZapLogger(zap.New(core))))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doRequest(router, http.MethodGet, "/panic", "", nil, HeaderAcceptLanguage, "en")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "Internal server error", body["mensaje"])
	assert.NotEmpty(t, body["timestamp"])

	entries := logs.FilterMessage("panic recovered").All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "test panic", ctx["error"])
		assert.NotEmpty(t, ctx["requestID"])
		assert.NotEmpty(t, ctx["stack"])
	}
}

func TestRecovery_ExposeErrors(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryWithConfig(RecoveryConfig{ExposeErrors: true}))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := doRequest(router, http.MethodGet, "/panic", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Error interno del servidor", body["error"])
	assert.Equal(t, "boom", body["mensaje"])
}

func TestRecovery_UsesEmitter(t *testing.T) {
	var emitted []int

	router := gin.New()
	router.Use(func(c *gin.Context) {
		next := GetEmitter(c)
		SetEmitter(c, EmitterFunc(func(status int, body any) {
			emitted = append(emitted, status)
			next.Emit(status, body)
		}))
		c.Next()
	})
	router.Use(Recovery(nil))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := doRequest(router, http.MethodGet, "/panic", "", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, []int{http.StatusInternalServerError}, emitted)
	assert.Equal(t, "Error interno del servidor", decodeBody(t, w)["error"])
}

func TestRecovery_NoPanic(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(nil))
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/ok", "", nil).Code)
}
