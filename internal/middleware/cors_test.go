package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCORSRouter(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/items", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestCORS_SimpleRequest(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/items", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, http.MethodGet, "/items", "", nil, "Origin", "https://app.example.com")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), HeaderRetryAfter)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_NoOrigin(t *testing.T) {
	router := newCORSRouter(DefaultCORSConfig())

	w := doRequest(router, http.MethodGet, "/items", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.MaxAge = 600
	router := newCORSRouter(cfg)

	w := doRequest(router, http.MethodOptions, "/items", "", nil,
		"Origin", "https://app.example.com",
		"Access-Control-Request-Method", http.MethodPost,
	)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://admin.example.org", "*.example.com"}
	cfg.AllowCredentials = true
	router := newCORSRouter(cfg)

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://admin.example.org", true},
		{"https://api.example.com", true},
		{"http://api.example.com:8080", true},
		{"https://example.com", false},
		{"https://evil.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/items", "", nil, "Origin", tt.origin)

			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestMatchWildcardOrigin(t *testing.T) {
	assert.True(t, matchWildcardOrigin("https://a.b.example.com", "*.example.com"))
	assert.False(t, matchWildcardOrigin("https://example.com", "*.example.com"))
	assert.False(t, matchWildcardOrigin("https://a.example.com", "example.com"))
}
