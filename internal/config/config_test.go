package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RodolfoParada/middleware-express/internal/ratelimit"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()

	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Duration())
	assert.Equal(t, ratelimit.DefaultConfig(), cfg.RateLimit.Default.Limiter())
	assert.Equal(t, "es", cfg.I18n.DefaultLanguage)
}

func TestRateLimitConfig_QuotaFor(t *testing.T) {
	t.Parallel()

	cfg := Default().RateLimit

	tests := []struct {
		method string
		path   string
		want   ratelimit.Config
	}{
		{method: http.MethodGet, path: "/", want: ratelimit.Config{Max: 10, Window: 15 * time.Second}},
		{method: http.MethodPost, path: "/auth/login", want: ratelimit.Config{Max: 3, Window: time.Minute}},
		{method: "post", path: "/auth/login", want: ratelimit.Config{Max: 3, Window: time.Minute}},
		{method: http.MethodGet, path: "/api/usuarios", want: ratelimit.DefaultConfig()},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cfg.QuotaFor(tt.method, tt.path).Limiter())
		})
	}
}
