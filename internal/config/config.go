package config

import (
	"strings"
	"time"

	"github.com/RodolfoParada/middleware-express/internal/ratelimit"
)

// Default values.
const (
	DefaultAddress            = "0.0.0.0"
	DefaultPort               = 3000
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 30 * time.Second
	DefaultIdleTimeout        = 120 * time.Second
	DefaultMaxRequestBodySize = 10 << 20
	DefaultSweepInterval      = time.Minute
	DefaultCacheTTL           = 30 * time.Second
	DefaultLanguage           = "es"
	DefaultAuthToken          = "mi-token-secreto"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "middleware"
	DefaultServiceName        = "middleware-express"
)

// Config is the root server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	I18n      I18nConfig      `yaml:"i18n" json:"i18n"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
	Security  SecurityConfig  `yaml:"security" json:"security"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address            string   `yaml:"address" json:"address"`
	Port               int      `yaml:"port" json:"port"`
	ReadTimeout        Duration `yaml:"readTimeout" json:"readTimeout"`
	WriteTimeout       Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout        Duration `yaml:"idleTimeout" json:"idleTimeout"`
	MaxRequestBodySize int64    `yaml:"maxRequestBodySize" json:"maxRequestBodySize"`

	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are used to find the client IP. Empty trusts none.
	TrustedProxies []string `yaml:"trustedProxies,omitempty" json:"trustedProxies,omitempty"`

	// ExposeErrors includes panic messages in 500 responses.
	ExposeErrors bool `yaml:"exposeErrors,omitempty" json:"exposeErrors,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// Quota is a rate limit of Max requests per Window.
type Quota struct {
	Max    int      `yaml:"max" json:"max"`
	Window Duration `yaml:"window" json:"window"`
}

// Limiter converts the quota to a limiter configuration.
func (q Quota) Limiter() ratelimit.Config {
	return ratelimit.Config{Max: q.Max, Window: q.Window.Duration()}
}

// RateLimitConfig configures request rate limiting.
type RateLimitConfig struct {
	// Default applies to every limited route without an override.
	Default Quota `yaml:"default" json:"default"`

	// Routes overrides the quota per "METHOD /path".
	Routes map[string]Quota `yaml:"routes,omitempty" json:"routes,omitempty"`

	SweepInterval Duration `yaml:"sweepInterval" json:"sweepInterval"`
}

// QuotaFor returns the quota for a route, falling back to Default.
func (c RateLimitConfig) QuotaFor(method, path string) Quota {
	if q, ok := c.Routes[RouteKey(method, path)]; ok {
		return q
	}
	return c.Default
}

// RouteKey builds the key used in RateLimitConfig.Routes.
func RouteKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	TTL           Duration `yaml:"ttl" json:"ttl"`
	SweepInterval Duration `yaml:"sweepInterval" json:"sweepInterval"`
}

// I18nConfig configures response localization.
type I18nConfig struct {
	DefaultLanguage string `yaml:"defaultLanguage" json:"defaultLanguage"`
}

// AuthConfig configures the demo bearer token check.
type AuthConfig struct {
	Token string `yaml:"token" json:"-"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Path      string `yaml:"path" json:"path"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SampleRate  float64 `yaml:"sampleRate" json:"sampleRate"`
	ServiceName string  `yaml:"serviceName" json:"serviceName"`
}

// SecurityConfig configures response hardening.
type SecurityConfig struct {
	// Headers enables the security response headers.
	Headers bool       `yaml:"headers" json:"headers"`
	CORS    CORSConfig `yaml:"cors" json:"cors"`
}

// CORSConfig configures cross-origin resource sharing. Empty lists use the
// middleware defaults.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	AllowOrigins     []string `yaml:"allowOrigins,omitempty" json:"allowOrigins,omitempty"`
	AllowMethods     []string `yaml:"allowMethods,omitempty" json:"allowMethods,omitempty"`
	AllowHeaders     []string `yaml:"allowHeaders,omitempty" json:"allowHeaders,omitempty"`
	ExposeHeaders    []string `yaml:"exposeHeaders,omitempty" json:"exposeHeaders,omitempty"`
	AllowCredentials bool     `yaml:"allowCredentials,omitempty" json:"allowCredentials,omitempty"`
	MaxAge           Duration `yaml:"maxAge,omitempty" json:"maxAge,omitempty"`
}

// Default returns a complete working configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:            DefaultAddress,
			Port:               DefaultPort,
			ReadTimeout:        Duration(DefaultReadTimeout),
			WriteTimeout:       Duration(DefaultWriteTimeout),
			IdleTimeout:        Duration(DefaultIdleTimeout),
			MaxRequestBodySize: DefaultMaxRequestBodySize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		RateLimit: RateLimitConfig{
			Default: Quota{Max: ratelimit.DefaultMax, Window: Duration(ratelimit.DefaultWindow)},
			Routes: map[string]Quota{
				"GET /":            {Max: 10, Window: Duration(15 * time.Second)},
				"POST /auth/login": {Max: 3, Window: Duration(60 * time.Second)},
			},
			SweepInterval: Duration(DefaultSweepInterval),
		},
		Cache: CacheConfig{
			TTL:           Duration(DefaultCacheTTL),
			SweepInterval: Duration(DefaultSweepInterval),
		},
		I18n: I18nConfig{
			DefaultLanguage: DefaultLanguage,
		},
		Auth: AuthConfig{
			Token: DefaultAuthToken,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultMetricsNamespace,
		},
		Tracing: TracingConfig{
			SampleRate:  1.0,
			ServiceName: DefaultServiceName,
		},
		Security: SecurityConfig{
			Headers: true,
			CORS: CORSConfig{
				Enabled:      true,
				AllowOrigins: []string{"*"},
			},
		},
	}
}
