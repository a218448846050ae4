package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/text/language"

	"github.com/RodolfoParada/middleware-express/internal/util"
)

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"json": true, "console": true}
	validLogOutputs = map[string]bool{"stdout": true, "stderr": true}
)

// Validator validates server configuration.
type Validator struct {
	errs []error
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a configuration.
func ValidateConfig(config *Config) error {
	return NewValidator().Validate(config)
}

// Validate checks every section and returns all problems joined together.
// Each problem is a *util.ConfigError, so errors.Is(err, util.ErrConfigInvalid)
// holds for any failure.
func (v *Validator) Validate(config *Config) error {
	v.errs = nil

	if config == nil {
		v.addError("", "configuration is nil")
		return errors.Join(v.errs...)
	}

	v.validateServer(&config.Server)
	v.validateLogging(&config.Logging)
	v.validateRateLimit(&config.RateLimit)
	v.validateCache(&config.Cache)
	v.validateI18n(&config.I18n)
	v.validateAuth(&config.Auth)
	v.validateMetrics(&config.Metrics)
	v.validateTracing(&config.Tracing)
	v.validateSecurity(&config.Security)

	return errors.Join(v.errs...)
}

func (v *Validator) addError(field, message string) {
	v.errs = append(v.errs, util.NewConfigError(field, message))
}

func (v *Validator) addErrorWithCause(field, message string, cause error) {
	v.errs = append(v.errs, util.NewConfigErrorWithCause(field, message, cause))
}

func (v *Validator) validateServer(s *ServerConfig) {
	if s.Port < 1 || s.Port > 65535 {
		v.addError("server.port", fmt.Sprintf("port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout < 0 {
		v.addError("server.readTimeout", "must not be negative")
	}
	if s.WriteTimeout < 0 {
		v.addError("server.writeTimeout", "must not be negative")
	}
	if s.IdleTimeout < 0 {
		v.addError("server.idleTimeout", "must not be negative")
	}
	if s.MaxRequestBodySize < 0 {
		v.addError("server.maxRequestBodySize", "must not be negative")
	}
	for i, proxy := range s.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			v.addErrorWithCause(fmt.Sprintf("server.trustedProxies[%d]", i),
				fmt.Sprintf("%q is neither an IP address nor a CIDR", proxy), err)
		}
	}
}

func (v *Validator) validateLogging(l *LoggingConfig) {
	if !validLogLevels[l.Level] {
		v.addError("logging.level", fmt.Sprintf("unsupported level %q", l.Level))
	}
	if !validLogFormats[l.Format] {
		v.addError("logging.format", fmt.Sprintf("unsupported format %q", l.Format))
	}
	if !validLogOutputs[l.Output] {
		v.addError("logging.output", fmt.Sprintf("unsupported output %q", l.Output))
	}
}

func (v *Validator) validateQuota(path string, q Quota) {
	if q.Max <= 0 {
		v.addError(path+".max", fmt.Sprintf("must be greater than zero, got %d", q.Max))
	}
	if q.Window <= 0 {
		v.addError(path+".window", fmt.Sprintf("must be greater than zero, got %s", q.Window))
	}
}

func (v *Validator) validateRateLimit(r *RateLimitConfig) {
	v.validateQuota("rateLimit.default", r.Default)

	for route, q := range r.Routes {
		path := fmt.Sprintf("rateLimit.routes[%s]", route)
		method, target, ok := strings.Cut(route, " ")
		if !ok || method == "" || !strings.HasPrefix(target, "/") {
			v.addError(path, `route must have the form "METHOD /path"`)
		}
		v.validateQuota(path, q)
	}

	if r.SweepInterval < 0 {
		v.addError("rateLimit.sweepInterval", "must not be negative")
	}
}

func (v *Validator) validateCache(c *CacheConfig) {
	if c.TTL <= 0 {
		v.addError("cache.ttl", fmt.Sprintf("must be greater than zero, got %s", c.TTL))
	}
	if c.SweepInterval < 0 {
		v.addError("cache.sweepInterval", "must not be negative")
	}
}

func (v *Validator) validateI18n(i *I18nConfig) {
	if _, err := language.Parse(i.DefaultLanguage); err != nil {
		v.addErrorWithCause("i18n.defaultLanguage", fmt.Sprintf("invalid language tag %q", i.DefaultLanguage), err)
	}
}

func (v *Validator) validateAuth(a *AuthConfig) {
	if a.Token == "" {
		v.addError("auth.token", "token is required")
	}
}

func (v *Validator) validateMetrics(m *MetricsConfig) {
	if m.Enabled && !strings.HasPrefix(m.Path, "/") {
		v.addError("metrics.path", "path must start with /")
	}
}

func (v *Validator) validateTracing(t *TracingConfig) {
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("tracing.sampleRate", fmt.Sprintf("must be between 0 and 1, got %v", t.SampleRate))
	}
	if t.Enabled && t.ServiceName == "" {
		v.addError("tracing.serviceName", "service name is required when tracing is enabled")
	}
}

func (v *Validator) validateSecurity(s *SecurityConfig) {
	if !s.CORS.Enabled {
		return
	}
	for i, origin := range s.CORS.AllowOrigins {
		if origin == "" {
			v.addError(fmt.Sprintf("security.cors.allowOrigins[%d]", i), "origin is required")
		}
	}
	if s.CORS.MaxAge < 0 {
		v.addError("security.cors.maxAge", "must not be negative")
	}
}
