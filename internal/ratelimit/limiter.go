// Package ratelimit provides request rate limiting for the middleware chain.
// Requests are counted per key inside fixed windows that start at the first
// request seen for the key.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"github.com/RodolfoParada/middleware-express/internal/util"
)

// Default quota applied when a route does not override it.
const (
	DefaultMax    = 5
	DefaultWindow = 60 * time.Second
)

// ErrInvalidConfig is returned when a limiter is built from a non-positive
// quota or window.
var ErrInvalidConfig = errors.New("invalid rate limit configuration")

// Limiter defines the interface consumed by the rate limit middleware.
type Limiter interface {
	// Allow records a request for key at the current time and returns the decision.
	Allow(key string) Decision

	// Config returns the quota the limiter enforces.
	Config() Config

	// Len returns the number of keys currently tracked.
	Len() int
}

// Config represents a rate limit quota.
type Config struct {
	// Max is the number of requests allowed per window.
	Max int

	// Window is the length of a window.
	Window time.Duration
}

// DefaultConfig returns the default quota of 5 requests per 60 seconds.
func DefaultConfig() Config {
	return Config{
		Max:    DefaultMax,
		Window: DefaultWindow,
	}
}

// Validate rejects non-positive quotas and windows.
func (c Config) Validate() error {
	if c.Max <= 0 {
		return fmt.Errorf("%w: max must be greater than zero, got %d", ErrInvalidConfig, c.Max)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be greater than zero, got %s", ErrInvalidConfig, c.Window)
	}
	return nil
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Limit is the configured quota.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the current window expires.
	ResetAt time.Time

	// RetryAfter is how long a denied caller should wait. Zero when allowed.
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return util.CeilSeconds(d.RetryAfter)
}
