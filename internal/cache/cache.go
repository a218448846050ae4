package cache

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is the lifetime of a cached response.
const DefaultTTL = 30 * time.Second

// ErrInvalidConfig indicates that the cache configuration is invalid.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Action is what the middleware should do with a request.
type Action int

const (
	// PassThrough means the request is not cacheable and must not be touched.
	PassThrough Action = iota

	// ServeCached means a fresh entry exists and should be sent as is.
	ServeCached

	// Continue means the request should run and its successful response be stored.
	Continue
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case PassThrough:
		return "pass_through"
	case ServeCached:
		return "serve_cached"
	case Continue:
		return "continue"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the outcome of Intercept.
type Decision struct {
	Action Action

	// Body is the stored JSON body. Set only for ServeCached.
	Body []byte

	// Generation is the invalidation generation observed by a Continue
	// decision; pass it back to Store.
	Generation uint64
}

// entry is a single cached response.
type entry struct {
	body      []byte
	expiresAt time.Time
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be greater than zero, got %s", ErrInvalidConfig, ttl)
	}
	return nil
}
