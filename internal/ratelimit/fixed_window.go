package ratelimit

import (
	"sync"
	"time"

	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/util"
)

// Sweep interval bounds used by StartSweeper.
const (
	MinSweepInterval = time.Second
	MaxSweepInterval = 10 * time.Minute
)

// windowEntry is the per-key counter for the current window.
type windowEntry struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter implements the fixed window rate limiting algorithm.
// A window opens on the first request for a key and lasts Config.Window;
// the first request at or after the window end opens a new one.
type FixedWindowLimiter struct {
	cfg    Config
	clock  util.Clock
	logger observability.Logger

	mu      sync.Mutex
	entries map[string]*windowEntry

	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// Option is a functional option for configuring the limiter.
type Option func(*FixedWindowLimiter)

// WithClock sets the clock used by Allow and the sweeper.
func WithClock(clock util.Clock) Option {
	return func(l *FixedWindowLimiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger sets the logger for the limiter.
func WithLogger(logger observability.Logger) Option {
	return func(l *FixedWindowLimiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewFixedWindowLimiter creates a new fixed window limiter.
// It fails when cfg has a non-positive Max or Window.
func NewFixedWindowLimiter(cfg Config, opts ...Option) (*FixedWindowLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &FixedWindowLimiter{
		cfg:     cfg,
		clock:   util.SystemClock{},
		logger:  observability.NopLogger(),
		entries: make(map[string]*windowEntry),
		stopCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// MustNewFixedWindowLimiter creates a new limiter and panics on error.
func MustNewFixedWindowLimiter(cfg Config, opts ...Option) *FixedWindowLimiter {
	l, err := NewFixedWindowLimiter(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Allow implements Limiter.
func (l *FixedWindowLimiter) Allow(key string) Decision {
	return l.Check(key, l.clock.Now())
}

// Check records a request for key at now and returns the decision.
func (l *FixedWindowLimiter) Check(key string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		e = &windowEntry{count: 1, resetAt: now.Add(l.cfg.Window)}
		l.entries[key] = e

		return Decision{
			Allowed:   true,
			Limit:     l.cfg.Max,
			Remaining: l.cfg.Max - 1,
			ResetAt:   e.resetAt,
		}
	}

	// The count stops at Max+1.
	if e.count <= l.cfg.Max {
		e.count++
	}

	if e.count > l.cfg.Max {
		return Decision{
			Allowed:    false,
			Limit:      l.cfg.Max,
			Remaining:  0,
			ResetAt:    e.resetAt,
			RetryAfter: e.resetAt.Sub(now),
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     l.cfg.Max,
		Remaining: l.cfg.Max - e.count,
		ResetAt:   e.resetAt,
	}
}

// Config implements Limiter.
func (l *FixedWindowLimiter) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// UpdateConfig replaces the quota. Open windows keep their counts and end
// times; the new Window applies to windows opened afterwards and the new Max
// applies from the next request.
func (l *FixedWindowLimiter) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	old := l.cfg
	l.cfg = cfg
	l.mu.Unlock()

	if old != cfg {
		l.logger.Info("rate limit quota updated",
			observability.Int("oldMax", old.Max),
			observability.Int("newMax", cfg.Max),
			observability.Duration("oldWindow", old.Window),
			observability.Duration("newWindow", cfg.Window),
		)
	}
	return nil
}

// Len implements Limiter.
func (l *FixedWindowLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// reset forgets the window for key.
func (l *FixedWindowLimiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Sweep removes entries whose window has ended at now and returns how many
// were removed. A swept key behaves exactly like a key never seen before.
func (l *FixedWindowLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}

	if removed > 0 {
		l.logger.Debug("swept expired rate limit windows",
			observability.Int("removed", removed),
			observability.Int("remaining", len(l.entries)),
		)
	}

	return removed
}

// StartSweeper starts a goroutine that sweeps expired windows every interval.
// The interval is clamped to [MinSweepInterval, MaxSweepInterval]. Calling it
// more than once, or after Stop, has no effect.
func (l *FixedWindowLimiter) StartSweeper(interval time.Duration) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	select {
	case <-l.stopCh:
		l.mu.Unlock()
		return
	default:
	}
	l.started = true
	l.mu.Unlock()

	if interval < MinSweepInterval {
		interval = MinSweepInterval
	}
	if interval > MaxSweepInterval {
		interval = MaxSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Sweep(l.clock.Now())
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop stops the sweeper goroutine. It is safe to call more than once.
func (l *FixedWindowLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
}
