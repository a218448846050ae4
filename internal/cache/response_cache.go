package cache

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/util"
)

// tracerName is the OpenTelemetry tracer name for cache operations.
const tracerName = "middleware-express/cache"

// Sweep interval bounds used by StartSweeper.
const (
	MinSweepInterval = time.Second
	MaxSweepInterval = 10 * time.Minute
)

// ResponseCache is an in-memory cache of JSON response bodies keyed by
// request target.
type ResponseCache struct {
	ttl     time.Duration
	clock   util.Clock
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer

	mu         sync.Mutex
	entries    map[string]*entry
	generation uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// Option is a functional option for configuring the cache.
type Option func(*ResponseCache)

// WithClock sets the clock used to compute expiry.
func WithClock(clock util.Clock) Option {
	return func(c *ResponseCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger for the cache.
func WithLogger(logger observability.Logger) Option {
	return func(c *ResponseCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink for the cache.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *ResponseCache) {
		c.metrics = metrics
	}
}

// WithTracerProvider sets the tracer provider used for cache spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *ResponseCache) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a response cache whose entries live for ttl.
func New(ttl time.Duration, opts ...Option) (*ResponseCache, error) {
	if err := validateTTL(ttl); err != nil {
		return nil, err
	}

	c := &ResponseCache{
		ttl:     ttl,
		clock:   util.SystemClock{},
		logger:  observability.NopLogger(),
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.tracer == nil {
		c.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}

	return c, nil
}

// TTL returns the lifetime given to newly stored entries.
func (c *ResponseCache) TTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl
}

// SetTTL changes the lifetime of entries stored from now on. Entries already
// stored keep their expiry.
func (c *ResponseCache) SetTTL(ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}

	c.mu.Lock()
	old := c.ttl
	c.ttl = ttl
	c.mu.Unlock()

	if old != ttl {
		c.logger.Info("response cache ttl updated",
			observability.Duration("oldTTL", old),
			observability.Duration("newTTL", ttl),
		)
	}
	return nil
}

// Intercept decides how a request for method and target is handled.
func (c *ResponseCache) Intercept(ctx context.Context, method, target string) Decision {
	_, span := c.tracer.Start(ctx, "cache.Intercept",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("cache.key", target),
		),
	)
	defer span.End()

	if method != http.MethodGet {
		c.metrics.RecordCacheLookup(observability.CacheResultBypass)
		span.SetAttributes(attribute.String("cache.action", PassThrough.String()))
		return Decision{Action: PassThrough}
	}

	now := c.clock.Now()

	c.mu.Lock()
	e, ok := c.entries[target]
	if ok && now.Before(e.expiresAt) {
		body := e.body
		c.mu.Unlock()

		c.metrics.RecordCacheLookup(observability.CacheResultHit)
		span.SetAttributes(
			attribute.String("cache.action", ServeCached.String()),
			attribute.Bool("cache.hit", true),
		)
		return Decision{Action: ServeCached, Body: body}
	}
	if ok {
		delete(c.entries, target)
	}
	gen := c.generation
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.RecordCacheLookup(observability.CacheResultMiss)
	c.metrics.SetCacheEntries(size)
	span.SetAttributes(
		attribute.String("cache.action", Continue.String()),
		attribute.Bool("cache.hit", false),
		attribute.Int64("cache.generation", int64(gen)),
	)
	return Decision{Action: Continue, Generation: gen}
}

// lookup returns the stored body for key if it is still fresh.
func (c *ResponseCache) lookup(key string) ([]byte, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		return nil, false
	}
	return e.body, true
}

// Store saves body under key unless the cache was invalidated after
// generation was observed. It reports whether the body was stored.
func (c *ResponseCache) Store(ctx context.Context, key string, body []byte, generation uint64) bool {
	_, span := c.tracer.Start(ctx, "cache.Store",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int("cache.body_size", len(body)),
		),
	)
	defer span.End()

	stored := make([]byte, len(body))
	copy(stored, body)

	now := c.clock.Now()

	c.mu.Lock()
	if generation != c.generation {
		current := c.generation
		c.mu.Unlock()

		span.SetAttributes(attribute.Bool("cache.stored", false))
		c.logger.Debug("discarding response cached across an invalidation",
			observability.String("key", key),
			observability.Int64("generation", int64(generation)),
			observability.Int64("current", int64(current)),
		)
		return false
	}
	c.entries[key] = &entry{body: stored, expiresAt: now.Add(c.ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	span.SetAttributes(attribute.Bool("cache.stored", true))
	c.metrics.RecordCacheStore()
	c.metrics.SetCacheEntries(size)
	return true
}

// InvalidateAll removes every entry and starts a new generation.
func (c *ResponseCache) InvalidateAll(ctx context.Context) {
	_, span := c.tracer.Start(ctx, "cache.InvalidateAll",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	c.mu.Lock()
	removed := len(c.entries)
	c.entries = make(map[string]*entry)
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	span.SetAttributes(
		attribute.Int("cache.removed", removed),
		attribute.Int64("cache.generation", int64(gen)),
	)
	c.metrics.RecordCacheInvalidation()
	c.metrics.SetCacheEntries(0)
	c.logger.Debug("response cache invalidated",
		observability.Int("removed", removed),
	)
}

// currentGeneration returns the current invalidation generation.
func (c *ResponseCache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes entries that have expired at now and returns how many were removed.
func (c *ResponseCache) Sweep(now time.Time) int {
	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.metrics.SetCacheEntries(size)
		c.logger.Debug("swept expired cache entries",
			observability.Int("removed", removed),
			observability.Int("remaining", size),
		)
	}
	return removed
}

// StartSweeper starts a goroutine that sweeps expired entries every interval.
// The interval is clamped to [MinSweepInterval, MaxSweepInterval]. Calling it
// more than once, or after Stop, has no effect.
func (c *ResponseCache) StartSweeper(interval time.Duration) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	select {
	case <-c.stopCh:
		c.mu.Unlock()
		return
	default:
	}
	c.started = true
	c.mu.Unlock()

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
				c.Sweep(c.clock.Now())
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the sweeper goroutine. It is safe to call more than once.
func (c *ResponseCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
