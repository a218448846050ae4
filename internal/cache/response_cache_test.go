package cache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/util"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, opts ...Option) (*ResponseCache, *util.ManualClock) {
	t.Helper()

	clk := util.NewManualClock(epoch)
	c, err := New(DefaultTTL, append([]Option{WithClock(clk)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c, clk
}

func TestNew(t *testing.T) {
	t.Parallel()

	c, err := New(DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.TTL())
	assert.Equal(t, 0, c.Len())

	c, err = New(0)
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestResponseCache_Intercept(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("non-GET passes through", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t)
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead} {
			d := c.Intercept(ctx, method, "/api/productos")
			assert.Equal(t, PassThrough, d.Action, method)
		}
	})

	t.Run("empty cache continues", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t)
		d := c.Intercept(ctx, http.MethodGet, "/api/productos")
		assert.Equal(t, Continue, d.Action)
		assert.Equal(t, uint64(0), d.Generation)
		assert.Nil(t, d.Body)
	})

	t.Run("stored entry is served", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t)
		d := c.Intercept(ctx, http.MethodGet, "/api/productos")
		require.True(t, c.Store(ctx, "/api/productos", []byte(`{"data":[]}`), d.Generation))

		clk.Advance(DefaultTTL - time.Millisecond)
		d = c.Intercept(ctx, http.MethodGet, "/api/productos")
		assert.Equal(t, ServeCached, d.Action)
		assert.JSONEq(t, `{"data":[]}`, string(d.Body))
	})

	t.Run("entry expires at ttl", func(t *testing.T) {
		t.Parallel()

		c, clk := newTestCache(t)
		require.True(t, c.Store(ctx, "/api/productos", []byte(`{}`), 0))

		clk.Advance(DefaultTTL)
		d := c.Intercept(ctx, http.MethodGet, "/api/productos")
		assert.Equal(t, Continue, d.Action)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("query string is part of the key", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCache(t)
		require.True(t, c.Store(ctx, "/api/productos?a=1&b=2", []byte(`{}`), 0))

		assert.Equal(t, ServeCached, c.Intercept(ctx, http.MethodGet, "/api/productos?a=1&b=2").Action)
		assert.Equal(t, Continue, c.Intercept(ctx, http.MethodGet, "/api/productos?b=2&a=1").Action)
		assert.Equal(t, Continue, c.Intercept(ctx, http.MethodGet, "/api/productos").Action)
	})
}

func TestResponseCache_StoreCopiesBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	body := []byte(`{"n":1}`)
	require.True(t, c.Store(context.Background(), "/k", body, 0))
	body[5] = '2'

	got, ok := c.lookup("/k")
	require.True(t, ok)
	assert.Equal(t, `{"n":1}`, string(got))
}

func TestResponseCache_InvalidateAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newTestCache(t)

	require.True(t, c.Store(ctx, "/api/usuarios", []byte(`[]`), 0))
	require.True(t, c.Store(ctx, "/api/productos", []byte(`[]`), 0))
	assert.Equal(t, 2, c.Len())

	c.InvalidateAll(ctx)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(1), c.currentGeneration())

	_, ok := c.lookup("/api/usuarios")
	assert.False(t, ok)

	// Invalidating an empty cache still starts a new generation.
	c.InvalidateAll(ctx)
	assert.Equal(t, uint64(2), c.currentGeneration())
}

func TestResponseCache_StoreAfterInvalidationIsDiscarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	c, _ := newTestCache(t, WithLogger(observability.NewZapLogger(zap.New(core))))

	d := c.Intercept(ctx, http.MethodGet, "/api/productos")
	require.Equal(t, Continue, d.Action)

	c.InvalidateAll(ctx)

	assert.False(t, c.Store(ctx, "/api/productos", []byte(`{"stale":true}`), d.Generation))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 1, logs.FilterMessage("discarding response cached across an invalidation").Len())

	d = c.Intercept(ctx, http.MethodGet, "/api/productos")
	assert.Equal(t, Continue, d.Action)
	assert.True(t, c.Store(ctx, "/api/productos", []byte(`{"fresh":true}`), d.Generation))
}

func TestResponseCache_SetTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, clk := newTestCache(t)

	require.True(t, c.Store(ctx, "/old", []byte(`{"n":1}`), 0))
	require.NoError(t, c.SetTTL(5*time.Second))
	assert.Equal(t, 5*time.Second, c.TTL())
	require.True(t, c.Store(ctx, "/new", []byte(`{"n":2}`), 0))

	clk.Advance(5 * time.Second)
	_, ok := c.lookup("/new")
	assert.False(t, ok, "entries stored after the change use the new ttl")
	_, ok = c.lookup("/old")
	assert.True(t, ok, "entries stored before the change keep their expiry")

	err := c.SetTTL(0)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, 5*time.Second, c.TTL())
}

func TestResponseCache_Sweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, clk := newTestCache(t)

	require.True(t, c.Store(ctx, "/old", []byte(`1`), 0))
	clk.Advance(20 * time.Second)
	require.True(t, c.Store(ctx, "/new", []byte(`2`), 0))

	clk.Advance(10 * time.Second)
	assert.Equal(t, 1, c.Sweep(clk.Now()))
	assert.Equal(t, 1, c.Len())

	_, ok := c.lookup("/new")
	assert.True(t, ok)

	assert.Equal(t, 0, c.Sweep(clk.Now()))
}

func TestResponseCache_StartSweeper(t *testing.T) {
	t.Parallel()

	c, clk := newTestCache(t)
	require.True(t, c.Store(context.Background(), "/k", []byte(`1`), 0))
	clk.Advance(time.Hour)

	c.StartSweeper(time.Millisecond)
	c.StartSweeper(time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, 5*time.Second, 50*time.Millisecond)

	c.Stop()
	c.Stop()
}

func TestResponseCache_StartSweeperAfterStop(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t)
	c.Stop()
	assert.NotPanics(t, func() { c.StartSweeper(time.Second) })
}

func TestResponseCache_Metrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := observability.NewMetrics("test")
	c, _ := newTestCache(t, WithMetrics(m))

	d := c.Intercept(ctx, http.MethodGet, "/k")
	c.Store(ctx, "/k", []byte(`1`), d.Generation)
	c.Intercept(ctx, http.MethodGet, "/k")
	c.Intercept(ctx, http.MethodPost, "/k")
	c.InvalidateAll(ctx)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				key := mf.GetName()
				for _, lp := range metric.GetLabel() {
					key += ":" + lp.GetValue()
				}
				values[key] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, values["test_cache_lookups_total:hit"])
	assert.Equal(t, 1.0, values["test_cache_lookups_total:miss"])
	assert.Equal(t, 1.0, values["test_cache_lookups_total:bypass"])
	assert.Equal(t, 1.0, values["test_cache_stores_total"])
	assert.Equal(t, 1.0, values["test_cache_invalidations_total"])
	assert.Equal(t, 0.0, values["test_cache_entries"])

	count, err := testutil.GatherAndCount(m.Registry(), "test_cache_lookups_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestResponseCache_Spans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx := context.Background()
	c, _ := newTestCache(t, WithTracerProvider(tp))

	d := c.Intercept(ctx, http.MethodGet, "/api/productos")
	c.Store(ctx, "/api/productos", []byte(`[]`), d.Generation)
	c.InvalidateAll(ctx)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "cache.Intercept", spans[0].Name())
	assert.Equal(t, "cache.Store", spans[1].Name())
	assert.Equal(t, "cache.InvalidateAll", spans[2].Name())

	assert.Contains(t, spans[0].Attributes(), attribute.String("cache.action", "continue"))
	assert.Contains(t, spans[1].Attributes(), attribute.Bool("cache.stored", true))
	assert.Contains(t, spans[2].Attributes(), attribute.Int("cache.removed", 1))
}

func TestResponseCache_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _ := newTestCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := c.Intercept(ctx, http.MethodGet, "/k")
			if d.Action == Continue {
				c.Store(ctx, "/k", []byte(`1`), d.Generation)
			}
			if i%10 == 0 {
				c.InvalidateAll(ctx)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 1)
}
