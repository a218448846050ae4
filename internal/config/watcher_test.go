package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeConfig(t, path, "logging:\n  level: info\n")

	var latest atomic.Value
	w, err := NewWatcher(path, func(cfg *Config) {
		latest.Store(cfg.Logging.Level)
	}, WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })

	assert.Equal(t, "info", w.GetLastConfig().Logging.Level)

	writeConfig(t, path, "logging:\n  level: debug\n")

	assert.Eventually(t, func() bool {
		v, _ := latest.Load().(string)
		return v == "debug"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "debug", w.GetLastConfig().Logging.Level)
}

func TestWatcher_InvalidReloadKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeConfig(t, path, "server:\n  port: 8080\n")

	errCh := make(chan error, 4)
	w, err := NewWatcher(path, nil,
		WithDebounceDelay(10*time.Millisecond),
		WithErrorCallback(func(err error) { errCh <- err }),
	)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	writeConfig(t, path, "server:\n  port: 0\n")

	select {
	case err := <-errCh:
		assert.Contains(t, err.Error(), "server.port")
	case <-time.After(5 * time.Second):
		t.Fatal("expected reload error")
	}
	assert.Equal(t, 8080, w.GetLastConfig().Server.Port)
}

func TestWatcher_StartFailsOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeConfig(t, path, "cache:\n  ttl: 0s\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.Error(t, w.Start(context.Background()))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	writeConfig(t, path, "")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	require.NoError(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
