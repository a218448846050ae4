package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RodolfoParada/middleware-express/internal/config"
	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/server"
)

// tracerShutdownTimeout bounds the final span flush.
const tracerShutdownTimeout = 10 * time.Second

// run loads configuration, starts the server and blocks until ctx is done.
func run(ctx context.Context, flags cliFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting middleware-express",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.Int("port", cfg.Server.Port),
	)

	tracer, err := observability.NewTracer(ctx, observability.TracerConfig{
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SampleRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Error("failed to initialize tracer", observability.Error(err))
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown tracer", observability.Error(err))
		}
	}()

	srv, err := server.New(cfg,
		server.WithLogger(logger),
		server.WithTracerProvider(tracer.Provider()),
	)
	if err != nil {
		logger.Error("failed to create server", observability.Error(err))
		return err
	}

	if flags.watch && flags.configPath != "" {
		watcher := startConfigWatcher(ctx, srv, flags, logger)
		if watcher != nil {
			defer func() { _ = watcher.Stop() }()
		}
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", observability.Error(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// loadConfig loads the configuration file and applies command line and
// environment overrides.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyOverrides(cfg, flags)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyOverrides applies flag and environment values on top of cfg.
func applyOverrides(cfg *config.Config, flags cliFlags) {
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	if port, ok := getEnvInt("PORT"); ok {
		cfg.Server.Port = port
	}
}

// initLogger initializes the process logger from cfg.
func initLogger(cfg *config.Config) (observability.Logger, error) {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, err
	}

	observability.SetGlobalLogger(logger)
	return logger, nil
}

// startConfigWatcher watches the configuration file and applies changes to srv.
func startConfigWatcher(ctx context.Context, srv *server.Server, flags cliFlags, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(flags.configPath, reloadServer(srv, flags, logger),
		config.WithLogger(logger),
		config.WithErrorCallback(func(err error) {
			logger.Error("configuration reload failed", observability.Error(err))
		}),
	)
	if err != nil {
		logger.Error("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Error("failed to start config watcher", observability.Error(err))
		return nil
	}
	return watcher
}

// reloadServer returns the watcher callback. Command line and environment
// overrides are applied again so they keep precedence over the file.
func reloadServer(srv *server.Server, flags cliFlags, logger observability.Logger) config.ConfigCallback {
	return func(cfg *config.Config) {
		applyOverrides(cfg, flags)

		if err := srv.Reload(cfg); err != nil {
			logger.Error("configuration reload failed",
				observability.String("path", flags.configPath),
				observability.Error(err),
			)
			return
		}

		logger.Info("configuration applied", observability.String("path", flags.configPath))
	}
}
