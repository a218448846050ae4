// Package observability provides logging, metrics, and tracing
// for the middleware chain and the demo server.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("cache invalidated",
//	    observability.Int("removed", n),
//	)
//
// # Metrics
//
// Prometheus metrics for rate limit decisions, cache lookups, and HTTP
// requests live on a private registry:
//
//	metrics := observability.NewMetrics("middleware")
//	engine.GET("/metrics", gin.WrapH(metrics.Handler()))
//
// All Metrics methods are no-ops on a nil receiver.
//
// # Tracing
//
// NewTracer configures an OpenTelemetry tracer provider with an optional
// OTLP gRPC exporter. Cache operations emit spans through it.
package observability
