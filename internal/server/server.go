package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/RodolfoParada/middleware-express/internal/cache"
	"github.com/RodolfoParada/middleware-express/internal/config"
	"github.com/RodolfoParada/middleware-express/internal/i18n"
	"github.com/RodolfoParada/middleware-express/internal/middleware"
	"github.com/RodolfoParada/middleware-express/internal/observability"
	"github.com/RodolfoParada/middleware-express/internal/ratelimit"
	"github.com/RodolfoParada/middleware-express/internal/util"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Server is the demo HTTP server.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	logger  observability.Logger
	metrics *observability.Metrics
	tracer  trace.TracerProvider
	clock   util.Clock

	cache    *cache.ResponseCache
	limiters map[string]*ratelimit.FixedWindowLimiter
	catalog  *i18n.Catalog
	store    *Store

	httpServer *http.Server
	mu         sync.RWMutex
	running    bool
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics overrides the metrics instance built from configuration.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithTracerProvider sets the tracer provider passed to the cache.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp
	}
}

// WithClock sets the clock shared by the limiters, the cache, and request
// timestamps.
func WithClock(clock util.Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithStore replaces the seeded in-memory store.
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// New builds the server and its routes from cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		cfg:      cfg,
		logger:   observability.NopLogger(),
		clock:    util.SystemClock{},
		limiters: make(map[string]*ratelimit.FixedWindowLimiter),
		store:    NewStore(),
	}
	if cfg.Metrics.Enabled {
		s.metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	for _, opt := range opts {
		opt(s)
	}

	s.catalog = i18n.Default()
	s.catalog.SetFallback(language.Make(cfg.I18n.DefaultLanguage))

	rc, err := cache.New(cfg.Cache.TTL.Duration(),
		cache.WithClock(s.clock),
		cache.WithLogger(s.logger),
		cache.WithMetrics(s.metrics),
		cache.WithTracerProvider(s.tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	s.cache = rc

	s.engine = gin.New()
	if err := s.engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	if err := s.setupRoutes(); err != nil {
		s.stopComponents()
		return nil, err
	}

	return s, nil
}

// limiter returns the limiter for a route, creating it from the configured quota.
func (s *Server) limiter(method, path string) (gin.HandlerFunc, error) {
	name := config.RouteKey(method, path)

	l, err := ratelimit.NewFixedWindowLimiter(
		s.cfg.RateLimit.QuotaFor(method, path).Limiter(),
		ratelimit.WithClock(s.clock),
		ratelimit.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter for %s: %w", name, err)
	}
	s.limiters[name] = l

	return middleware.RateLimitWithConfig(middleware.RateLimitConfig{
		Limiter: l,
		Name:    name,
		Logger:  s.logger,
		Metrics: s.metrics,
	}), nil
}

// setupRoutes installs the global chain and every route.
func (s *Server) setupRoutes() error {
	h := &handlers{store: s.store, token: s.cfg.Auth.Token, startTime: s.clock.Now()}

	s.engine.Use(
		middleware.LifecycleWithClock(s.clock),
		middleware.RequestID(),
	)
	if s.cfg.Security.Headers {
		s.engine.Use(middleware.SecurityHeaders())
	}
	if s.cfg.Security.CORS.Enabled {
		s.engine.Use(middleware.CORSWithConfig(corsConfig(s.cfg.Security.CORS)))
	}
	s.engine.Use(
		middleware.Localize(s.catalog),
		middleware.RecoveryWithConfig(middleware.RecoveryConfig{
			Logger:           s.logger,
			EnableStackTrace: true,
			ExposeErrors:     s.cfg.Server.ExposeErrors,
		}),
		middleware.AccessLogWithConfig(middleware.LoggingConfig{
			Logger:          s.logger,
			SkipPaths:       []string{s.cfg.Metrics.Path},
			SkipHealthCheck: true,
		}),
		middleware.HTTPMetrics(s.metrics),
	)
	if s.cfg.Server.MaxRequestBodySize > 0 {
		s.engine.Use(s.maxRequestBodySizeMiddleware())
	}

	useJSONFieldNames()

	cacheCfg := middleware.CacheConfig{Cache: s.cache, Logger: s.logger}
	cacheResponse := middleware.CacheResponseWithConfig(cacheCfg)
	invalidateCache := middleware.InvalidateCacheWithConfig(cacheCfg)
	requireBearer := RequireBearer(s.cfg.Auth.Token)
	requireWrite := RequirePermission(PermissionWrite)

	limited := []struct {
		method   string
		path     string
		handlers []gin.HandlerFunc
	}{
		{http.MethodGet, "/", []gin.HandlerFunc{h.info}},
		{http.MethodPost, "/auth/login", []gin.HandlerFunc{h.login}},
		{http.MethodGet, "/api/usuarios", []gin.HandlerFunc{requireBearer, cacheResponse, h.listUsers}},
		{http.MethodGet, "/api/productos", []gin.HandlerFunc{requireBearer, cacheResponse, h.listProducts}},
	}
	for _, r := range limited {
		rl, err := s.limiter(r.method, r.path)
		if err != nil {
			return err
		}
		s.engine.Handle(r.method, r.path, append([]gin.HandlerFunc{rl}, r.handlers...)...)
	}

	s.engine.POST("/api/usuarios", requireBearer, requireWrite, invalidateCache, h.createUser)
	s.engine.POST("/api/productos", requireBearer, requireWrite, invalidateCache, h.createProduct)

	s.engine.GET("/health", h.health)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.engine.GET(s.cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	s.engine.NoRoute(h.notFound)

	return nil
}

// Reload applies the hot-reloadable parts of cfg: route quotas, cache ttl,
// and log level. Open rate limit windows and cached entries keep their end
// times. Settings bound at startup (listener, auth token, security headers,
// metrics, tracing) are reported and otherwise ignored. cfg is validated
// first and nothing is applied when it is invalid.
func (s *Server) Reload(cfg *config.Config) error {
	if err := config.ValidateConfig(cfg); err != nil {
		s.metrics.RecordConfigReload(false)
		return fmt.Errorf("invalid configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quotas := make(map[string]ratelimit.Config, len(s.limiters))
	for name := range s.limiters {
		method, path, _ := strings.Cut(name, " ")
		quota := cfg.RateLimit.QuotaFor(method, path).Limiter()
		if err := quota.Validate(); err != nil {
			s.metrics.RecordConfigReload(false)
			return fmt.Errorf("invalid rate limit for %s: %w", name, err)
		}
		quotas[name] = quota
	}
	for name, l := range s.limiters {
		if err := l.UpdateConfig(quotas[name]); err != nil {
			s.metrics.RecordConfigReload(false)
			return fmt.Errorf("failed to update rate limiter for %s: %w", name, err)
		}
	}

	if err := s.cache.SetTTL(cfg.Cache.TTL.Duration()); err != nil {
		s.metrics.RecordConfigReload(false)
		return fmt.Errorf("failed to update cache ttl: %w", err)
	}

	if err := observability.SetLevel(s.logger, cfg.Logging.Level); err != nil && !errors.Is(err, observability.ErrLevelFixed) {
		s.metrics.RecordConfigReload(false)
		return fmt.Errorf("failed to update log level: %w", err)
	}

	if restart := restartRequired(s.cfg, cfg); len(restart) > 0 {
		s.logger.Warn("configuration changes require a restart",
			observability.Any("sections", restart),
		)
	}

	s.cfg = cfg
	s.metrics.RecordConfigReload(true)
	s.logger.Info("configuration reloaded",
		observability.Int("limiters", len(s.limiters)),
		observability.Duration("cacheTTL", cfg.Cache.TTL.Duration()),
	)
	return nil
}

// restartRequired lists the sections that differ between old and updated
// and are only read at startup.
func restartRequired(old, updated *config.Config) []string {
	var sections []string
	if !reflect.DeepEqual(old.Server, updated.Server) {
		sections = append(sections, "server")
	}
	if old.Logging.Format != updated.Logging.Format || old.Logging.Output != updated.Logging.Output {
		sections = append(sections, "logging")
	}
	if old.Auth != updated.Auth {
		sections = append(sections, "auth")
	}
	if old.I18n != updated.I18n {
		sections = append(sections, "i18n")
	}
	if old.Metrics != updated.Metrics {
		sections = append(sections, "metrics")
	}
	if old.Tracing != updated.Tracing {
		sections = append(sections, "tracing")
	}
	if !reflect.DeepEqual(old.Security, updated.Security) {
		sections = append(sections, "security")
	}
	return sections
}

// corsConfig fills unset CORS fields with the middleware defaults.
func corsConfig(cfg config.CORSConfig) middleware.CORSConfig {
	out := middleware.DefaultCORSConfig()
	if len(cfg.AllowOrigins) > 0 {
		out.AllowOrigins = cfg.AllowOrigins
	}
	if len(cfg.AllowMethods) > 0 {
		out.AllowMethods = cfg.AllowMethods
	}
	if len(cfg.AllowHeaders) > 0 {
		out.AllowHeaders = cfg.AllowHeaders
	}
	if len(cfg.ExposeHeaders) > 0 {
		out.ExposeHeaders = cfg.ExposeHeaders
	}
	out.AllowCredentials = cfg.AllowCredentials
	out.MaxAge = int(cfg.MaxAge.Duration().Seconds())
	return out
}

// maxRequestBodySizeMiddleware returns a middleware that limits request body size.
func (s *Server) maxRequestBodySizeMiddleware() gin.HandlerFunc {
	limit := s.cfg.Server.MaxRequestBodySize
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Cache returns the response cache.
func (s *Server) Cache() *cache.ResponseCache {
	return s.cache
}

// Metrics returns the metrics instance, or nil when metrics are disabled.
func (s *Server) Metrics() *observability.Metrics {
	return s.metrics
}

// Start starts the sweepers and serves HTTP until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	srv, err := s.prepare()
	if err != nil {
		return err
	}
	return s.serve(srv)
}

// prepare builds the http.Server and marks the server running.
func (s *Server) prepare() (*http.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Address, s.cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  s.cfg.Server.IdleTimeout.Duration(),
	}
	s.running = true

	return s.httpServer, nil
}

func (s *Server) serve(srv *http.Server) error {
	s.startSweepers()

	s.logger.Info("starting HTTP server",
		observability.String("address", srv.Addr),
		observability.Duration("readTimeout", srv.ReadTimeout),
		observability.Duration("writeTimeout", srv.WriteTimeout),
		observability.Duration("cacheTTL", s.cache.TTL()),
	)

	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.stopComponents()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *Server) startSweepers() {
	if interval := s.cfg.RateLimit.SweepInterval.Duration(); interval > 0 {
		for _, l := range s.limiters {
			l.StartSweeper(interval)
		}
	}
	if interval := s.cfg.Cache.SweepInterval.Duration(); interval > 0 {
		s.cache.StartSweeper(interval)
	}
}

func (s *Server) stopComponents() {
	for _, l := range s.limiters {
		l.Stop()
	}
	s.cache.Stop()
}

// Stop stops the HTTP server gracefully and stops the sweepers.
func (s *Server) Stop(ctx context.Context) error {
	defer s.stopComponents()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// shutdownTimeout bounds graceful shutdown when callers pass no deadline.
const shutdownTimeout = 30 * time.Second

// Run starts the server and stops it when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv, err := s.prepare()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.serve(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Stop(stopCtx); err != nil {
		return err
	}
	return <-errCh
}
