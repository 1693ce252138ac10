// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mbd888/fraudscope/internal/config"
	"github.com/mbd888/fraudscope/internal/dataset"
	"github.com/mbd888/fraudscope/internal/health"
	"github.com/mbd888/fraudscope/internal/logging"
	"github.com/mbd888/fraudscope/internal/metrics"
	"github.com/mbd888/fraudscope/internal/model"
	"github.com/mbd888/fraudscope/internal/ratelimit"
	"github.com/mbd888/fraudscope/internal/realtime"
	"github.com/mbd888/fraudscope/internal/traces"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	artifact    *model.Artifact
	store       dataset.Store
	hub         *realtime.Hub
	healthReg   *health.Registry
	rateLimiter *ratelimit.Limiter
	db          *sql.DB // nil if using file storage
	router      *gin.Engine
	httpSrv     *http.Server
	logger      *slog.Logger
	shutdownOTel func(context.Context) error
	cancelRun   context.CancelFunc

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithArtifact sets a pre-loaded model artifact (for testing)
func WithArtifact(a *model.Artifact) Option {
	return func(s *Server) {
		s.artifact = a
	}
}

// WithStore sets a custom dataset store (for testing)
func WithStore(st dataset.Store) Option {
	return func(s *Server) {
		s.store = st
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set artifact/store/logger)
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Model bundle: loaded once, shared read-only across requests
	if s.artifact == nil {
		a, err := model.LoadArtifact(cfg.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("load model artifact: %w", err)
		}
		s.artifact = a
		s.logger.Info("model artifact loaded",
			"path", cfg.ModelPath,
			"categorical_cols", a.CategoricalCols,
		)
	}

	// Dataset storage (Postgres if DATABASE_URL set, otherwise the processed file)
	if s.store == nil {
		if cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)

			if err := db.Ping(); err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			s.db = db
			s.store = dataset.NewPostgresStore(db)
			s.logger.Info("using PostgreSQL dataset storage")
		} else {
			s.store = dataset.NewFileStore(cfg.ProcessedPath)
			s.logger.Info("using file dataset storage", "path", cfg.ProcessedPath)
		}
	}

	s.hub = realtime.NewHub(logging.Component(s.logger, "realtime"))

	s.rateLimiter = ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitRPS * 60,
		BurstSize:         cfg.RateLimitRPS,
		CleanupInterval:   time.Minute,
	})

	s.healthReg = health.NewRegistry()
	s.healthReg.Register("model", s.modelChecker())
	s.healthReg.Register("dataset", s.datasetChecker())
	if s.db != nil {
		s.healthReg.Register("database", s.databaseChecker())
	}

	shutdownOTel, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	s.shutdownOTel = shutdownOTel

	s.setupRouter()
	s.healthy.Store(true)

	return s, nil
}

func (s *Server) setupRouter() {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestIDMiddleware())
	router.Use(s.loggingMiddleware())
	router.Use(metrics.Middleware())
	router.MaxMultipartMemory = s.cfg.MaxUploadBytes

	router.GET("/healthz", s.livenessHandler)
	router.GET("/readyz", s.readinessHandler)
	router.GET("/health", s.healthHandler)
	router.GET("/metrics", metrics.Handler())
	router.GET("/ws", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	api := router.Group("/api/v1")
	api.Use(s.rateLimiter.Middleware())
	{
		api.GET("/raw/files", s.listRawFilesHandler)
		api.GET("/raw/files/:name", s.rawFileHandler)

		api.GET("/features", s.featuresHandler)
		api.GET("/features/summary", s.featureSummaryHandler)

		api.POST("/predict", s.predictHandler)

		api.GET("/score/template", s.templateHandler)
		api.POST("/score/batch", s.scoreBatchHandler)
	}

	s.router = router
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			b := make([]byte, 8)
			rand.Read(b)
			reqID = hex.EncodeToString(b)
		}
		c.Header("X-Request-ID", reqID)
		ctx := logging.WithRequestID(c.Request.Context(), reqID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logging.L(c.Request.Context()).Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Run starts the server and blocks until shutdown
func (s *Server) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	go s.hub.Run(runCtx)

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.rateLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var firstErr error
	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.shutdownOTel != nil {
		if err := s.shutdownOTel(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.logger.Info("server stopped")
	return firstErr
}

// Router exposes the gin engine (for tests)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Health handlers

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) healthHandler(c *gin.Context) {
	healthy, statuses := s.healthReg.CheckAll(c.Request.Context())
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"healthy": healthy, "subsystems": statuses})
}

func (s *Server) modelChecker() health.Checker {
	return func(ctx context.Context) health.Status {
		if s.artifact == nil || s.artifact.Model == nil {
			return health.Unhealthy("model", "artifact not loaded")
		}
		if err := s.artifact.Model.Validate(); err != nil {
			return health.Unhealthy("model", err.Error())
		}
		return health.Healthy("model", "")
	}
}

func (s *Server) datasetChecker() health.Checker {
	return func(ctx context.Context) health.Status {
		n, err := s.store.Count(ctx)
		if err != nil && !errors.Is(err, dataset.ErrEmptyDataset) {
			return health.Unhealthy("dataset", err.Error())
		}
		// An empty dataset is healthy; browsing endpoints report it as 404.
		return health.Healthy("dataset", fmt.Sprintf("%d rows", n))
	}
}

func (s *Server) databaseChecker() health.Checker {
	return func(ctx context.Context) health.Status {
		if err := s.db.PingContext(ctx); err != nil {
			return health.Unhealthy("database", err.Error())
		}
		return health.Healthy("database", "")
	}
}
