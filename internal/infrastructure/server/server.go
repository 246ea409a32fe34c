package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/docext/internal/api/http"
	"github.com/GriffinCanCode/docext/internal/api/middleware"
	"github.com/GriffinCanCode/docext/internal/api/ws"
	"github.com/GriffinCanCode/docext/internal/config"
	"github.com/GriffinCanCode/docext/internal/infrastructure/logging"
	"github.com/GriffinCanCode/docext/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docext/internal/infrastructure/tracing"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	stack   *Stack
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return NewServerWithLogger(cfg, logger)
}

// NewServerWithLogger creates a server that logs through logger
func NewServerWithLogger(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing docext server",
		zap.String("port", cfg.Server.Port),
		zap.String("catalog", cfg.Loader.Catalog),
	)

	// Metrics first, the loader stack reports into them
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("docext", logger.Logger)

	stack, err := NewStack(cfg, logger.Logger, metrics)
	if err != nil {
		tracer.Close()
		return nil, err
	}
	logger.Info("Library registry ready",
		zap.Int("libraries", stack.Registry.Len()),
		zap.Strings("ids", stack.Registry.IDs()),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := apihttp.NewHandlers(stack.Registry, stack.Coordinator, stack.Namespace, metrics, tracer, logger.Logger)
	handlers.Register(router)

	wsHandler := ws.NewHandler(stack.Coordinator, metrics, logger.Logger).WithOrigins(cfg.Server.AllowedOrigins...)
	router.GET("/stream", wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		stack:   stack,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stack returns the loading pipeline
func (s *Server) Stack() *Stack {
	return s.stack
}

// Run serves HTTP until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded
// by the configured shutdown timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases the namespace and flushes spans and logs
func (s *Server) Close() error {
	s.tracer.Close()

	var err error
	if cerr := s.stack.Close(); cerr != nil {
		s.logger.Error("Failed to close namespace", zap.Error(cerr))
		err = fmt.Errorf("failed to close namespace: %w", cerr)
	}

	s.logger.Sync()
	return err
}
