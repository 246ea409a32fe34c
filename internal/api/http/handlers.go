package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/domain/loader"
	"github.com/GriffinCanCode/docext/internal/domain/registry"
	"github.com/GriffinCanCode/docext/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docext/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docext/internal/providers/sandbox"
)

// Handlers serves the library and snippet API
type Handlers struct {
	registry *registry.Registry
	loader   *loader.Coordinator
	sandbox  *sandbox.Namespace
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	policy   *bluemonday.Policy
	logger   *zap.Logger
	started  time.Time
}

// NewHandlers creates the API handlers
func NewHandlers(
	reg *registry.Registry,
	coord *loader.Coordinator,
	ns *sandbox.Namespace,
	metrics *monitoring.Metrics,
	tracer *tracing.Tracer,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry: reg,
		loader:   coord,
		sandbox:  ns,
		metrics:  metrics,
		tracer:   tracer,
		policy:   bluemonday.StrictPolicy(),
		logger:   logger.Named("api"),
		started:  time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/libraries", h.ListLibraries)
	r.GET("/libraries/:id", h.GetLibrary)
	r.POST("/libraries/:id/load", h.LoadLibrary)

	r.POST("/snippets/execute", h.ExecuteSnippet)

	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	r.GET("/metrics/json", h.MetricsJSON)
}

// Root describes the service
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "docext",
		"version": "1.0.0",
		"endpoints": []string{
			"GET /health",
			"GET /libraries",
			"GET /libraries/:id",
			"POST /libraries/:id/load",
			"POST /snippets/execute",
			"GET /stream",
			"GET /metrics",
		},
	})
}

// Health reports liveness and loader state
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"libraries": h.registry.Len(),
		"loaded":    h.loader.Loaded(),
	})
}

// MetricsJSON returns the metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"metrics": h.metrics.GetSnapshot(),
	})
}

// loadStatus maps a load error onto an HTTP status
func loadStatus(err error) int {
	var ierr *loader.InstallError
	switch {
	case errors.Is(err, loader.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ierr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
