package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docext/internal/providers/sandbox"
	"github.com/GriffinCanCode/docext/internal/shared/id"
	"github.com/GriffinCanCode/docext/internal/shared/utils"
)

// ExecuteRequest is a snippet and the libraries it needs
type ExecuteRequest struct {
	Requires []string `json:"requires"`
	Script   string   `json:"script" binding:"required"`
}

// ExecuteSnippet loads a snippet's libraries, then runs it
func (h *Handlers) ExecuteSnippet(c *gin.Context) {
	var req ExecuteRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxRequestSize)
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}
	if err := validateRequest(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	runID := id.NewRunID()
	span, ctx := h.tracer.StartSpan(c.Request.Context(), "snippet.execute")
	span.SetTag("run_id", runID.String())
	defer func() {
		span.Finish()
		h.tracer.Submit(span)
	}()
	logger := tracing.Logger(ctx, h.logger).With(zap.String("run_id", runID.String()))

	if err := h.loader.EnsureAll(ctx, req.Requires...); err != nil {
		span.SetError(err)
		h.metrics.RecordSnippet("load_failed", 0)
		logger.Info("snippet dependencies failed to load", zap.Strings("requires", req.Requires), zap.Error(err))
		fail(c, loadStatus(err), err)
		return
	}

	result, err := h.sandbox.Run(ctx, req.Script)
	var duration time.Duration
	if result != nil {
		duration = result.Duration
		h.sanitize(result)
	}

	if err != nil {
		span.SetError(err)
		h.metrics.RecordSnippet("error", duration)
		logger.Debug("snippet failed", zap.Error(err))

		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"run_id":  runID,
			"error":   h.policy.Sanitize(err.Error()),
			"result":  result,
		})
		return
	}

	h.metrics.RecordSnippet("ok", duration)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"run_id":  runID,
		"result":  result,
	})
}

func validateRequest(req ExecuteRequest) error {
	if err := utils.ValidateScript(req.Script); err != nil {
		return err
	}
	return utils.ValidateRequires(req.Requires)
}

// sanitize strips markup from console output before it reaches the document
func (h *Handlers) sanitize(result *sandbox.Result) {
	for i := range result.Console {
		result.Console[i].Message = h.policy.Sanitize(result.Console[i].Message)
	}
}
