package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/domain/loader"
	"github.com/GriffinCanCode/docext/internal/domain/registry"
	"github.com/GriffinCanCode/docext/internal/infrastructure/tracing"
)

// LibraryView is a descriptor with its current load state
type LibraryView struct {
	registry.Descriptor
	State loader.State `json:"state"`
}

func (h *Handlers) view(desc registry.Descriptor) LibraryView {
	return LibraryView{Descriptor: desc, State: h.loader.State(desc.ID)}
}

// ListLibraries lists every registered library
func (h *Handlers) ListLibraries(c *gin.Context) {
	descs := h.registry.List()
	views := make([]LibraryView, 0, len(descs))
	for _, d := range descs {
		views = append(views, h.view(d))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"libraries": views,
	})
}

// GetLibrary returns one library
func (h *Handlers) GetLibrary(c *gin.Context) {
	desc, ok := h.registry.Describe(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, loader.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"library": h.view(desc),
	})
}

// LoadLibrary ensures a library is loaded and waits for the outcome
func (h *Handlers) LoadLibrary(c *gin.Context) {
	libID := c.Param("id")
	ctx := c.Request.Context()

	if err := h.loader.EnsureLoaded(ctx, libID); err != nil {
		tracing.Logger(ctx, h.logger).Info("load request failed",
			zap.String("library", libID),
			zap.Error(err),
		)
		fail(c, loadStatus(err), err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"library": libID,
		"state":   h.loader.State(libID),
	})
}
