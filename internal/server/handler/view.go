package handler

import (
	"log/slog"
	"net/http"

	"github.com/ryanchen0/depthview/internal/domain"
)

// ViewSource provides the most recently published aggregate view. It is
// declared locally so the handler package does not depend on the concrete
// session controller.
type ViewSource interface {
	View() domain.AggregateView
}

// ViewHandler serves the current aggregate view.
type ViewHandler struct {
	views  ViewSource
	logger *slog.Logger
}

// NewViewHandler creates a ViewHandler with the given source and logger.
func NewViewHandler(views ViewSource, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		views:  views,
		logger: logger,
	}
}

// GetView returns the most recently published aggregate view. An idle or
// erroring session still returns a valid (possibly empty) view.
// GET /api/view
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.views.View())
}
