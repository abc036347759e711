package handler

import (
	"log/slog"
	"net/http"

	"github.com/ryanchen0/depthview/internal/domain"
)

// VenuesHandler serves the list of registered venue adapters.
type VenuesHandler struct {
	venues VenueLister
	logger *slog.Logger
}

// NewVenuesHandler creates a VenuesHandler with the given registry and logger.
func NewVenuesHandler(venues VenueLister, logger *slog.Logger) *VenuesHandler {
	return &VenuesHandler{
		venues: venues,
		logger: logger,
	}
}

// listVenuesResponse wraps the venue list.
type listVenuesResponse struct {
	Venues []domain.VenueID `json:"venues"`
}

// ListVenues returns every venue an adapter is registered for, sorted by name.
// GET /api/venues
func (h *VenuesHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listVenuesResponse{Venues: h.venues.List()})
}
