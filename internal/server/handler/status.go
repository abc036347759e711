package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ryanchen0/depthview/internal/domain"
	"github.com/ryanchen0/depthview/internal/session"
)

// Session defines the methods the session handlers require from the session
// controller.
type Session interface {
	Status() (domain.Status, string)
	SessionID() string
	Config() session.Config
	Reconnect(ctx context.Context) error
	SetVenues(ctx context.Context, venues []domain.VenueID) error
	SetWindow(ctx context.Context, w domain.Window)
	SetRealtime(realtime bool)
	SetZonesEnabled(ctx context.Context, enabled bool)
}

// VenueLister exposes the set of registered venue adapters.
type VenueLister interface {
	List() []domain.VenueID
}

// SessionHandler serves session status and control endpoints.
type SessionHandler struct {
	session Session
	venues  VenueLister
	logger  *slog.Logger
}

// NewSessionHandler creates a SessionHandler with the given controller,
// venue registry, and logger.
func NewSessionHandler(sess Session, venues VenueLister, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		session: sess,
		venues:  venues,
		logger:  logger,
	}
}

// statusResponse is the JSON shape returned by GetStatus and the control
// endpoints.
type statusResponse struct {
	SessionID    string           `json:"session_id"`
	Status       domain.Status    `json:"status"`
	Error        string           `json:"error,omitempty"`
	Venues       []domain.VenueID `json:"venues"`
	Window       string           `json:"window"`
	Mode         string           `json:"mode"`
	ZonesEnabled bool             `json:"zones_enabled"`
}

func (h *SessionHandler) snapshot() statusResponse {
	status, errMsg := h.session.Status()
	cfg := h.session.Config()

	mode := "batched"
	if cfg.Realtime {
		mode = "realtime"
	}

	return statusResponse{
		SessionID:    h.session.SessionID(),
		Status:       status,
		Error:        errMsg,
		Venues:       cfg.Venues,
		Window:       cfg.Window.String(),
		Mode:         mode,
		ZonesEnabled: cfg.ZonesEnabled,
	}
}

// GetStatus responds with the current session state and aggregation policy.
// GET /api/status
func (h *SessionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

// Reconnect tears the session down and rebuilds it with the current venue
// set. This is the only recovery action for a session in the error state.
// POST /api/reconnect
func (h *SessionHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reconnect(r.Context()); err != nil {
		if errors.Is(err, domain.ErrSessionClosed) {
			writeError(w, http.StatusConflict, "session is closed")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: reconnect failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "reconnect failed")
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot())
}

// updateConfigRequest carries the mutable session settings. Absent fields
// leave the current setting untouched.
type updateConfigRequest struct {
	Venues       []string `json:"venues"`
	Window       string   `json:"window"`
	Mode         string   `json:"mode"`
	ZonesEnabled *bool    `json:"zones_enabled"`
}

// UpdateConfig applies a partial update to the session's aggregation policy.
// Window, mode, and zone changes take effect without a reconnect; a venue
// change always rebuilds every stream.
// PUT /api/config
func (h *SessionHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var window domain.Window
	if req.Window != "" {
		var err error
		window, err = domain.ParseWindow(req.Window)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid window: must be one of 1m, 5m, 15m, 1h")
			return
		}
	}

	switch req.Mode {
	case "", "realtime", "batched":
	default:
		writeError(w, http.StatusBadRequest, "invalid mode: must be realtime or batched")
		return
	}

	var venues []domain.VenueID
	if len(req.Venues) > 0 {
		registered := make(map[domain.VenueID]bool)
		for _, id := range h.venues.List() {
			registered[id] = true
		}
		for _, name := range req.Venues {
			id := domain.VenueID(name)
			if !registered[id] {
				writeError(w, http.StatusBadRequest, "unknown venue: "+name)
				return
			}
			venues = append(venues, id)
		}
	}

	if req.Window != "" {
		h.session.SetWindow(r.Context(), window)
	}
	if req.Mode != "" {
		h.session.SetRealtime(req.Mode == "realtime")
	}
	if req.ZonesEnabled != nil {
		h.session.SetZonesEnabled(r.Context(), *req.ZonesEnabled)
	}
	if len(venues) > 0 {
		if err := h.session.SetVenues(r.Context(), venues); err != nil {
			if errors.Is(err, domain.ErrSessionClosed) {
				writeError(w, http.StatusConflict, "session is closed")
				return
			}
			h.logger.ErrorContext(r.Context(), "handler: venue change failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "venue change failed")
			return
		}
	}

	writeJSON(w, http.StatusOK, h.snapshot())
}
