package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ryanchen0/depthview/internal/server/handler"
	"github.com/ryanchen0/depthview/internal/server/middleware"
	"github.com/ryanchen0/depthview/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health  *handler.HealthHandler
	View    *handler.ViewHandler
	Session *handler.SessionHandler
	Venues  *handler.VenuesHandler
}

// Server is the HTTP + WebSocket API server exposing the depth session.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS) and attaches the WebSocket hub and
// the Prometheus handler.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, metricsHandler http.Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Aggregate view.
	mux.HandleFunc("GET /api/view", handlers.View.GetView)

	// Session status and control.
	mux.HandleFunc("GET /api/status", handlers.Session.GetStatus)
	mux.HandleFunc("POST /api/reconnect", handlers.Session.Reconnect)
	mux.HandleFunc("PUT /api/config", handlers.Session.UpdateConfig)

	// Venue registry.
	mux.HandleFunc("GET /api/venues", handlers.Venues.ListVenues)

	// Prometheus metrics.
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	// WebSocket view feed.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
