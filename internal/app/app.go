// Package app provides the top-level application lifecycle for the depth
// aggregation service. It wires together the venue registry, the session
// controller, the optional Redis view cache, and the HTTP + WebSocket server,
// and supervises them with an errgroup until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ryanchen0/depthview/internal/config"
	"github.com/ryanchen0/depthview/internal/notify"
	"github.com/ryanchen0/depthview/internal/server"
	"github.com/ryanchen0/depthview/internal/server/handler"
	"github.com/ryanchen0/depthview/internal/server/ws"
)

// shutdownTimeout bounds how long the HTTP server waits for in-flight
// requests on shutdown.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the session
// controller and the API server, and blocks until the context is cancelled.
// On return it runs all registered cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.Any("venues", a.cfg.Venues.Selected),
		slog.String("window", a.cfg.Window().String()),
		slog.Bool("realtime", a.cfg.Aggregation.Realtime),
		slog.String("log_level", a.cfg.LogLevel),
	)
	defer a.Close()

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	// Session controller: snapshots, streams, aggregation passes.
	g.Go(func() error {
		return deps.Controller.Run(ctx)
	})

	// Operator alerting on session state changes.
	var senders []notify.Sender
	if a.cfg.Notify.TelegramToken != "" && a.cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			a.cfg.Notify.TelegramToken,
			a.cfg.Notify.TelegramChatID,
		))
	}
	if a.cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(a.cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		notifier := notify.NewNotifier(senders, a.cfg.Notify.Events, a.logger)
		watcher := notify.NewSessionWatcher(deps.Controller, notifier, 5*time.Second, a.logger)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	// HTTP + WebSocket server.
	if a.cfg.Server.Enabled {
		hub := ws.NewHub(deps.Controller.Subscribe(), deps.Controller, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})

		handlers := server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			View:    handler.NewViewHandler(deps.Controller, a.logger),
			Session: handler.NewSessionHandler(deps.Controller, deps.Registry, a.logger),
			Venues:  handler.NewVenuesHandler(deps.Registry, a.logger),
		}
		metricsHandler := promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{})
		srv := server.NewServer(server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		}, handlers, hub, metricsHandler, a.logger)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("app: run: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
