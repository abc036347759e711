package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ryanchen0/depthview/internal/cache/redis"
	"github.com/ryanchen0/depthview/internal/config"
	"github.com/ryanchen0/depthview/internal/domain"
	"github.com/ryanchen0/depthview/internal/metrics"
	"github.com/ryanchen0/depthview/internal/session"
	"github.com/ryanchen0/depthview/internal/venue"
	"github.com/ryanchen0/depthview/internal/venue/binance"
	"github.com/ryanchen0/depthview/internal/venue/bybit"
	"github.com/ryanchen0/depthview/internal/venue/okx"
)

// publishTimeout bounds each Redis write so a slow cache never stalls an
// aggregation pass.
const publishTimeout = 2 * time.Second

// Dependencies bundles everything the application needs to run. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Registry        *venue.Registry
	Controller      *session.Controller
	Metrics         *metrics.Metrics
	MetricsRegistry *prometheus.Registry
	ViewCache       *redis.ViewCache
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Venue adapters ---
	// Every known venue is registered; the session only connects the
	// selected subset, so an unselected venue costs nothing.
	registry := venue.NewRegistry()
	registry.Register(binance.NewAdapter(binance.Config{
		BaseURL: cfg.Venues.Binance.BaseURL,
		WSURL:   cfg.Venues.Binance.WSURL,
	}, logger))
	registry.Register(okx.NewAdapter(okx.Config{
		BaseURL: cfg.Venues.OKX.BaseURL,
		WSURL:   cfg.Venues.OKX.WSURL,
	}, logger))
	registry.Register(bybit.NewAdapter(bybit.Config{
		BaseURL: cfg.Venues.Bybit.BaseURL,
		WSURL:   cfg.Venues.Bybit.WSURL,
	}, logger))
	deps.Registry = registry

	// --- Metrics ---
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.MetricsRegistry = promReg
	deps.Metrics = metrics.New(promReg)

	// --- Redis view cache (optional) ---
	var publish session.Publisher
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		viewCache := redis.NewViewCache(redisClient)
		deps.ViewCache = viewCache

		symbol := primarySymbol(cfg)
		publish = func(ctx context.Context, view domain.AggregateView) {
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			defer cancel()
			if err := viewCache.SetView(pctx, symbol, view); err != nil {
				logger.Warn("wire: view cache write failed",
					slog.String("error", err.Error()),
				)
				return
			}
			if err := viewCache.PublishView(pctx, symbol, view); err != nil {
				logger.Warn("wire: view publish failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	// --- Session controller ---
	deps.Controller = session.New(registry, session.Config{
		Venues:        cfg.SelectedVenueIDs(),
		Symbols:       cfg.Symbols(),
		Window:        cfg.Window(),
		Realtime:      cfg.Aggregation.Realtime,
		ZonesEnabled:  cfg.Aggregation.ZonesEnabled,
		SnapshotLimit: cfg.Aggregation.SnapshotLimit,
	}, deps.Metrics, publish, logger)

	return deps, cleanup, nil
}

// primarySymbol picks the Redis key under which views are cached: the native
// symbol of the first selected venue. Views span venues, but consumers key by
// the instrument they asked for.
func primarySymbol(cfg *config.Config) string {
	ids := cfg.SelectedVenueIDs()
	if len(ids) == 0 {
		return ""
	}
	return cfg.Symbols()[ids[0]]
}
