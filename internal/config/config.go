// Package config defines the top-level configuration for the depth aggregator
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ryanchen0/depthview/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEPTHVIEW_* environment variables.
type Config struct {
	Venues      VenuesConfig      `toml:"venues"`
	Aggregation AggregationConfig `toml:"aggregation"`
	Redis       RedisConfig       `toml:"redis"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	LogLevel    string            `toml:"log_level"`
}

// VenuesConfig selects the active venues and holds per-venue endpoints.
type VenuesConfig struct {
	// Selected is the non-empty set of venues to aggregate. Changing it at
	// runtime always forces a full session restart.
	Selected []string `toml:"selected"`

	Binance VenueEndpoints `toml:"binance"`
	OKX     VenueEndpoints `toml:"okx"`
	Bybit   VenueEndpoints `toml:"bybit"`
}

// VenueEndpoints holds one venue's connection parameters. Symbols are
// venue-native: the same instrument is spelled differently per venue.
type VenueEndpoints struct {
	Symbol  string `toml:"symbol"`
	BaseURL string `toml:"base_url"`
	WSURL   string `toml:"ws_url"`
}

// AggregationConfig holds the windowing and processing policy.
type AggregationConfig struct {
	// Window is the trailing duration whose entries are current. Must be
	// one of 1m, 5m, 15m, 1h.
	Window duration `toml:"window"`

	// Realtime runs a full aggregation pass on every inbound batch. When
	// false, arrivals are staged and processed once per second.
	Realtime bool `toml:"realtime"`

	// ZonesEnabled gates pressure-zone detection entirely.
	ZonesEnabled bool `toml:"zones_enabled"`

	// SnapshotLimit is the depth requested from each venue's snapshot
	// endpoint.
	SnapshotLimit int `toml:"snapshot_limit"`
}

// RedisConfig holds Redis connection parameters for the optional view cache
// and pub/sub fan-out.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds operator alerting channels. With no channel configured,
// alerting is disabled.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`

	// Events filters which session events are delivered. Empty means all.
	Events []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "60s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "60s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// knownVenues enumerates venues with a registered adapter.
var knownVenues = map[string]bool{
	"binance": true,
	"okx":     true,
	"bybit":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Venues: VenuesConfig{
			Selected: []string{"binance", "okx"},
			Binance: VenueEndpoints{
				Symbol:  "BTCUSDT",
				BaseURL: "https://api.binance.com",
				WSURL:   "wss://stream.binance.com:9443/ws",
			},
			OKX: VenueEndpoints{
				Symbol:  "BTC-USDT",
				BaseURL: "https://www.okx.com",
				WSURL:   "wss://ws.okx.com:8443/ws/v5/public",
			},
			Bybit: VenueEndpoints{
				Symbol:  "BTCUSDT",
				BaseURL: "https://api.bybit.com",
				WSURL:   "wss://stream.bybit.com/v5/public/spot",
			},
		},
		Aggregation: AggregationConfig{
			Window:        duration{5 * time.Minute},
			Realtime:      true,
			ZonesEnabled:  true,
			SnapshotLimit: 100,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		LogLevel: "info",
	}
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venues
	if len(c.Venues.Selected) == 0 {
		errs = append(errs, "venues: selected must not be empty")
	}
	for _, v := range c.Venues.Selected {
		if !knownVenues[strings.ToLower(v)] {
			errs = append(errs, fmt.Sprintf("venues: unknown venue %q (valid: binance, okx, bybit)", v))
		}
	}
	for name, ep := range map[string]VenueEndpoints{
		"binance": c.Venues.Binance,
		"okx":     c.Venues.OKX,
		"bybit":   c.Venues.Bybit,
	} {
		if !c.venueSelected(name) {
			continue
		}
		if ep.Symbol == "" {
			errs = append(errs, fmt.Sprintf("venues: %s.symbol must not be empty", name))
		}
		if ep.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("venues: %s.base_url must not be empty", name))
		}
		if ep.WSURL == "" {
			errs = append(errs, fmt.Sprintf("venues: %s.ws_url must not be empty", name))
		}
	}

	// Aggregation
	if !domain.Window(c.Aggregation.Window.Duration).Valid() {
		errs = append(errs, fmt.Sprintf("aggregation: window %s is not one of 1m, 5m, 15m, 1h", c.Aggregation.Window))
	}
	if c.Aggregation.SnapshotLimit < 1 {
		errs = append(errs, "aggregation: snapshot_limit must be >= 1")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// venueSelected reports whether name is in the selected set.
func (c *Config) venueSelected(name string) bool {
	for _, v := range c.Venues.Selected {
		if strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}

// SelectedVenueIDs returns the selected venues as domain IDs, lowercased.
func (c *Config) SelectedVenueIDs() []domain.VenueID {
	ids := make([]domain.VenueID, 0, len(c.Venues.Selected))
	for _, v := range c.Venues.Selected {
		ids = append(ids, domain.VenueID(strings.ToLower(v)))
	}
	return ids
}

// Symbols returns the venue-native symbol for each known venue.
func (c *Config) Symbols() map[domain.VenueID]string {
	return map[domain.VenueID]string{
		"binance": c.Venues.Binance.Symbol,
		"okx":     c.Venues.OKX.Symbol,
		"bybit":   c.Venues.Bybit.Symbol,
	}
}

// Window returns the validated aggregation window.
func (c *Config) Window() domain.Window {
	return domain.Window(c.Aggregation.Window.Duration)
}
