package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanchen0/depthview/internal/domain"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "empty venue set",
			mutate:  func(c *Config) { c.Venues.Selected = nil },
			wantMsg: "selected must not be empty",
		},
		{
			name:    "unknown venue",
			mutate:  func(c *Config) { c.Venues.Selected = []string{"kraken"} },
			wantMsg: `unknown venue "kraken"`,
		},
		{
			name:    "non-fixed window",
			mutate:  func(c *Config) { c.Aggregation.Window = duration{30 * time.Second} },
			wantMsg: "window",
		},
		{
			name:    "missing symbol for selected venue",
			mutate:  func(c *Config) { c.Venues.Binance.Symbol = "" },
			wantMsg: "binance.symbol",
		},
		{
			name:    "bad snapshot limit",
			mutate:  func(c *Config) { c.Aggregation.SnapshotLimit = 0 },
			wantMsg: "snapshot_limit",
		},
		{
			name: "redis enabled without addr",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Addr = ""
			},
			wantMsg: "redis: addr",
		},
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantMsg: "port must be 1-65535",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantMsg: "log_level",
		},
		{
			name:    "telegram token without chat id",
			mutate:  func(c *Config) { c.Notify.TelegramToken = "12345:abc" },
			wantMsg: "telegram_token and telegram_chat_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[venues]
selected = ["bybit"]

[aggregation]
window = "15m"
realtime = false
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"bybit"}, cfg.Venues.Selected)
	assert.Equal(t, 15*time.Minute, cfg.Aggregation.Window.Duration)
	assert.False(t, cfg.Aggregation.Realtime)
	// Untouched sections keep their defaults.
	assert.Equal(t, "BTCUSDT", cfg.Venues.Bybit.Symbol)
	assert.Equal(t, 8000, cfg.Server.Port)

	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEPTHVIEW_VENUES_SELECTED", "binance, okx ,bybit")
	t.Setenv("DEPTHVIEW_AGGREGATION_WINDOW", "1h")
	t.Setenv("DEPTHVIEW_AGGREGATION_REALTIME", "false")
	t.Setenv("DEPTHVIEW_SERVER_PORT", "9100")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	assert.Equal(t, []string{"binance", "okx", "bybit"}, cfg.Venues.Selected)
	assert.Equal(t, time.Hour, cfg.Aggregation.Window.Duration)
	assert.False(t, cfg.Aggregation.Realtime)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestConfigAccessors(t *testing.T) {
	cfg := Defaults()
	cfg.Venues.Selected = []string{"Binance", "OKX"}

	assert.Equal(t, []domain.VenueID{"binance", "okx"}, cfg.SelectedVenueIDs())
	assert.Equal(t, domain.Window5m, cfg.Window())
	assert.Equal(t, "BTC-USDT", cfg.Symbols()["okx"])
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Notify.TelegramToken = "12345:abc"

	out := RedactedConfig(&cfg)

	assert.Equal(t, "***", out.Redis.Password)
	assert.Equal(t, "***", out.Notify.TelegramToken)
	assert.Empty(t, out.Notify.DiscordWebhookURL)
	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Redis.Password)
}
