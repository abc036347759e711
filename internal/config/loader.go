package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEPTHVIEW_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEPTHVIEW_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators adjust deployments without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Venues ──
	setStringSlice(&cfg.Venues.Selected, "DEPTHVIEW_VENUES_SELECTED")
	setStr(&cfg.Venues.Binance.Symbol, "DEPTHVIEW_VENUES_BINANCE_SYMBOL")
	setStr(&cfg.Venues.Binance.BaseURL, "DEPTHVIEW_VENUES_BINANCE_BASE_URL")
	setStr(&cfg.Venues.Binance.WSURL, "DEPTHVIEW_VENUES_BINANCE_WS_URL")
	setStr(&cfg.Venues.OKX.Symbol, "DEPTHVIEW_VENUES_OKX_SYMBOL")
	setStr(&cfg.Venues.OKX.BaseURL, "DEPTHVIEW_VENUES_OKX_BASE_URL")
	setStr(&cfg.Venues.OKX.WSURL, "DEPTHVIEW_VENUES_OKX_WS_URL")
	setStr(&cfg.Venues.Bybit.Symbol, "DEPTHVIEW_VENUES_BYBIT_SYMBOL")
	setStr(&cfg.Venues.Bybit.BaseURL, "DEPTHVIEW_VENUES_BYBIT_BASE_URL")
	setStr(&cfg.Venues.Bybit.WSURL, "DEPTHVIEW_VENUES_BYBIT_WS_URL")

	// ── Aggregation ──
	setDuration(&cfg.Aggregation.Window, "DEPTHVIEW_AGGREGATION_WINDOW")
	setBool(&cfg.Aggregation.Realtime, "DEPTHVIEW_AGGREGATION_REALTIME")
	setBool(&cfg.Aggregation.ZonesEnabled, "DEPTHVIEW_AGGREGATION_ZONES_ENABLED")
	setInt(&cfg.Aggregation.SnapshotLimit, "DEPTHVIEW_AGGREGATION_SNAPSHOT_LIMIT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "DEPTHVIEW_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "DEPTHVIEW_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEPTHVIEW_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEPTHVIEW_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEPTHVIEW_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEPTHVIEW_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DEPTHVIEW_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DEPTHVIEW_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DEPTHVIEW_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEPTHVIEW_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DEPTHVIEW_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DEPTHVIEW_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEPTHVIEW_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DEPTHVIEW_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "DEPTHVIEW_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
