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
// built-in defaults, applies ARBISCAN_* environment variable overrides, and
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

// applyEnvOverrides reads well-known ARBISCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML.
func applyEnvOverrides(cfg *Config) {
	// ── Scanner ──
	setStringSlice(&cfg.Scanner.Venues, "ARBISCAN_SCANNER_VENUES")
	setStringSlice(&cfg.Scanner.QuoteCurrencies, "ARBISCAN_SCANNER_QUOTE_CURRENCIES")
	setFloat64(&cfg.Scanner.MinQuoteVolume, "ARBISCAN_SCANNER_MIN_QUOTE_VOLUME")
	setFloat64(&cfg.Scanner.MaxSpreadPct, "ARBISCAN_SCANNER_MAX_SPREAD_PCT")
	setDuration(&cfg.Scanner.FilterRefresh, "ARBISCAN_SCANNER_FILTER_REFRESH")
	setFloat64(&cfg.Scanner.MinNetProfitPct, "ARBISCAN_SCANNER_MIN_NET_PROFIT_PCT")
	setFloat64(&cfg.Scanner.TradeAmount, "ARBISCAN_SCANNER_TRADE_AMOUNT")
	setStringSlice(&cfg.Scanner.CommonCoins, "ARBISCAN_SCANNER_COMMON_COINS")
	setDuration(&cfg.Scanner.TriangleInterval, "ARBISCAN_SCANNER_TRIANGLE_INTERVAL")
	setInt(&cfg.Scanner.MaxStreams, "ARBISCAN_SCANNER_MAX_STREAMS")
	setDuration(&cfg.Scanner.StreamBackoff, "ARBISCAN_SCANNER_STREAM_BACKOFF")
	setDuration(&cfg.Scanner.ReconcileInterval, "ARBISCAN_SCANNER_RECONCILE_INTERVAL")

	// ── Fees ──
	setFloat64(&cfg.Fees.Default, "ARBISCAN_FEES_DEFAULT")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBISCAN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBISCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBISCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBISCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBISCAN_REDIS_POOL_SIZE")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARBISCAN_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARBISCAN_POSTGRES_DSN")
	setBool(&cfg.Postgres.RunMigrations, "ARBISCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBISCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBISCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBISCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBISCAN_NOTIFY_EVENTS")
	setDuration(&cfg.Notify.Cooldown, "ARBISCAN_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBISCAN_MODE")
	setStr(&cfg.LogLevel, "ARBISCAN_LOG_LEVEL")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
