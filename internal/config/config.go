// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBISCAN_* environment
// variables.
type Config struct {
	Scanner  ScannerConfig  `toml:"scanner"`
	Fees     FeesConfig     `toml:"fees"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// ScannerConfig holds the screening and detection parameters.
type ScannerConfig struct {
	// Venues lists the exchanges to scan.
	Venues []string `toml:"venues"`
	// QuoteCurrencies is the allow-list of quote currencies a pair must
	// settle in to pass the liquidity filter.
	QuoteCurrencies []string `toml:"quote_currencies"`
	// MinQuoteVolume is the minimum 24h traded value in quote currency.
	MinQuoteVolume float64 `toml:"min_quote_volume"`
	// MaxSpreadPct is the maximum accepted relative spread in percent;
	// a spread exactly equal to the threshold passes.
	MaxSpreadPct float64 `toml:"max_spread_pct"`
	// FilterRefresh is the interval between liquidity re-screens.
	FilterRefresh duration `toml:"filter_refresh"`
	// MinNetProfitPct is the minimum fee-adjusted profit percent required
	// before either detector emits an opportunity.
	MinNetProfitPct float64 `toml:"min_net_profit_pct"`
	// TradeAmount is the fixed notional used to cost out candidates.
	TradeAmount float64 `toml:"trade_amount"`
	// CommonCoins restricts the triangular search to these currencies.
	CommonCoins []string `toml:"common_coins"`
	// TriangleInterval is the per-venue triangular scan period.
	TriangleInterval duration `toml:"triangle_interval"`
	// MaxStreams caps concurrently open order-book streams.
	MaxStreams int `toml:"max_streams"`
	// StreamBackoff is the wait before a dropped stream reconnects.
	StreamBackoff duration `toml:"stream_backoff"`
	// ReconcileInterval is how often new filtered symbols gain watchers.
	ReconcileInterval duration `toml:"reconcile_interval"`
}

// FeesConfig holds the per-venue taker fee table with a default fallback.
// Rates are fractions: 0.001 means 0.1%.
type FeesConfig struct {
	Default  float64            `toml:"default"`
	PerVenue map[string]float64 `toml:"per_venue"`
}

// RedisConfig holds connection parameters for the opportunity signal bus.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// PostgresConfig holds connection parameters for the opportunity audit store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	// Cooldown suppresses repeat alerts for the same event type. Zero
	// disables the rate limit.
	Cooldown duration `toml:"cooldown"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "30m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Scanner: ScannerConfig{
			Venues:            []string{"binance", "bybit"},
			QuoteCurrencies:   []string{"USDT", "USDC", "BTC"},
			MinQuoteVolume:    1_000_000,
			MaxSpreadPct:      0.5,
			FilterRefresh:     duration{30 * time.Minute},
			MinNetProfitPct:   0.2,
			TradeAmount:       0.01,
			CommonCoins:       []string{"BTC", "ETH", "USDT", "USDC", "BNB", "SOL", "ADA"},
			TriangleInterval:  duration{5 * time.Second},
			MaxStreams:        200,
			StreamBackoff:     duration{time.Second},
			ReconcileInterval: duration{time.Minute},
		},
		Fees: FeesConfig{
			Default: 0.001,
			PerVenue: map[string]float64{
				"binance": 0.001,
				"bybit":   0.001,
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			PoolSize: 20,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			RunMigrations: true,
		},
		Notify: NotifyConfig{
			Events:   []string{"opportunity_pairwise", "opportunity_triangular"},
			Cooldown: duration{time.Minute},
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"trade": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for invalid or missing values and returns a combined
// error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, trade)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	s := c.Scanner
	if len(s.Venues) == 0 {
		errs = append(errs, "scanner: venues must not be empty")
	}
	if len(s.QuoteCurrencies) == 0 {
		errs = append(errs, "scanner: quote_currencies must not be empty")
	}
	if s.MinQuoteVolume <= 0 {
		errs = append(errs, "scanner: min_quote_volume must be > 0")
	}
	if s.MaxSpreadPct <= 0 {
		errs = append(errs, "scanner: max_spread_pct must be > 0")
	}
	if s.FilterRefresh.Duration <= 0 {
		errs = append(errs, "scanner: filter_refresh must be > 0")
	}
	if s.MinNetProfitPct <= 0 {
		errs = append(errs, "scanner: min_net_profit_pct must be > 0")
	}
	if s.TradeAmount <= 0 {
		errs = append(errs, "scanner: trade_amount must be > 0")
	}
	if len(s.CommonCoins) < 3 {
		errs = append(errs, "scanner: common_coins needs at least 3 currencies for triangulation")
	}
	if s.TriangleInterval.Duration <= 0 {
		errs = append(errs, "scanner: triangle_interval must be > 0")
	}
	if s.MaxStreams < 1 {
		errs = append(errs, "scanner: max_streams must be >= 1")
	}
	if s.StreamBackoff.Duration <= 0 || s.StreamBackoff.Duration > 5*time.Second {
		errs = append(errs, "scanner: stream_backoff must be in (0s, 5s]")
	}
	if s.ReconcileInterval.Duration <= 0 {
		errs = append(errs, "scanner: reconcile_interval must be > 0")
	}

	if c.Fees.Default < 0 || c.Fees.Default >= 1 {
		errs = append(errs, "fees: default must be in [0, 1)")
	}
	for venue, rate := range c.Fees.PerVenue {
		if rate < 0 || rate >= 1 {
			errs = append(errs, fmt.Sprintf("fees: per_venue[%s] must be in [0, 1), got %v", venue, rate))
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}
	if c.Postgres.Enabled && strings.TrimSpace(c.Postgres.DSN) == "" {
		errs = append(errs, "postgres: dsn must not be empty when enabled")
	}
	if c.Notify.Cooldown.Duration < 0 {
		errs = append(errs, "notify: cooldown must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
