package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmorales/arbiscan/internal/cache/redis"
	"github.com/jmorales/arbiscan/internal/config"
	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/executor"
	"github.com/jmorales/arbiscan/internal/notify"
	"github.com/jmorales/arbiscan/internal/store/postgres"
	"github.com/jmorales/arbiscan/internal/venue"
)

// Dependencies bundles everything the scanner core needs: the venue clients
// with their loaded catalogs plus the optional opportunity sinks. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Clients maps venue name to its market-data client. Only venues that
	// initialized and loaded their catalog successfully appear here.
	Clients map[string]domain.MarketDataClient
	// Markets maps venue name to its catalog symbol set.
	Markets map[string]map[string]bool

	// Optional sinks; each may be nil.
	Bus      domain.SignalBus
	OppStore domain.OpportunityStore
	Notifier *notify.Notifier
	Exec     domain.ExecutionClient
}

// Wire constructs the concrete dependencies from the configuration. A venue
// that fails to initialize or load its catalog is excluded and logged; the
// scanner proceeds with the remainder. Zero surviving venues is fatal.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Clients: make(map[string]domain.MarketDataClient),
		Markets: make(map[string]map[string]bool),
	}

	// --- Venues ---
	for _, name := range cfg.Scanner.Venues {
		client, err := venue.New(name, logger)
		if err != nil {
			logger.Error("venue init failure, excluding venue",
				slog.String("venue", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		markets, err := client.LoadMarkets(ctx)
		if err != nil {
			logger.Error("venue init failure, excluding venue",
				slog.String("venue", name),
				slog.String("error", err.Error()),
			)
			continue
		}
		catalog := make(map[string]bool, len(markets))
		for _, m := range markets {
			catalog[m.Symbol] = true
		}
		deps.Clients[name] = client
		deps.Markets[name] = catalog
		logger.Info("venue init success",
			slog.String("venue", name),
			slog.Int("markets", len(markets)),
		)
	}
	if len(deps.Clients) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", domain.ErrNoVenues)
	}

	// --- Redis signal bus ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Bus = redis.NewSignalBus(redisClient)
	}

	// --- PostgreSQL audit store ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{DSN: cfg.Postgres.DSN})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.OppStore = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, cfg.Notify.Cooldown.Duration, logger)
	}

	// --- Execution ---
	if cfg.Mode == "trade" {
		deps.Exec = executor.NewPaper(logger)
	}

	return deps, cleanup, nil
}
