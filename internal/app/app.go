// Package app owns the application lifecycle: it wires the venue clients and
// opportunity sinks from configuration, starts the filter, feed, and detector
// goroutines, and blocks until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jmorales/arbiscan/internal/book"
	"github.com/jmorales/arbiscan/internal/config"
	"github.com/jmorales/arbiscan/internal/detector"
	"github.com/jmorales/arbiscan/internal/dispatch"
	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/feed"
	"github.com/jmorales/arbiscan/internal/filter"
	"github.com/jmorales/arbiscan/internal/profit"
)

// App is the root application object. It owns the configuration, logger, and
// the cleanup functions run in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies and runs the scanner until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting scanner",
		slog.String("mode", a.cfg.Mode),
		slog.Any("venues", a.cfg.Scanner.Venues),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	return a.runScanner(ctx, deps)
}

// runScanner assembles the detection pipeline and supervises its goroutines:
// the liquidity filter refresher, the stream feed manager, and one triangular
// scanner per venue. The initial liquidity screen completes before any
// subscriptions start.
func (a *App) runScanner(ctx context.Context, deps *Dependencies) error {
	s := a.cfg.Scanner

	store := book.NewStore()
	universe := filter.NewUniverse()
	model := profit.NewModel(a.cfg.Fees.PerVenue, a.cfg.Fees.Default, s.TradeAmount)

	dispatcher := dispatch.New(deps.Bus, deps.OppStore, deps.Notifier, deps.Exec, a.logger)
	emit := detector.EmitFunc(dispatcher.Dispatch)

	pairwise := detector.NewPairwise(store, model, s.MinNetProfitPct, emit, a.logger)
	triangle := detector.NewTriangle(store, model, s.CommonCoins, s.MinNetProfitPct, s.TriangleInterval.Duration, emit, a.logger)

	quotes := make(map[string]bool, len(s.QuoteCurrencies))
	for _, q := range s.QuoteCurrencies {
		quotes[q] = true
	}
	criteria := filter.Criteria{
		QuoteCurrencies: quotes,
		MinQuoteVolume:  s.MinQuoteVolume,
		MaxSpreadPct:    s.MaxSpreadPct,
	}

	clients := make([]domain.MarketDataClient, 0, len(deps.Clients))
	for _, c := range deps.Clients {
		clients = append(clients, c)
	}
	runner := filter.NewRunner(clients, universe, criteria, s.FilterRefresh.Duration, a.logger)
	runner.RefreshOnce(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	manager := feed.NewManager(
		deps.Clients, deps.Markets, universe, store, pairwise,
		s.MaxStreams, s.StreamBackoff.Duration, s.ReconcileInterval.Duration,
		a.logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	g.Go(func() error { return manager.Run(gctx) })
	for name := range deps.Clients {
		venue := name
		g.Go(func() error { return triangle.Run(gctx, venue) })
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down scanner")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
