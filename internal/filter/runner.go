package filter

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmorales/arbiscan/internal/domain"
)

// Runner refreshes the Universe from live tickers: once immediately on start,
// then on a fixed interval. A venue whose ticker fetch fails contributes an
// empty set for that cycle; other venues are unaffected.
type Runner struct {
	clients  []domain.MarketDataClient
	universe *Universe
	criteria Criteria
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a Runner over the given venue clients.
func NewRunner(clients []domain.MarketDataClient, universe *Universe, criteria Criteria, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		clients:  clients,
		universe: universe,
		criteria: criteria,
		interval: interval,
		logger:   logger.With(slog.String("component", "liquidity_filter")),
	}
}

// Run re-screens on the configured interval until ctx is cancelled. Callers
// run RefreshOnce before starting Run so subscriptions begin against a
// populated universe.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce fetches tickers from every venue and swaps each venue's
// filtered set into the Universe.
func (r *Runner) RefreshOnce(ctx context.Context) {
	for _, client := range r.clients {
		venue := client.Venue()
		tickers, err := client.FetchTickers(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("ticker fetch failed, venue yields empty set this cycle",
				slog.String("venue", venue),
				slog.String("error", err.Error()),
			)
			r.universe.Replace(venue, nil)
			continue
		}
		r.logger.Info("tickers received",
			slog.String("venue", venue),
			slog.Int("count", len(tickers)),
		)

		symbols := Screen(tickers, r.criteria)
		r.universe.Replace(venue, symbols)
		r.logger.Info("symbols filtered",
			slog.String("venue", venue),
			slog.Int("selected", len(symbols)),
		)
	}
}
