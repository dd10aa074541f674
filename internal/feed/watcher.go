// Package feed runs the long-lived per-(venue, symbol) streaming tasks that
// keep the order-book store current and trigger pairwise detection inline.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmorales/arbiscan/internal/book"
	"github.com/jmorales/arbiscan/internal/detector"
	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/filter"
)

type streamKey struct {
	venue  string
	symbol string
}

// Manager supervises one watcher task per (venue, symbol) in the filtered
// universe, capped at a configured number of concurrent streams. Universe
// refreshes are reflected eventually: new symbols gain watchers on the next
// reconcile pass, while in-flight subscriptions are never retroactively
// cancelled (stream teardown on shutdown only).
type Manager struct {
	clients   map[string]domain.MarketDataClient
	markets   map[string]map[string]bool // venue -> catalog symbols
	universe  *filter.Universe
	store     *book.Store
	pairwise  *detector.Pairwise
	maxStream int
	backoff   time.Duration
	reconcile time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	active map[streamKey]bool
}

// NewManager creates a Manager. markets is the per-venue catalog loaded at
// startup; symbols outside it are never subscribed even if filtered in.
func NewManager(
	clients map[string]domain.MarketDataClient,
	markets map[string]map[string]bool,
	universe *filter.Universe,
	store *book.Store,
	pairwise *detector.Pairwise,
	maxStreams int,
	backoff, reconcile time.Duration,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		clients:   clients,
		markets:   markets,
		universe:  universe,
		store:     store,
		pairwise:  pairwise,
		maxStream: maxStreams,
		backoff:   backoff,
		reconcile: reconcile,
		logger:    logger.With(slog.String("component", "feed_manager")),
		active:    make(map[streamKey]bool),
	}
}

// Run starts watchers for the current universe, then reconciles on a fixed
// interval until ctx is cancelled. It returns after every watcher has exited.
func (m *Manager) Run(ctx context.Context) error {
	var wg errgroup.Group
	wg.SetLimit(m.maxStream)

	m.reconcileOnce(ctx, &wg)

	ticker := time.NewTicker(m.reconcile)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			m.reconcileOnce(ctx, &wg)
		}
	}
}

// reconcileOnce starts a watcher for every filtered (venue, symbol) that has
// none yet. When the stream cap is reached the symbol is retried on a later
// pass.
func (m *Manager) reconcileOnce(ctx context.Context, wg *errgroup.Group) {
	for venue, client := range m.clients {
		catalog := m.markets[venue]
		for _, symbol := range m.universe.Symbols(venue) {
			if !catalog[symbol] {
				m.logger.Debug("symbol not in venue catalog, skipping",
					slog.String("venue", venue), slog.String("symbol", symbol))
				continue
			}
			k := streamKey{venue, symbol}
			m.mu.Lock()
			started := m.active[k]
			if !started {
				m.active[k] = true
			}
			m.mu.Unlock()
			if started {
				continue
			}

			c, sym := client, symbol
			if !wg.TryGo(func() error {
				m.watch(ctx, c, sym)
				return nil
			}) {
				m.mu.Lock()
				delete(m.active, k)
				m.mu.Unlock()
				m.logger.Warn("stream cap reached, deferring subscription",
					slog.String("venue", venue),
					slog.String("symbol", symbol),
					slog.Int("max_streams", m.maxStream),
				)
				return
			}
		}
	}
}

// watch consumes one order-book stream. Every received snapshot is written
// to the store and, when applied, pairwise detection runs inline for that
// symbol. Stream drops reconnect with bounded backoff for as long as the
// context is alive; no error escapes the task.
func (m *Manager) watch(ctx context.Context, client domain.MarketDataClient, symbol string) {
	venue := client.Venue()
	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}
		ch, err := client.SubscribeOrderBook(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempts++
			m.logger.Warn("stream error, reconnecting",
				slog.String("venue", venue),
				slog.String("symbol", symbol),
				slog.Int("attempt", attempts),
				slog.String("error", err.Error()),
			)
			if !m.sleep(ctx) {
				return
			}
			continue
		}

		for snap := range ch {
			attempts = 0
			if !snap.Valid() {
				m.logger.Debug("skipping malformed snapshot",
					slog.String("venue", venue), slog.String("symbol", symbol))
				continue
			}
			if m.store.Update(snap) {
				m.pairwise.OnBookUpdate(ctx, snap.Symbol)
			}
		}

		if ctx.Err() != nil {
			return
		}
		attempts++
		m.logger.Warn("stream closed, reconnecting",
			slog.String("venue", venue),
			slog.String("symbol", symbol),
			slog.Int("attempt", attempts),
		)
		if !m.sleep(ctx) {
			return
		}
	}
}

// sleep waits one backoff period, returning false when ctx ends first.
func (m *Manager) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.backoff):
		return true
	}
}
