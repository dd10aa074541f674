// Package detector implements the two opportunity detectors: the event-driven
// pairwise cross-venue scan and the timer-driven triangular cycle scan.
package detector

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmorales/arbiscan/internal/book"
	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/profit"
)

// EmitFunc receives every opportunity that clears the profit threshold.
type EmitFunc func(ctx context.Context, opp domain.Opportunity)

// Pairwise scans all venues holding a symbol for a profitable two-leg trade.
// It runs synchronously after each successful order-book store update, so
// detection always observes the update that triggered it.
type Pairwise struct {
	store     *book.Store
	model     *profit.Model
	minNetPct float64
	emit      EmitFunc
	logger    *slog.Logger
}

// NewPairwise creates a pairwise detector emitting through emit.
func NewPairwise(store *book.Store, model *profit.Model, minNetPct float64, emit EmitFunc, logger *slog.Logger) *Pairwise {
	return &Pairwise{
		store:     store,
		model:     model,
		minNetPct: minNetPct,
		emit:      emit,
		logger:    logger.With(slog.String("component", "pairwise_detector")),
	}
}

// OnBookUpdate evaluates every unordered venue pair currently holding the
// symbol, in both directions. Fewer than two venues is a no-op. Repeated
// identical opportunities across successive updates are emitted again by
// design; suppression belongs to downstream consumers.
func (p *Pairwise) OnBookUpdate(ctx context.Context, symbol string) {
	books := p.store.AllForSymbol(symbol)
	if len(books) < 2 {
		return
	}
	for i := 0; i < len(books); i++ {
		for j := i + 1; j < len(books); j++ {
			p.evaluate(ctx, books[j], books[i]) // buy j, sell i
			p.evaluate(ctx, books[i], books[j]) // buy i, sell j
		}
	}
}

// evaluate tests buying at buy's ask and selling at sell's bid.
func (p *Pairwise) evaluate(ctx context.Context, buy, sell domain.VenueBook) {
	ask := buy.Snapshot.BestAsk.Price
	bid := sell.Snapshot.BestBid.Price
	if ask <= 0 || bid <= ask {
		return
	}
	grossPct := (bid - ask) / ask * 100
	netPct := p.model.PairwiseNet(buy.Venue, sell.Venue, ask, bid)
	if netPct < p.minNetPct {
		return
	}

	amount := p.model.Amount()
	opp := domain.Opportunity{
		ID:     uuid.NewString(),
		Type:   domain.OpportunityPairwise,
		Symbol: buy.Snapshot.Symbol,
		Legs: []domain.Leg{
			{Venue: buy.Venue, Symbol: buy.Snapshot.Symbol, Side: domain.SideBuy, Price: ask, Amount: amount},
			{Venue: sell.Venue, Symbol: sell.Snapshot.Symbol, Side: domain.SideSell, Price: bid, Amount: amount},
		},
		Venues:     []string{buy.Venue, sell.Venue},
		GrossPct:   grossPct,
		NetPct:     netPct,
		DetectedAt: time.Now().UTC(),
	}
	p.logger.Info("pairwise opportunity detected",
		slog.String("symbol", opp.Symbol),
		slog.String("buy_venue", buy.Venue),
		slog.String("sell_venue", sell.Venue),
		slog.Float64("ask", ask),
		slog.Float64("bid", bid),
		slog.Float64("gross_pct", grossPct),
		slog.Float64("net_pct", netPct),
	)
	p.emit(ctx, opp)
}
