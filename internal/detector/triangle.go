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

// Triangle periodically searches one venue's currency graph for profitable
// three-leg cycles. It enumerates each unordered coin triple exactly once
// (a < b < c lexicographically) and evaluates the directed cycle a->b->c->a.
type Triangle struct {
	store     *book.Store
	model     *profit.Model
	allow     map[string]bool
	minNetPct float64
	interval  time.Duration
	emit      EmitFunc
	logger    *slog.Logger
}

// NewTriangle creates a triangular detector restricted to the allow-listed
// common coins.
func NewTriangle(store *book.Store, model *profit.Model, commonCoins []string, minNetPct float64, interval time.Duration, emit EmitFunc, logger *slog.Logger) *Triangle {
	allow := make(map[string]bool, len(commonCoins))
	for _, c := range commonCoins {
		allow[c] = true
	}
	return &Triangle{
		store:     store,
		model:     model,
		allow:     allow,
		minNetPct: minNetPct,
		interval:  interval,
		emit:      emit,
		logger:    logger.With(slog.String("component", "triangle_detector")),
	}
}

// Run scans the venue on a fixed interval until ctx is cancelled. It only
// reads from the store and tolerates concurrent writers.
func (t *Triangle) Run(ctx context.Context, venue string) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Scan(ctx, venue)
		}
	}
}

// Scan rebuilds the currency graph for one venue from the current store
// contents and evaluates every qualifying triple once.
func (t *Triangle) Scan(ctx context.Context, venue string) {
	g := BuildGraph(t.store.AllForVenue(venue), t.allow)
	coins := g.Coins()
	for i := 0; i < len(coins); i++ {
		for j := i + 1; j < len(coins); j++ {
			for k := j + 1; k < len(coins); k++ {
				ab, okAB := g.Edge(coins[i], coins[j])
				bc, okBC := g.Edge(coins[j], coins[k])
				ca, okCA := g.Edge(coins[k], coins[i])
				if !okAB || !okBC || !okCA {
					continue
				}
				t.evaluate(ctx, venue, coins[i], coins[j], coins[k], ab, bc, ca)
			}
		}
	}
}

// evaluate prices the directed cycle a->b->c->a. Each hop converts the full
// running amount across one edge: selling the edge's base at best bid, or
// buying it at best ask when entering from the quote side.
func (t *Triangle) evaluate(ctx context.Context, venue, a, b, c string, ab, bc, ca Edge) {
	multiplier := ab.Convert(a) * bc.Convert(b) * ca.Convert(c)
	grossPct := (multiplier - 1) * 100
	netPct := t.model.TriangularNet(venue, multiplier)

	cycle := a + "->" + b + "->" + c + "->" + a
	t.logger.Debug("triangle candidate evaluated",
		slog.String("venue", venue),
		slog.String("cycle", cycle),
		slog.Float64("multiplier", multiplier),
		slog.Float64("gross_pct", grossPct),
		slog.Float64("net_pct", netPct),
	)
	if netPct < t.minNetPct {
		return
	}

	legs := make([]domain.Leg, 0, 3)
	amount := t.model.Amount()
	hops := []struct {
		from string
		edge Edge
	}{{a, ab}, {b, bc}, {c, ca}}
	for _, h := range hops {
		if h.from == h.edge.Base {
			legs = append(legs, domain.Leg{
				Venue: venue, Symbol: h.edge.Symbol, Side: domain.SideSell,
				Price: h.edge.Snap.BestBid.Price, Amount: amount,
			})
			amount *= h.edge.Snap.BestBid.Price
		} else {
			bought := amount / h.edge.Snap.BestAsk.Price
			legs = append(legs, domain.Leg{
				Venue: venue, Symbol: h.edge.Symbol, Side: domain.SideBuy,
				Price: h.edge.Snap.BestAsk.Price, Amount: bought,
			})
			amount = bought
		}
	}

	opp := domain.Opportunity{
		ID:         uuid.NewString(),
		Type:       domain.OpportunityTriangular,
		Symbol:     cycle,
		Legs:       legs,
		Venues:     []string{venue},
		GrossPct:   grossPct,
		NetPct:     netPct,
		DetectedAt: time.Now().UTC(),
	}
	t.logger.Info("triangular opportunity detected",
		slog.String("venue", venue),
		slog.String("cycle", cycle),
		slog.Float64("gross_pct", grossPct),
		slog.Float64("net_pct", netPct),
	)
	t.emit(ctx, opp)
}
