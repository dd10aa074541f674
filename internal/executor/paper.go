// Package executor provides the built-in execution collaborator used in
// trade mode: a paper trader that acknowledges every leg without touching an
// exchange. Real order routing is a separate system that consumes the signal
// bus instead.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmorales/arbiscan/internal/domain"
)

// Paper simulates immediate full fills at the requested price.
type Paper struct {
	logger *slog.Logger
}

// NewPaper creates a paper execution client.
func NewPaper(logger *slog.Logger) *Paper {
	return &Paper{logger: logger.With(slog.String("component", "paper_executor"))}
}

// PlaceOrder validates the leg and returns a simulated fill. It never blocks
// on anything external.
func (p *Paper) PlaceOrder(ctx context.Context, leg domain.Leg, typ domain.OrderType) (domain.OrderResult, error) {
	if leg.Price <= 0 || leg.Amount <= 0 {
		return domain.OrderResult{}, fmt.Errorf("paper: invalid leg %s %s %s: price=%v amount=%v",
			leg.Venue, leg.Symbol, leg.Side, leg.Price, leg.Amount)
	}
	res := domain.OrderResult{
		OrderID:   uuid.NewString(),
		Venue:     leg.Venue,
		Symbol:    leg.Symbol,
		Side:      leg.Side,
		Price:     leg.Price,
		Amount:    leg.Amount,
		Status:    "filled",
		Simulated: true,
		PlacedAt:  time.Now().UTC(),
	}
	p.logger.Debug("paper order filled",
		slog.String("order_id", res.OrderID),
		slog.String("venue", res.Venue),
		slog.String("symbol", res.Symbol),
		slog.String("side", string(res.Side)),
		slog.String("type", string(typ)),
	)
	return res, nil
}

// Compile-time interface check.
var _ domain.ExecutionClient = (*Paper)(nil)
