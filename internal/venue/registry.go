// Package venue wires named exchange connectors to the market-data
// collaborator interface consumed by the scanner core.
package venue

import (
	"fmt"
	"log/slog"

	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/venue/binance"
	"github.com/jmorales/arbiscan/internal/venue/bybit"
)

// New returns the market-data client for a venue name.
func New(name string, logger *slog.Logger) (domain.MarketDataClient, error) {
	switch name {
	case "binance":
		return binance.NewClient(logger), nil
	case "bybit":
		return bybit.NewClient(logger), nil
	default:
		return nil, fmt.Errorf("venue %q: %w", name, domain.ErrUnknownVenue)
	}
}
