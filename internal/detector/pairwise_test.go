package detector

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmorales/arbiscan/internal/book"
	"github.com/jmorales/arbiscan/internal/domain"
	"github.com/jmorales/arbiscan/internal/profit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector struct {
	opps []domain.Opportunity
}

func (c *collector) emit(ctx context.Context, opp domain.Opportunity) {
	c.opps = append(c.opps, opp)
}

func bookSnap(venue, symbol string, bid, ask float64) domain.OrderBookSnapshot {
	return domain.OrderBookSnapshot{
		Venue:     venue,
		Symbol:    symbol,
		BestBid:   domain.PriceLevel{Price: bid, Qty: 1},
		BestAsk:   domain.PriceLevel{Price: ask, Qty: 1},
		UpdatedAt: time.Now(),
	}
}

func TestPairwiseSingleVenueNoOp(t *testing.T) {
	store := book.NewStore()
	store.Update(bookSnap("binance", "BTC/USDT", 100, 101))

	c := &collector{}
	p := NewPairwise(store, profit.NewModel(nil, 0.001, 1), 0.2, c.emit, testLogger())
	p.OnBookUpdate(context.Background(), "BTC/USDT")
	if len(c.opps) != 0 {
		t.Fatalf("single venue emitted %d opportunities", len(c.opps))
	}
}

func TestPairwiseEmitsAboveThreshold(t *testing.T) {
	store := book.NewStore()
	// Buy binance at 1.0, sell bybit at 1.01: net 0.7982% with 0.1% fees.
	store.Update(bookSnap("binance", "X/USDT", 0.999, 1.0))
	store.Update(bookSnap("bybit", "X/USDT", 1.01, 1.011))

	c := &collector{}
	p := NewPairwise(store, profit.NewModel(nil, 0.001, 1), 0.2, c.emit, testLogger())
	p.OnBookUpdate(context.Background(), "X/USDT")

	if len(c.opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(c.opps))
	}
	opp := c.opps[0]
	if opp.Type != domain.OpportunityPairwise {
		t.Fatalf("type: got %s", opp.Type)
	}
	if len(opp.Legs) != 2 {
		t.Fatalf("got %d legs, want 2", len(opp.Legs))
	}
	if opp.Legs[0].Venue != "binance" || opp.Legs[0].Side != domain.SideBuy {
		t.Fatalf("first leg should buy on binance: %+v", opp.Legs[0])
	}
	if opp.Legs[1].Venue != "bybit" || opp.Legs[1].Side != domain.SideSell {
		t.Fatalf("second leg should sell on bybit: %+v", opp.Legs[1])
	}
	if opp.NetPct <= 0 || opp.NetPct >= opp.GrossPct {
		t.Fatalf("net %v should be positive and below gross %v", opp.NetPct, opp.GrossPct)
	}
}

func TestPairwiseThresholdBlocks(t *testing.T) {
	store := book.NewStore()
	store.Update(bookSnap("binance", "X/USDT", 0.999, 1.0))
	store.Update(bookSnap("bybit", "X/USDT", 1.01, 1.011))

	c := &collector{}
	// Net is ~0.8%; a 1% floor must suppress it.
	p := NewPairwise(store, profit.NewModel(nil, 0.001, 1), 1.0, c.emit, testLogger())
	p.OnBookUpdate(context.Background(), "X/USDT")
	if len(c.opps) != 0 {
		t.Fatalf("threshold should block, got %d opportunities", len(c.opps))
	}
}

func TestPairwiseChecksBothDirections(t *testing.T) {
	store := book.NewStore()
	// Profitable direction is buy bybit, sell binance.
	store.Update(bookSnap("binance", "X/USDT", 1.01, 1.011))
	store.Update(bookSnap("bybit", "X/USDT", 0.999, 1.0))

	c := &collector{}
	p := NewPairwise(store, profit.NewModel(nil, 0.001, 1), 0.2, c.emit, testLogger())
	p.OnBookUpdate(context.Background(), "X/USDT")

	if len(c.opps) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(c.opps))
	}
	if c.opps[0].Legs[0].Venue != "bybit" {
		t.Fatalf("buy leg: got %s, want bybit", c.opps[0].Legs[0].Venue)
	}
}

func TestPairwiseNoCrossNoEmit(t *testing.T) {
	store := book.NewStore()
	// Books overlap but never cross: no direction has bid > ask.
	store.Update(bookSnap("binance", "X/USDT", 0.999, 1.0))
	store.Update(bookSnap("bybit", "X/USDT", 0.998, 1.001))

	c := &collector{}
	p := NewPairwise(store, profit.NewModel(nil, 0, 1), 0.0001, c.emit, testLogger())
	p.OnBookUpdate(context.Background(), "X/USDT")
	if len(c.opps) != 0 {
		t.Fatalf("uncrossed books emitted %d opportunities", len(c.opps))
	}
}
