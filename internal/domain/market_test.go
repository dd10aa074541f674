package domain

import (
	"testing"
	"time"
)

func TestSplitSymbol(t *testing.T) {
	cases := []struct {
		in          string
		base, quote string
		ok          bool
	}{
		{"BTC/USDT", "BTC", "USDT", true},
		{"ETH/BTC", "ETH", "BTC", true},
		{"BTCUSDT", "", "", false},
		{"/USDT", "", "", false},
		{"BTC/", "", "", false},
		{"A/B/C", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		base, quote, ok := SplitSymbol(c.in)
		if base != c.base || quote != c.quote || ok != c.ok {
			t.Errorf("SplitSymbol(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.in, base, quote, ok, c.base, c.quote, c.ok)
		}
	}
}

func TestOrderBookSnapshotValid(t *testing.T) {
	good := OrderBookSnapshot{
		Venue:     "binance",
		Symbol:    "BTC/USDT",
		BestBid:   PriceLevel{Price: 100, Qty: 1},
		BestAsk:   PriceLevel{Price: 101, Qty: 1},
		UpdatedAt: time.Now(),
	}
	if !good.Valid() {
		t.Fatal("complete snapshot should be valid")
	}

	for name, mutate := range map[string]func(*OrderBookSnapshot){
		"zero bid price": func(s *OrderBookSnapshot) { s.BestBid.Price = 0 },
		"zero bid qty":   func(s *OrderBookSnapshot) { s.BestBid.Qty = 0 },
		"zero ask price": func(s *OrderBookSnapshot) { s.BestAsk.Price = 0 },
		"zero ask qty":   func(s *OrderBookSnapshot) { s.BestAsk.Qty = 0 },
		"negative bid":   func(s *OrderBookSnapshot) { s.BestBid.Price = -1 },
	} {
		s := good
		mutate(&s)
		if s.Valid() {
			t.Errorf("%s: snapshot should be invalid", name)
		}
	}
}
