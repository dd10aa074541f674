package domain

import "time"

// PriceLevel is a single price+quantity entry at the top of an order book.
type PriceLevel struct {
	Price float64
	Qty   float64
}

// OrderBookSnapshot is the latest best-bid/ask view for one (venue, symbol)
// key. UpdatedAt orders snapshots per key: the store applies a snapshot only
// if it is not older than the one currently held.
type OrderBookSnapshot struct {
	Venue     string
	Symbol    string
	BestBid   PriceLevel
	BestAsk   PriceLevel
	UpdatedAt time.Time
}

// Valid reports whether the snapshot carries positive prices and quantities
// on both sides. Snapshots failing this check are skipped, not fatal.
func (s OrderBookSnapshot) Valid() bool {
	return s.BestBid.Price > 0 && s.BestBid.Qty > 0 &&
		s.BestAsk.Price > 0 && s.BestAsk.Qty > 0
}

// VenueBook pairs a venue name with its current snapshot for one symbol.
type VenueBook struct {
	Venue    string
	Snapshot OrderBookSnapshot
}
