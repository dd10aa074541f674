// Package domain defines the core types shared by every component of the
// scanner: markets, tickers, order-book snapshots, opportunities, and the
// collaborator interfaces for market data, execution, and messaging.
package domain

import (
	"strings"
	"time"
)

// Market identifies a tradable base/quote pair on a single venue. Markets are
// loaded once per venue at startup and are immutable for the process lifetime.
type Market struct {
	Venue  string
	Symbol string // unified "BASE/QUOTE" form, e.g. "BTC/USDT"
	Base   string
	Quote  string
}

// TickerSnapshot is a transient 24h ticker produced by periodic REST polling.
// QuoteVolume is the rolling traded value in the quote currency and serves as
// the liquidity proxy for pair screening.
type TickerSnapshot struct {
	Symbol      string
	Bid         float64
	Ask         float64
	QuoteVolume float64
	Timestamp   time.Time
}

// SplitSymbol decomposes a unified "BASE/QUOTE" symbol. ok is false when the
// symbol does not encode exactly one base and one quote currency.
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	i := strings.IndexByte(symbol, '/')
	if i <= 0 || i == len(symbol)-1 {
		return "", "", false
	}
	base, quote = symbol[:i], symbol[i+1:]
	if strings.ContainsRune(quote, '/') {
		return "", "", false
	}
	return base, quote, true
}
