// Package filter implements the periodic liquidity/spread screening that
// decides which trading pairs are worth watching on each venue.
package filter

import (
	"sort"

	"github.com/jmorales/arbiscan/internal/domain"
)

// Criteria are the screening thresholds, fixed at startup.
type Criteria struct {
	// QuoteCurrencies is the allow-list of acceptable quote currencies.
	QuoteCurrencies map[string]bool
	// MinQuoteVolume is the minimum rolling traded value in quote currency.
	MinQuoteVolume float64
	// MaxSpreadPct is the maximum accepted relative spread in percent.
	// A spread exactly equal to the threshold is accepted.
	MaxSpreadPct float64
}

// Screen applies the liquidity criteria to one venue's ticker set and returns
// the surviving symbols sorted lexicographically. It is a pure function: the
// same tickers and criteria always yield the same result.
//
// A symbol is rejected when its quote volume is missing or non-positive, the
// symbol does not encode a base/quote pair, the quote currency is outside the
// allow-list, quote volume is below the minimum, bid or ask is missing or
// non-positive, or the relative spread exceeds the maximum.
func Screen(tickers map[string]domain.TickerSnapshot, c Criteria) []string {
	out := make([]string, 0, len(tickers))
	for symbol, t := range tickers {
		if t.QuoteVolume <= 0 {
			continue
		}
		_, quote, ok := domain.SplitSymbol(symbol)
		if !ok {
			continue
		}
		if !c.QuoteCurrencies[quote] {
			continue
		}
		if t.QuoteVolume < c.MinQuoteVolume {
			continue
		}
		if t.Bid <= 0 || t.Ask <= 0 {
			continue
		}
		spreadPct := (t.Ask - t.Bid) / t.Bid * 100
		if spreadPct > c.MaxSpreadPct {
			continue
		}
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}
