// Package profit provides the fee-aware net-profit calculator shared by both
// detectors. Everything here is pure: no I/O, no shared state.
package profit

// Model holds the fee schedule and the fixed trade notional used to cost out
// candidate trades.
type Model struct {
	fees       map[string]float64
	defaultFee float64
	amount     float64
}

// NewModel creates a Model. fees maps venue name to taker fee rate (0.001 ==
// 0.1%); venues absent from the table fall back to defaultFee. amount is the
// fixed trade notional in base units.
func NewModel(fees map[string]float64, defaultFee, amount float64) *Model {
	f := make(map[string]float64, len(fees))
	for venue, rate := range fees {
		f[venue] = rate
	}
	return &Model{fees: f, defaultFee: defaultFee, amount: amount}
}

// Fee returns the taker fee rate for a venue, falling back to the default
// for unknown venues.
func (m *Model) Fee(venue string) float64 {
	if rate, ok := m.fees[venue]; ok {
		return rate
	}
	return m.defaultFee
}

// Amount returns the configured trade notional.
func (m *Model) Amount() float64 { return m.amount }

// PairwiseNet computes the net profit percent of buying at ask on buyVenue
// and selling at bid on sellVenue with the fixed notional:
//
//	cost    = ask * amount * (1 + feeBuy)
//	revenue = bid * amount * (1 - feeSell)
//	net%    = (revenue - cost) / cost * 100
//
// It returns 0 when cost is non-positive.
func (m *Model) PairwiseNet(buyVenue, sellVenue string, ask, bid float64) float64 {
	cost := ask * m.amount * (1 + m.Fee(buyVenue))
	if cost <= 0 {
		return 0
	}
	revenue := bid * m.amount * (1 - m.Fee(sellVenue))
	return (revenue - cost) / cost * 100
}

// TriangularNet computes the net profit percent of a three-leg cycle on one
// venue given the gross round-trip multiplier (product of the three
// conversion factors). Each leg pays the venue's fee once:
//
//	net% = (multiplier - 1) * 100 - 3 * fee * 100
func (m *Model) TriangularNet(venue string, multiplier float64) float64 {
	gross := (multiplier - 1) * 100
	return gross - 3*m.Fee(venue)*100
}
