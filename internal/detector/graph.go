package detector

import (
	"sort"

	"github.com/jmorales/arbiscan/internal/domain"
)

// Edge is a tradable pair inside a CurrencyGraph, carrying the order-book
// snapshot that prices the conversion in either direction.
type Edge struct {
	Symbol string
	Base   string
	Quote  string
	Snap   domain.OrderBookSnapshot
}

// CurrencyGraph is the per-venue graph of currencies (nodes) connected by
// symbols (edges). It is rebuilt fresh on every triangular scan and never
// persisted. Nodes are restricted to a configured common-coin allow-list to
// keep the triple search bounded.
type CurrencyGraph struct {
	coins []string
	edges map[[2]string]Edge
}

// BuildGraph constructs a graph from one venue's current snapshots. Symbols
// whose base or quote currency is outside the allow-list, or whose snapshot
// is empty or malformed, contribute no edge.
func BuildGraph(snaps []domain.OrderBookSnapshot, allow map[string]bool) *CurrencyGraph {
	g := &CurrencyGraph{edges: make(map[[2]string]Edge)}
	seen := make(map[string]bool)
	for _, snap := range snaps {
		base, quote, ok := domain.SplitSymbol(snap.Symbol)
		if !ok || !allow[base] || !allow[quote] {
			continue
		}
		if !snap.Valid() {
			continue
		}
		g.edges[edgeKey(base, quote)] = Edge{Symbol: snap.Symbol, Base: base, Quote: quote, Snap: snap}
		for _, coin := range []string{base, quote} {
			if !seen[coin] {
				seen[coin] = true
				g.coins = append(g.coins, coin)
			}
		}
	}
	sort.Strings(g.coins)
	return g
}

// Coins returns the graph's currencies in lexicographic order.
func (g *CurrencyGraph) Coins() []string { return g.coins }

// Edge returns the edge connecting two currencies in either order.
func (g *CurrencyGraph) Edge(a, b string) (Edge, bool) {
	e, ok := g.edges[edgeKey(a, b)]
	return e, ok
}

// Convert returns the conversion factor from currency `from` across the edge:
// selling the base earns bestBid quote per unit; buying the base with quote
// costs bestAsk, so one quote unit yields 1/bestAsk base.
func (e Edge) Convert(from string) float64 {
	if from == e.Base {
		return e.Snap.BestBid.Price
	}
	return 1 / e.Snap.BestAsk.Price
}

// edgeKey normalizes an unordered currency pair.
func edgeKey(a, b string) [2]string {
	if a < b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}
