package domain

import "context"

// MarketDataClient is the venue connectivity collaborator. Implementations
// own transport details: catalog loading, REST ticker polling, and websocket
// streaming including protocol-level reconnection.
type MarketDataClient interface {
	// Venue returns the venue identifier, e.g. "binance".
	Venue() string

	// LoadMarkets fetches the tradable market catalog once at startup.
	LoadMarkets(ctx context.Context) ([]Market, error)

	// FetchTickers returns the current 24h ticker per unified symbol. A
	// failed fetch is treated by callers as an empty result for that cycle.
	FetchTickers(ctx context.Context) (map[string]TickerSnapshot, error)

	// SubscribeOrderBook opens a long-lived push stream of best-bid/ask
	// snapshots for one symbol. The returned channel is closed when the
	// stream drops or ctx is cancelled; callers reconnect by calling again.
	SubscribeOrderBook(ctx context.Context, symbol string) (<-chan OrderBookSnapshot, error)
}

// ExecutionClient is the external execution collaborator. The core forwards
// opportunity legs and does not wait for, retry, or roll back anything.
type ExecutionClient interface {
	PlaceOrder(ctx context.Context, leg Leg, typ OrderType) (OrderResult, error)
}

// SignalBus fans detected opportunities out to external consumers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// OpportunityStore is an append-only audit record of emitted opportunities.
// Nothing is read back at startup; the process carries no state across
// restarts.
type OpportunityStore interface {
	Insert(ctx context.Context, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}
