package domain

import "time"

// OpportunityType distinguishes the two detector outputs.
type OpportunityType string

const (
	OpportunityPairwise   OpportunityType = "pairwise"
	OpportunityTriangular OpportunityType = "triangular"
)

// OrderSide is the direction of a single leg.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType is the execution style requested for a leg.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// Leg is one order the execution collaborator should attempt.
type Leg struct {
	Venue  string
	Symbol string
	Side   OrderSide
	Price  float64
	Amount float64
}

// Opportunity is an advisory arbitrage signal. It is created by a detector,
// consumed exactly once by the dispatcher, and not stored thereafter by the
// core. Repeated identical opportunities across successive book updates are
// not suppressed.
type Opportunity struct {
	ID         string
	Type       OpportunityType
	Symbol     string // pairwise: the traded pair; triangular: "A->B->C->A"
	Legs       []Leg
	Venues     []string
	GrossPct   float64
	NetPct     float64
	DetectedAt time.Time
}

// OrderResult is the execution collaborator's acknowledgement for one leg.
type OrderResult struct {
	OrderID   string
	Venue     string
	Symbol    string
	Side      OrderSide
	Price     float64
	Amount    float64
	Status    string
	Simulated bool
	PlacedAt  time.Time
}
