package domain

import (
	"context"
	"time"
)

// OpportunityKind tags an opportunity event for sinks and notifiers.
type OpportunityKind string

const (
	OpportunityCrossExchange OpportunityKind = "cross_exchange"
	OpportunityTriangular    OpportunityKind = "triangular"
)

// CrossExchangeOpportunity reports that one exchange's best bid exceeds
// another's best ask on the same symbol by more than the configured
// threshold. Values are immutable once emitted.
type CrossExchangeOpportunity struct {
	ID           string
	Symbol       string
	BuyExchange  string     // venue with the low ask
	SellExchange string     // venue with the high bid
	BuyPrice     FixedPoint // best ask on BuyExchange
	SellPrice    FixedPoint // best bid on SellExchange
	BuyQty       FixedPoint
	SellQty      FixedPoint
	ProfitBps    int64
	DetectedAt   time.Time
}

// TriangularOpportunity reports a profitable three-leg round trip on a
// single exchange. PathID 1 walks A->B->C->A, path 2 the reverse.
type TriangularOpportunity struct {
	ID         string
	Exchange   string
	Triangle   string // "A/B,B/C,A/C"
	Legs       [3]string
	LegBids    [3]FixedPoint
	LegAsks    [3]FixedPoint
	PathID     int
	Multiplier int64 // round-trip product, scaled by 1e6
	ProfitBps  int64
	DetectedAt time.Time
}

// OpportunitySink receives detector output. Implementations must not block
// the caller: the detection path runs inside the quote hot path and
// performs no I/O, so sinks that talk to the outside world queue
// internally and deliver asynchronously.
type OpportunitySink interface {
	PublishCross(ctx context.Context, opp CrossExchangeOpportunity) error
	PublishTriangular(ctx context.Context, opp TriangularOpportunity) error
}
