package domain

import (
	"context"
	"time"
)

// OpportunityRecord is the persistence projection of either opportunity
// kind: one flat row shape for the history table and the cold archive.
// Cross-exchange rows fill Buy/Sell fields; triangular rows fill Exchange,
// PathID and Multiplier. Prices stay in scaled integers.
type OpportunityRecord struct {
	ID           string
	Kind         OpportunityKind
	Symbol       string // instrument, or the triangle's "A/B,B/C,A/C" label
	BuyExchange  string
	SellExchange string
	Exchange     string
	PathID       int
	BuyPrice     FixedPoint
	SellPrice    FixedPoint
	Multiplier   int64
	ProfitBps    int64
	DetectedAt   time.Time
}

// RecordFromCross flattens a cross-exchange opportunity for storage.
func RecordFromCross(opp CrossExchangeOpportunity) OpportunityRecord {
	return OpportunityRecord{
		ID:           opp.ID,
		Kind:         OpportunityCrossExchange,
		Symbol:       opp.Symbol,
		BuyExchange:  opp.BuyExchange,
		SellExchange: opp.SellExchange,
		BuyPrice:     opp.BuyPrice,
		SellPrice:    opp.SellPrice,
		ProfitBps:    opp.ProfitBps,
		DetectedAt:   opp.DetectedAt,
	}
}

// RecordFromTriangular flattens a triangular opportunity for storage.
func RecordFromTriangular(opp TriangularOpportunity) OpportunityRecord {
	return OpportunityRecord{
		ID:         opp.ID,
		Kind:       OpportunityTriangular,
		Symbol:     opp.Triangle,
		Exchange:   opp.Exchange,
		PathID:     opp.PathID,
		Multiplier: opp.Multiplier,
		ProfitBps:  opp.ProfitBps,
		DetectedAt: opp.DetectedAt,
	}
}

// OpportunityStore persists opportunity history.
type OpportunityStore interface {
	Insert(ctx context.Context, rec OpportunityRecord) error
	ListRecent(ctx context.Context, limit int) ([]OpportunityRecord, error)
	ListBefore(ctx context.Context, before time.Time, limit int) ([]OpportunityRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}
