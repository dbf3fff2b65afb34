package sink

import (
	"context"

	"github.com/arblab/arbcore/internal/domain"
)

// StoreSink appends every opportunity to the history store.
type StoreSink struct {
	store domain.OpportunityStore
}

var _ domain.OpportunitySink = (*StoreSink)(nil)

// NewStore creates a history destination.
func NewStore(store domain.OpportunityStore) *StoreSink {
	return &StoreSink{store: store}
}

// Name implements Named.
func (s *StoreSink) Name() string { return "postgres" }

// PublishCross implements domain.OpportunitySink.
func (s *StoreSink) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	return s.store.Insert(ctx, domain.RecordFromCross(opp))
}

// PublishTriangular implements domain.OpportunitySink.
func (s *StoreSink) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	return s.store.Insert(ctx, domain.RecordFromTriangular(opp))
}
