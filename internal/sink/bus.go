package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/arblab/arbcore/internal/domain"
)

const (
	// OpportunityChannel is the pub/sub channel live consumers subscribe to.
	OpportunityChannel = "opportunities"

	// OpportunityStream is the durable stream new consumers can replay.
	OpportunityStream = "opportunities:stream"
)

// BusSink publishes opportunity events to the signal bus: once on the
// live pub/sub channel and once on the durable stream.
type BusSink struct {
	bus domain.SignalBus
	enc Encoder
}

var _ domain.OpportunitySink = (*BusSink)(nil)

// NewBus creates a bus destination.
func NewBus(bus domain.SignalBus, enc Encoder) *BusSink {
	return &BusSink{bus: bus, enc: enc}
}

// Name implements Named.
func (s *BusSink) Name() string { return "bus" }

// PublishCross implements domain.OpportunitySink.
func (s *BusSink) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	data, err := s.enc.Cross(opp)
	if err != nil {
		return fmt.Errorf("sink/bus: encode cross: %w", err)
	}
	return s.send(ctx, data)
}

// PublishTriangular implements domain.OpportunitySink.
func (s *BusSink) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	data, err := s.enc.Triangular(opp)
	if err != nil {
		return fmt.Errorf("sink/bus: encode triangular: %w", err)
	}
	return s.send(ctx, data)
}

func (s *BusSink) send(ctx context.Context, data []byte) error {
	return errors.Join(
		s.bus.Publish(ctx, OpportunityChannel, data),
		s.bus.StreamAppend(ctx, OpportunityStream, data),
	)
}
