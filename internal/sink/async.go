// Package sink delivers detector output to the outside world. The engine
// publishes into AsyncSink, which only enqueues; a dispatcher goroutine
// fans events out to the configured destinations (log, Redis bus, Kafka,
// Postgres history, notifier). Destination failures are logged and
// counted, never surfaced back into the quote path.
package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/obs"
	"github.com/arblab/arbcore/internal/ring"
)

// Named identifies a destination in fan-out logs. Destinations without a
// name are logged by their Go type.
type Named interface {
	Name() string
}

// event is the queued union of the two opportunity kinds.
type event struct {
	kind  domain.OpportunityKind
	cross domain.CrossExchangeOpportunity
	tri   domain.TriangularOpportunity
}

// AsyncSink decouples the detection path from destination I/O with a
// bounded drop-oldest queue. Publish methods never block and never fail;
// when the pipeline cannot keep up, the oldest undelivered event is shed
// and counted.
type AsyncSink struct {
	q       *ring.Queue[event]
	outs    []domain.OpportunitySink
	metrics *obs.Metrics
	logger  *slog.Logger
}

var _ domain.OpportunitySink = (*AsyncSink)(nil)

// NewAsync builds the pipeline entry point with the given queue capacity
// and destinations.
func NewAsync(queueCap int, outs []domain.OpportunitySink, metrics *obs.Metrics, logger *slog.Logger) *AsyncSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncSink{
		q:       ring.New[event](queueCap),
		outs:    outs,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "opportunity_pipeline")),
	}
}

// PublishCross enqueues a cross-exchange opportunity. Never blocks.
func (s *AsyncSink) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	if s.q.Push(event{kind: domain.OpportunityCrossExchange, cross: opp}) {
		s.metrics.IncSinkDrops(1)
	}
	return nil
}

// PublishTriangular enqueues a triangular opportunity. Never blocks.
func (s *AsyncSink) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	if s.q.Push(event{kind: domain.OpportunityTriangular, tri: opp}) {
		s.metrics.IncSinkDrops(1)
	}
	return nil
}

// Run drains the queue and delivers each event to every destination in
// order. It returns when ctx is cancelled or, after Close, once the queue
// has drained.
func (s *AsyncSink) Run(ctx context.Context) error {
	s.logger.Info("opportunity pipeline started", slog.Int("destinations", len(s.outs)))
	defer s.logger.Info("opportunity pipeline stopped")
	for {
		ev, ok := s.q.Pop(ctx)
		if !ok {
			return ctx.Err()
		}
		s.deliver(ctx, ev)
	}
}

// Close stops intake; Run finishes delivering what is already queued.
func (s *AsyncSink) Close() {
	s.q.Close()
}

// Drops reports how many events were shed before delivery.
func (s *AsyncSink) Drops() uint64 {
	return s.q.Drops()
}

func (s *AsyncSink) deliver(ctx context.Context, ev event) {
	for _, out := range s.outs {
		var err error
		switch ev.kind {
		case domain.OpportunityCrossExchange:
			err = out.PublishCross(ctx, ev.cross)
		case domain.OpportunityTriangular:
			err = out.PublishTriangular(ctx, ev.tri)
		}
		if err != nil {
			// Policy drops (alert rate limiting) are not failures.
			if errors.Is(err, domain.ErrRateLimited) {
				s.logger.Debug("opportunity delivery suppressed",
					slog.String("sink", sinkName(out)),
					slog.String("kind", string(ev.kind)),
				)
				continue
			}
			s.metrics.IncSinkErrors()
			s.logger.Warn("opportunity delivery failed",
				slog.String("sink", sinkName(out)),
				slog.String("kind", string(ev.kind)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func sinkName(out domain.OpportunitySink) string {
	if n, ok := out.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", out)
}
