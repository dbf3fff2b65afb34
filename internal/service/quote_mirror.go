// Package service hosts the long-running loops around the engine: the
// best-quote mirror and the history archiver.
package service

import (
	"context"
	"log/slog"

	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/obs"
	"github.com/arblab/arbcore/internal/ring"
)

// QuoteMirror copies best-quote snapshots into the shared cache for
// consumers outside the process. The engine hands snapshots to OnSnapshot,
// which only enqueues; the Run loop does the cache writes. When Redis
// falls behind, the oldest queued snapshot is shed and counted, never the
// quote path stalled: a later snapshot for the same pair supersedes it
// anyway.
type QuoteMirror struct {
	cache   domain.QuoteCache
	q       *ring.Queue[domain.BestQuote]
	metrics *obs.Metrics
	logger  *slog.Logger
}

// NewQuoteMirror creates a mirror with the given queue capacity.
func NewQuoteMirror(cache domain.QuoteCache, queueCap int, metrics *obs.Metrics, logger *slog.Logger) *QuoteMirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteMirror{
		cache:   cache,
		q:       ring.New[domain.BestQuote](queueCap),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "quote_mirror")),
	}
}

// OnSnapshot enqueues one snapshot for mirroring. It never blocks; the
// engine calls it on the quote path.
func (m *QuoteMirror) OnSnapshot(q domain.BestQuote) {
	if m.q.Push(q) {
		m.metrics.IncMirrorDrops(1)
	}
}

// Run drains the queue into the cache until ctx is cancelled or, after
// Close, until the queue is empty. Cache failures are logged and the
// snapshot skipped; the next update for the pair repairs the mirror.
func (m *QuoteMirror) Run(ctx context.Context) error {
	m.logger.Info("quote mirror started")
	defer m.logger.Info("quote mirror stopped")
	for {
		snap, ok := m.q.Pop(ctx)
		if !ok {
			return ctx.Err()
		}
		if err := m.cache.SetBestQuote(ctx, snap); err != nil {
			m.logger.Warn("mirror write failed",
				slog.String("exchange", snap.Exchange),
				slog.String("symbol", snap.Symbol),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Close stops intake and lets Run drain what is already queued.
func (m *QuoteMirror) Close() {
	m.q.Close()
}

// Drops reports how many snapshots were shed before mirroring.
func (m *QuoteMirror) Drops() uint64 {
	return m.q.Drops()
}
