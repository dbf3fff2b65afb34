// Package feed moves quote records from their source (a live WebSocket
// feed or the synthetic generator) onto the engine's ingest workers.
// Records are sharded by symbol so every book keeps a single writer, and
// each worker owns a bounded drop-oldest queue: a slow consumer sheds the
// oldest records instead of back-pressuring the source.
package feed

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/obs"
	"github.com/arblab/arbcore/internal/ring"
)

// Handler consumes one quote record. The engine's Ingest is the production
// handler; rejections are counted and logged there, so the dispatcher does
// not inspect the returned error.
type Handler func(ctx context.Context, u domain.QuoteUpdate) error

// Dispatcher fans quote records out to a fixed set of ingest workers.
// All records for a symbol land on the same worker, which is what keeps
// book mutation single-threaded per symbol.
type Dispatcher struct {
	queues  []*ring.Queue[domain.QuoteUpdate]
	bySym   map[string]int
	handler Handler
	metrics *obs.Metrics
	logger  *slog.Logger
}

// NewDispatcher builds a dispatcher with the given worker count and
// per-worker queue capacity. Registered symbols are assigned round-robin
// so hot symbols spread evenly; records for unknown symbols are hashed
// onto a worker anyway so the engine still sees (and rejects) them.
func NewDispatcher(workers, queueCap int, symbols []string, handler Handler, metrics *obs.Metrics, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		queues:  make([]*ring.Queue[domain.QuoteUpdate], workers),
		bySym:   make(map[string]int, len(symbols)),
		handler: handler,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "feed_dispatcher")),
	}
	for i := range d.queues {
		d.queues[i] = ring.New[domain.QuoteUpdate](queueCap)
	}
	for i, sym := range symbols {
		if _, dup := d.bySym[sym]; !dup {
			d.bySym[sym] = i % workers
		}
	}
	return d
}

// Offer routes one record to its worker queue. It never blocks; when the
// queue is full the oldest queued record is dropped and counted.
func (d *Dispatcher) Offer(u domain.QuoteUpdate) {
	if d.queues[d.workerFor(u.Symbol)].Push(u) {
		d.metrics.IncFeedDrops(1)
	}
}

// Run starts one goroutine per worker queue and blocks until every worker
// has stopped. Workers stop when ctx is cancelled or, after Close, once
// their queue has drained.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, q := range d.queues {
		g.Go(func() error {
			for {
				u, ok := q.Pop(ctx)
				if !ok {
					return ctx.Err()
				}
				// Rejections are the engine's to count and log.
				_ = d.handler(ctx, u)
			}
		})
	}
	d.logger.Info("dispatcher started", slog.Int("workers", len(d.queues)))
	defer d.logger.Info("dispatcher stopped")
	return g.Wait()
}

// Close stops intake and lets the workers drain what is already queued.
func (d *Dispatcher) Close() {
	for _, q := range d.queues {
		q.Close()
	}
}

// Drops reports the total number of records shed across all worker queues.
func (d *Dispatcher) Drops() uint64 {
	var n uint64
	for _, q := range d.queues {
		n += q.Drops()
	}
	return n
}

// Depth reports the total number of records currently queued.
func (d *Dispatcher) Depth() int {
	var n int
	for _, q := range d.queues {
		n += q.Len()
	}
	return n
}

func (d *Dispatcher) workerFor(symbol string) int {
	if i, ok := d.bySym[symbol]; ok {
		return i
	}
	return int(fnv32a(symbol) % uint32(len(d.queues)))
}

// fnv32a avoids a hash.Hash32 allocation on the intake path.
func fnv32a(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
