package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// Generator synthesizes a seeded quote stream so the full pipeline can be
// soak-tested without exchange connectivity. Every (exchange,symbol) book
// keeps its own mid-price walk and sequence counter; exchanges drift
// independently, which is what makes venue spreads diverge and detectors
// fire now and then.
type Generator struct {
	interval time.Duration
	burst    int
	offer    func(domain.QuoteUpdate)
	rng      *rand.Rand
	logger   *slog.Logger
	books    []*simBook
	next     int
}

// simBook is the walk state for one (exchange,symbol) pair.
type simBook struct {
	exchange string
	symbol   string
	mid      int64
	tick     int64
	seq      uint64
	qtyUnit  int64
}

// NewGenerator seeds one walk per (exchange,symbol) pair. All venues start
// a symbol at the same mid so the interesting state is reached by drift,
// not by construction.
func NewGenerator(exchanges, symbols []string, priceDecimals, qtyDecimals int, interval time.Duration, seed int64, burst int, offer func(domain.QuoteUpdate), logger *slog.Logger) *Generator {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		interval: interval,
		burst:    burst,
		offer:    offer,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger.With(slog.String("component", "sim_feed")),
	}
	priceUnit := domain.Pow10(priceDecimals)
	qtyUnit := domain.Pow10(qtyDecimals)
	for _, sym := range symbols {
		// A per-symbol base in [1,1000) units, stable across runs.
		base := int64(1+fnv32a(sym)%999) * priceUnit
		tick := base / 10_000
		if tick < 1 {
			tick = 1
		}
		for _, ex := range exchanges {
			g.books = append(g.books, &simBook{
				exchange: ex,
				symbol:   sym,
				mid:      base,
				tick:     tick,
				qtyUnit:  qtyUnit,
			})
		}
	}
	return g
}

// Run emits burst records every interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	if len(g.books) == 0 {
		g.logger.Info("no pairs to simulate, generator exiting")
		return nil
	}
	g.logger.Info("sim feed started",
		slog.Int("pairs", len(g.books)),
		slog.Duration("interval", g.interval),
		slog.Int("burst", g.burst),
	)
	defer g.logger.Info("sim feed stopped")

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			for i := 0; i < g.burst; i++ {
				g.offer(g.emit(now))
			}
		}
	}
}

// emit advances one book's walk and produces its next record.
func (g *Generator) emit(now time.Time) domain.QuoteUpdate {
	b := g.books[g.next]
	g.next = (g.next + 1) % len(g.books)

	b.mid += int64(g.rng.Intn(3)-1) * b.tick
	if b.mid < b.tick*10 {
		b.mid = b.tick * 10
	}

	side := domain.SideBid
	price := b.mid - 2*b.tick - int64(g.rng.Intn(3))*b.tick
	if g.rng.Intn(2) == 1 {
		side = domain.SideAsk
		price = b.mid + 2*b.tick + int64(g.rng.Intn(3))*b.tick
	}

	// Mostly inserts and replaces, a thin stream of deletes, and the odd
	// sequence replay so the stale guard sees traffic in soak runs.
	var qty int64
	if g.rng.Intn(10) != 0 {
		qty = int64(1+g.rng.Intn(100)) * b.qtyUnit
	}
	if g.rng.Intn(200) != 0 || b.seq == 0 {
		b.seq++
	}

	return domain.QuoteUpdate{
		Exchange: b.exchange,
		Symbol:   b.symbol,
		Side:     side,
		Price:    domain.FixedPoint(price),
		Quantity: domain.FixedPoint(qty),
		Seq:      b.seq,
		Time:     now,
	}
}
