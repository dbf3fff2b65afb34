// Package book maintains bounded L2 price ladders, one Book per
// (exchange, symbol). A Book has a single writer; readers consume the
// immutable top-of-book snapshot it republishes after every accepted
// update.
package book

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// ladder is one side of the book: sorted by price, unique prices, at most
// depth levels. desc orders best-first for bids; asks sort ascending.
type ladder struct {
	levels []domain.PriceLevel
	depth  int
	desc   bool
}

// apply replaces, inserts or deletes the level at price and reports
// whether the ladder changed. Quantity 0 deletes; a delete of an absent
// price is an accepted no-op. When a full ladder would exceed depth the
// lowest-priority level falls off the end; an entry worse than the whole
// full ladder never lands.
func (l *ladder) apply(price, qty domain.FixedPoint) bool {
	if qty == 0 {
		return l.remove(price)
	}
	for i, lv := range l.levels {
		if lv.Price == price {
			l.levels[i].Quantity = qty
			return true
		}
		if l.before(price, lv.Price) {
			return l.insert(i, price, qty)
		}
	}
	return l.insert(len(l.levels), price, qty)
}

func (l *ladder) insert(i int, price, qty domain.FixedPoint) bool {
	if len(l.levels) == l.depth {
		if i == l.depth {
			return false
		}
		l.levels = l.levels[:l.depth-1]
	}
	l.levels = append(l.levels, domain.PriceLevel{})
	copy(l.levels[i+1:], l.levels[i:])
	l.levels[i] = domain.PriceLevel{Price: price, Quantity: qty}
	return true
}

func (l *ladder) remove(price domain.FixedPoint) bool {
	for i, lv := range l.levels {
		if lv.Price == price {
			l.levels = append(l.levels[:i], l.levels[i+1:]...)
			return true
		}
		if l.before(price, lv.Price) {
			break
		}
	}
	return false
}

// before reports whether price a sorts ahead of price b on this ladder.
func (l *ladder) before(a, b domain.FixedPoint) bool {
	if l.desc {
		return a > b
	}
	return a < b
}

func (l *ladder) best() (domain.PriceLevel, bool) {
	if len(l.levels) == 0 {
		return domain.PriceLevel{}, false
	}
	return l.levels[0], true
}

// Book is the bounded two-sided ladder for one (exchange, symbol).
type Book struct {
	exchange string
	symbol   string
	bids     ladder
	asks     ladder
	lastSeq  uint64

	best atomic.Pointer[domain.BestQuote]
}

// New returns an empty book. Depth must already be validated >= 1.
func New(exchange, symbol string, depth int) *Book {
	b := &Book{
		exchange: exchange,
		symbol:   symbol,
		bids:     ladder{levels: make([]domain.PriceLevel, 0, depth), depth: depth, desc: true},
		asks:     ladder{levels: make([]domain.PriceLevel, 0, depth), depth: depth},
	}
	b.best.Store(&domain.BestQuote{Exchange: exchange, Symbol: symbol})
	return b
}

// Apply folds one feed record into the book and republishes the top-of-
// book snapshot. Records must arrive with strictly increasing sequence
// numbers; stale or duplicate sequences are rejected without mutating
// anything. Only the owning writer may call Apply.
func (b *Book) Apply(u domain.QuoteUpdate) (domain.BestQuote, error) {
	if u.Seq <= b.lastSeq {
		return domain.BestQuote{}, fmt.Errorf("book %s %s: seq %d after %d: %w",
			u.Exchange, u.Symbol, u.Seq, b.lastSeq, domain.ErrStaleSequence)
	}
	b.lastSeq = u.Seq

	switch u.Side {
	case domain.SideBid:
		b.bids.apply(u.Price, u.Quantity)
	case domain.SideAsk:
		b.asks.apply(u.Price, u.Quantity)
	}

	snap := b.snapshot(u.Seq, u.Time)
	b.best.Store(&snap)
	return snap, nil
}

func (b *Book) snapshot(seq uint64, ts time.Time) domain.BestQuote {
	snap := domain.BestQuote{
		Exchange:  b.exchange,
		Symbol:    b.symbol,
		Seq:       seq,
		UpdatedAt: ts,
	}
	if bid, ok := b.bids.best(); ok {
		snap.BestBid, snap.BidQty = bid.Price, bid.Quantity
	}
	if ask, ok := b.asks.best(); ok {
		snap.BestAsk, snap.AskQty = ask.Price, ask.Quantity
	}
	snap.Crossed = snap.TwoSided() && snap.BestBid >= snap.BestAsk
	return snap
}

// Best returns the last published top-of-book snapshot. Safe from any
// goroutine.
func (b *Book) Best() domain.BestQuote {
	return *b.best.Load()
}

// BestBid returns the top bid level. Owner-side accessor.
func (b *Book) BestBid() (domain.PriceLevel, bool) {
	return b.bids.best()
}

// BestAsk returns the top ask level. Owner-side accessor.
func (b *Book) BestAsk() (domain.PriceLevel, bool) {
	return b.asks.best()
}

// Levels copies out one side, best first.
func (b *Book) Levels(side domain.Side) []domain.PriceLevel {
	l := &b.bids
	if side == domain.SideAsk {
		l = &b.asks
	}
	out := make([]domain.PriceLevel, len(l.levels))
	copy(out, l.levels)
	return out
}

// LastSeq returns the sequence number of the last accepted update.
func (b *Book) LastSeq() uint64 {
	return b.lastSeq
}
