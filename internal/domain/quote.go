package domain

import "time"

// Side indicates which half of the book an update targets.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// QuoteUpdate is one normalized level-2 feed record: replace-or-delete for
// a single price level of one (exchange, symbol) book. Quantity 0 deletes
// the level at Price.
type QuoteUpdate struct {
	Exchange string
	Symbol   string
	Side     Side
	Price    FixedPoint
	Quantity FixedPoint
	Seq      uint64
	Time     time.Time
}

// PriceLevel is a single price+quantity entry in a book ladder.
type PriceLevel struct {
	Price    FixedPoint
	Quantity FixedPoint
}

// BestQuote is an immutable top-of-book snapshot published after every
// accepted update. A zero price on either side means that side is empty.
type BestQuote struct {
	Exchange  string
	Symbol    string
	BestBid   FixedPoint
	BidQty    FixedPoint
	BestAsk   FixedPoint
	AskQty    FixedPoint
	Seq       uint64
	Crossed   bool
	UpdatedAt time.Time
}

// TwoSided reports whether both sides carry a quote.
func (q BestQuote) TwoSided() bool {
	return q.BestBid > 0 && q.BestAsk > 0
}

// Tradable reports whether the snapshot may participate in arbitrage
// detection: crossed books are data-quality suspects and sit out until a
// later update un-crosses them.
func (q BestQuote) Tradable() bool {
	return !q.Crossed
}
