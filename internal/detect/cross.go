// Package detect implements the two arbitrage detectors. Both are pure:
// they compute over the snapshots handed to them, hold no book state and
// perform no I/O, so the ingest path can run them synchronously after
// every accepted update.
package detect

import (
	"time"

	"github.com/google/uuid"

	"github.com/arblab/arbcore/internal/domain"
)

// Cross finds cross-exchange dislocations on a single symbol: sell where
// the bid is high, buy where the ask is low.
type Cross struct {
	minProfitBps int64
}

// NewCross returns a detector with the given strict profit threshold in
// basis points. The threshold is validated positive at startup.
func NewCross(minProfitBps int64) *Cross {
	return &Cross{minProfitBps: minProfitBps}
}

// Scan enumerates every ordered exchange pair in entries and reports each
// pair whose sell-side bid exceeds the buy-side ask by strictly more than
// the threshold. All qualifying pairs are reported, in deterministic slot
// order. Crossed entries sit out entirely. The second return counts pairs
// skipped because the profit ratio left int64 range, which only garbage
// prices can cause.
func (c *Cross) Scan(entries []domain.BestQuote, now time.Time) ([]domain.CrossExchangeOpportunity, int) {
	var opps []domain.CrossExchangeOpportunity
	skipped := 0
	for i := range entries {
		sell := &entries[i]
		if !sell.Tradable() || sell.BestBid <= 0 {
			continue
		}
		for j := range entries {
			if i == j {
				continue
			}
			buy := &entries[j]
			if !buy.Tradable() || buy.BestAsk <= 0 {
				continue
			}
			if sell.BestBid <= buy.BestAsk {
				continue
			}
			spread := int64(sell.BestBid) - int64(buy.BestAsk)
			bps, err := domain.BasisPoints(spread, int64(buy.BestAsk))
			if err != nil {
				skipped++
				continue
			}
			if bps <= c.minProfitBps {
				continue
			}
			opps = append(opps, domain.CrossExchangeOpportunity{
				ID:           uuid.Must(uuid.NewRandom()).String(),
				Symbol:       sell.Symbol,
				BuyExchange:  buy.Exchange,
				SellExchange: sell.Exchange,
				BuyPrice:     buy.BestAsk,
				SellPrice:    sell.BestBid,
				BuyQty:       buy.AskQty,
				SellQty:      sell.BidQty,
				ProfitBps:    bps,
				DetectedAt:   now,
			})
		}
	}
	return opps, skipped
}
