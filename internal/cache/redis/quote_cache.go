package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arblab/arbcore/internal/domain"
)

// QuoteCache implements domain.QuoteCache using one Redis hash per symbol:
// key "quotes:{symbol}", one field per exchange, value a JSON snapshot.
// Prices are stored as scaled integers, exactly as the engine holds them.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(symbol string) string {
	return "quotes:" + symbol
}

// cachedQuote is the hash-field JSON shape. UpdatedAt travels as Unix
// nanoseconds, matching the precision the engine stamps on snapshots.
type cachedQuote struct {
	Exchange  string `json:"exchange"`
	Symbol    string `json:"symbol"`
	BestBid   int64  `json:"best_bid"`
	BidQty    int64  `json:"bid_qty"`
	BestAsk   int64  `json:"best_ask"`
	AskQty    int64  `json:"ask_qty"`
	Seq       uint64 `json:"seq"`
	Crossed   bool   `json:"crossed"`
	UpdatedAt int64  `json:"updated_at"`
}

func toCached(q domain.BestQuote) cachedQuote {
	return cachedQuote{
		Exchange:  q.Exchange,
		Symbol:    q.Symbol,
		BestBid:   int64(q.BestBid),
		BidQty:    int64(q.BidQty),
		BestAsk:   int64(q.BestAsk),
		AskQty:    int64(q.AskQty),
		Seq:       q.Seq,
		Crossed:   q.Crossed,
		UpdatedAt: q.UpdatedAt.UnixNano(),
	}
}

func fromCached(c cachedQuote) domain.BestQuote {
	return domain.BestQuote{
		Exchange:  c.Exchange,
		Symbol:    c.Symbol,
		BestBid:   domain.FixedPoint(c.BestBid),
		BidQty:    domain.FixedPoint(c.BidQty),
		BestAsk:   domain.FixedPoint(c.BestAsk),
		AskQty:    domain.FixedPoint(c.AskQty),
		Seq:       c.Seq,
		Crossed:   c.Crossed,
		UpdatedAt: time.Unix(0, c.UpdatedAt),
	}
}

// SetBestQuote stores the latest snapshot for the quote's (exchange,symbol).
func (qc *QuoteCache) SetBestQuote(ctx context.Context, quote domain.BestQuote) error {
	data, err := json.Marshal(toCached(quote))
	if err != nil {
		return fmt.Errorf("redis: marshal quote %s/%s: %w", quote.Exchange, quote.Symbol, err)
	}
	if err := qc.rdb.HSet(ctx, quoteKey(quote.Symbol), quote.Exchange, data).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s/%s: %w", quote.Exchange, quote.Symbol, err)
	}
	return nil
}

// GetBestQuote retrieves the mirrored snapshot for one exchange.
// It returns domain.ErrNotFound when the pair has never been mirrored.
func (qc *QuoteCache) GetBestQuote(ctx context.Context, exchange, symbol string) (domain.BestQuote, error) {
	data, err := qc.rdb.HGet(ctx, quoteKey(symbol), exchange).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.BestQuote{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.BestQuote{}, fmt.Errorf("redis: get quote %s/%s: %w", exchange, symbol, err)
	}
	var c cachedQuote
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.BestQuote{}, fmt.Errorf("redis: parse quote %s/%s: %w", exchange, symbol, err)
	}
	return fromCached(c), nil
}

// GetSymbolQuotes retrieves every exchange's snapshot for a symbol, sorted
// by exchange name. A symbol with no mirrored quotes yields an empty slice.
func (qc *QuoteCache) GetSymbolQuotes(ctx context.Context, symbol string) ([]domain.BestQuote, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get symbol quotes %s: %w", symbol, err)
	}
	out := make([]domain.BestQuote, 0, len(vals))
	for field, data := range vals {
		var c cachedQuote
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("redis: parse quote %s/%s: %w", field, symbol, err)
		}
		out = append(out, fromCached(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exchange < out[j].Exchange })
	return out, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
