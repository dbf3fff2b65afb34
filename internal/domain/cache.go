package domain

import (
	"context"
	"time"
)

// QuoteCache mirrors the latest best quotes into shared storage for
// consumers outside the process. It is a lossy convenience view, never a
// source of truth for detection.
type QuoteCache interface {
	SetBestQuote(ctx context.Context, quote BestQuote) error
	GetBestQuote(ctx context.Context, exchange, symbol string) (BestQuote, error)
	GetSymbolQuotes(ctx context.Context, symbol string) ([]BestQuote, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StreamMessage represents a single entry from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// SignalBus provides pub/sub and durable streams for opportunity events.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
