package quotetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
)

func TestRegistryDedupesAndSorts(t *testing.T) {
	reg := NewRegistry([]string{"kraken", "binance", "kraken", "coinbase"})
	assert.Equal(t, []string{"binance", "coinbase", "kraken"}, reg.Names())
	assert.Equal(t, 3, reg.Len())

	i, ok := reg.Index("coinbase")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = reg.Index("okx")
	assert.False(t, ok)
}

func TestPublishAndGet(t *testing.T) {
	reg := NewRegistry([]string{"binance", "kraken"})
	tbl := New("ETH/BTC", reg)

	_, ok := tbl.Get("binance")
	assert.False(t, ok, "no entry before first publish")

	q := domain.BestQuote{
		Exchange: "binance", Symbol: "ETH/BTC",
		BestBid: 100, BidQty: 5, BestAsk: 101, AskQty: 7,
		Seq: 9, UpdatedAt: time.Unix(1, 0),
	}
	require.NoError(t, tbl.Publish(q))

	got, ok := tbl.Get("binance")
	require.True(t, ok)
	assert.Equal(t, q, got)

	q.Seq = 10
	q.BestBid = 102
	require.NoError(t, tbl.Publish(q))
	got, _ = tbl.Get("binance")
	assert.Equal(t, uint64(10), got.Seq)
	assert.Equal(t, domain.FixedPoint(102), got.BestBid)
}

func TestPublishUnknownExchange(t *testing.T) {
	tbl := New("ETH/BTC", NewRegistry([]string{"binance"}))
	err := tbl.Publish(domain.BestQuote{Exchange: "okx", Symbol: "ETH/BTC"})
	require.ErrorIs(t, err, domain.ErrUnknownExchange)
}

func TestEntriesReturnsOnlyPublishedSlots(t *testing.T) {
	reg := NewRegistry([]string{"binance", "coinbase", "kraken"})
	tbl := New("ETH/BTC", reg)

	require.NoError(t, tbl.Publish(domain.BestQuote{Exchange: "kraken", Symbol: "ETH/BTC", BestBid: 1, BestAsk: 2}))
	require.NoError(t, tbl.Publish(domain.BestQuote{Exchange: "binance", Symbol: "ETH/BTC", BestBid: 3, BestAsk: 4}))

	buf := make([]domain.BestQuote, 0, reg.Len())
	entries := tbl.Entries(buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "binance", entries[0].Exchange, "slot order is deterministic")
	assert.Equal(t, "kraken", entries[1].Exchange)
}
