package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/obs"
)

func TestDispatcherKeepsPerSymbolOrder(t *testing.T) {
	symbols := []string{"BTC/USDT", "ETH/USDT", "ETH/BTC"}

	var mu sync.Mutex
	got := make(map[string][]uint64)
	handler := func(ctx context.Context, u domain.QuoteUpdate) error {
		mu.Lock()
		got[u.Symbol] = append(got[u.Symbol], u.Seq)
		mu.Unlock()
		return nil
	}

	d := NewDispatcher(2, 256, symbols, handler, nil, nil)
	for seq := uint64(1); seq <= 50; seq++ {
		for _, sym := range symbols {
			d.Offer(domain.QuoteUpdate{Symbol: sym, Seq: seq})
		}
	}
	d.Close()
	require.NoError(t, d.Run(context.Background()))

	for _, sym := range symbols {
		require.Len(t, got[sym], 50, "symbol %s", sym)
		for i, seq := range got[sym] {
			require.Equal(t, uint64(i+1), seq, "symbol %s out of order", sym)
		}
	}
}

func TestDispatcherPinsSymbolToWorker(t *testing.T) {
	symbols := []string{"BTC/USDT", "ETH/USDT", "ETH/BTC"}
	d := NewDispatcher(2, 8, symbols, nil, nil, nil)

	assert.Equal(t, 0, d.workerFor("BTC/USDT"))
	assert.Equal(t, 1, d.workerFor("ETH/USDT"))
	assert.Equal(t, 0, d.workerFor("ETH/BTC"))

	// Unregistered symbols still map onto a real worker.
	w := d.workerFor("DOGE/USDT")
	assert.GreaterOrEqual(t, w, 0)
	assert.Less(t, w, 2)
	assert.Equal(t, w, d.workerFor("DOGE/USDT"))
}

func TestDispatcherShedsOldestWhenFull(t *testing.T) {
	metrics := obs.NewMetrics()
	d := NewDispatcher(1, 2, []string{"BTC/USDT"}, nil, metrics, nil)

	for seq := uint64(1); seq <= 5; seq++ {
		d.Offer(domain.QuoteUpdate{Symbol: "BTC/USDT", Seq: seq})
	}
	assert.Equal(t, uint64(3), d.Drops())
	assert.Equal(t, uint64(3), metrics.Snapshot().FeedDrops)
	assert.Equal(t, 2, d.Depth())

	// The survivors are the newest records.
	var got []uint64
	d.handler = func(ctx context.Context, u domain.QuoteUpdate) error {
		got = append(got, u.Seq)
		return nil
	}
	d.Close()
	require.NoError(t, d.Run(context.Background()))
	assert.Equal(t, []uint64{4, 5}, got)
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	d := NewDispatcher(2, 8, []string{"BTC/USDT"}, func(ctx context.Context, u domain.QuoteUpdate) error {
		return nil
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
}
