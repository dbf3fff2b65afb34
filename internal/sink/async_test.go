package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/obs"
)

// captureSink records everything it receives and can be told to fail.
type captureSink struct {
	cross []domain.CrossExchangeOpportunity
	tris  []domain.TriangularOpportunity
	fail  error
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	if c.fail != nil {
		return c.fail
	}
	c.cross = append(c.cross, opp)
	return nil
}

func (c *captureSink) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	if c.fail != nil {
		return c.fail
	}
	c.tris = append(c.tris, opp)
	return nil
}

func crossOpp(id string) domain.CrossExchangeOpportunity {
	return domain.CrossExchangeOpportunity{
		ID:           id,
		Symbol:       "BTC/USDT",
		BuyExchange:  "beta",
		SellExchange: "alpha",
		BuyPrice:     100_0000_0000,
		SellPrice:    105_0000_0000,
		ProfitBps:    500,
		DetectedAt:   time.Unix(1_700_000_000, 0).UTC(),
	}
}

func TestAsyncSinkFansOutInOrder(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	s := NewAsync(16, []domain.OpportunitySink{a, b}, nil, nil)

	ctx := context.Background()
	require.NoError(t, s.PublishCross(ctx, crossOpp("c1")))
	require.NoError(t, s.PublishTriangular(ctx, domain.TriangularOpportunity{ID: "t1", Exchange: "alpha"}))
	require.NoError(t, s.PublishCross(ctx, crossOpp("c2")))

	s.Close()
	require.NoError(t, s.Run(ctx))

	for _, c := range []*captureSink{a, b} {
		require.Len(t, c.cross, 2)
		assert.Equal(t, "c1", c.cross[0].ID)
		assert.Equal(t, "c2", c.cross[1].ID)
		require.Len(t, c.tris, 1)
		assert.Equal(t, "t1", c.tris[0].ID)
	}
}

func TestAsyncSinkShedsOldestWhenFull(t *testing.T) {
	metrics := obs.NewMetrics()
	out := &captureSink{}
	s := NewAsync(2, []domain.OpportunitySink{out}, metrics, nil)

	ctx := context.Background()
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		require.NoError(t, s.PublishCross(ctx, crossOpp(id)))
	}
	assert.Equal(t, uint64(2), s.Drops())
	assert.Equal(t, uint64(2), metrics.Snapshot().SinkDrops)

	s.Close()
	require.NoError(t, s.Run(ctx))
	require.Len(t, out.cross, 2)
	assert.Equal(t, "c3", out.cross[0].ID)
	assert.Equal(t, "c4", out.cross[1].ID)
}

func TestAsyncSinkIsolatesDestinationFailures(t *testing.T) {
	metrics := obs.NewMetrics()
	bad := &captureSink{fail: errors.New("broker down")}
	good := &captureSink{}
	s := NewAsync(16, []domain.OpportunitySink{bad, good}, metrics, nil)

	ctx := context.Background()
	require.NoError(t, s.PublishCross(ctx, crossOpp("c1")))
	s.Close()
	require.NoError(t, s.Run(ctx))

	assert.Empty(t, bad.cross)
	require.Len(t, good.cross, 1)
	assert.Equal(t, uint64(1), metrics.Snapshot().SinkErrors)
}

func TestAsyncSinkStopsOnCancel(t *testing.T) {
	s := NewAsync(16, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop after cancel")
	}
}
