package book

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
)

func upd(seq uint64, side domain.Side, price, qty domain.FixedPoint) domain.QuoteUpdate {
	return domain.QuoteUpdate{
		Exchange: "binance",
		Symbol:   "ETH/BTC",
		Side:     side,
		Price:    price,
		Quantity: qty,
		Seq:      seq,
		Time:     time.Unix(0, int64(seq)),
	}
}

func assertLadderInvariants(t *testing.T, levels []domain.PriceLevel, depth int, desc bool) {
	t.Helper()
	require.LessOrEqual(t, len(levels), depth)
	for i := 1; i < len(levels); i++ {
		if desc {
			require.Greater(t, levels[i-1].Price, levels[i].Price, "bids must be strictly descending")
		} else {
			require.Less(t, levels[i-1].Price, levels[i].Price, "asks must be strictly ascending")
		}
	}
	for _, lv := range levels {
		require.Positive(t, lv.Quantity, "resting levels never carry zero quantity")
	}
}

func TestApplyInsertSortedBothSides(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)

	for i, price := range []domain.FixedPoint{100, 300, 200} {
		_, err := b.Apply(upd(uint64(i+1), domain.SideBid, price, 10))
		require.NoError(t, err)
	}
	for i, price := range []domain.FixedPoint{700, 500, 600} {
		_, err := b.Apply(upd(uint64(i+4), domain.SideAsk, price, 10))
		require.NoError(t, err)
	}

	assert.Equal(t, []domain.PriceLevel{{Price: 300, Quantity: 10}, {Price: 200, Quantity: 10}, {Price: 100, Quantity: 10}},
		b.Levels(domain.SideBid))
	assert.Equal(t, []domain.PriceLevel{{Price: 500, Quantity: 10}, {Price: 600, Quantity: 10}, {Price: 700, Quantity: 10}},
		b.Levels(domain.SideAsk))

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, domain.FixedPoint(300), bid.Price)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, domain.FixedPoint(500), ask.Price)
}

func TestApplyReplaceInPlace(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	for i, price := range []domain.FixedPoint{300, 200, 100} {
		_, err := b.Apply(upd(uint64(i+1), domain.SideBid, price, 10))
		require.NoError(t, err)
	}

	_, err := b.Apply(upd(4, domain.SideBid, 200, 77))
	require.NoError(t, err)

	got := b.Levels(domain.SideBid)
	assert.Equal(t, []domain.PriceLevel{{Price: 300, Quantity: 10}, {Price: 200, Quantity: 77}, {Price: 100, Quantity: 10}}, got,
		"replace changes neither size nor order")
}

func TestApplyDeletePromotesNextBest(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	_, err := b.Apply(upd(1, domain.SideAsk, 500, 10))
	require.NoError(t, err)
	_, err = b.Apply(upd(2, domain.SideAsk, 600, 20))
	require.NoError(t, err)

	snap, err := b.Apply(upd(3, domain.SideAsk, 500, 0))
	require.NoError(t, err)
	assert.Equal(t, domain.FixedPoint(600), snap.BestAsk)
	assert.Equal(t, domain.FixedPoint(20), snap.AskQty)

	snap, err = b.Apply(upd(4, domain.SideAsk, 600, 0))
	require.NoError(t, err)
	assert.Zero(t, snap.BestAsk, "deleting the last level empties the side")
	_, ok := b.BestAsk()
	assert.False(t, ok)
}

func TestApplyDeleteAbsentIsAcceptedNoOp(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	_, err := b.Apply(upd(1, domain.SideBid, 300, 10))
	require.NoError(t, err)

	snap, err := b.Apply(upd(2, domain.SideBid, 250, 0))
	require.NoError(t, err, "absent delete is not an error")
	assert.Equal(t, uint64(2), b.LastSeq(), "accepted records advance the sequence")
	assert.Equal(t, domain.FixedPoint(300), snap.BestBid)
	assert.Len(t, b.Levels(domain.SideBid), 1)
}

func TestApplyRejectsStaleSequence(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	_, err := b.Apply(upd(10, domain.SideBid, 300, 10))
	require.NoError(t, err)

	_, err = b.Apply(upd(10, domain.SideBid, 301, 10))
	require.ErrorIs(t, err, domain.ErrStaleSequence)
	_, err = b.Apply(upd(9, domain.SideBid, 302, 10))
	require.ErrorIs(t, err, domain.ErrStaleSequence)

	assert.Equal(t, []domain.PriceLevel{{Price: 300, Quantity: 10}}, b.Levels(domain.SideBid),
		"rejected records leave the book untouched")
	assert.Equal(t, uint64(10), b.LastSeq())
}

func TestApplyEvictsWorstAtDepth(t *testing.T) {
	b := New("binance", "ETH/BTC", 3)
	for i, price := range []domain.FixedPoint{300, 200, 100} {
		_, err := b.Apply(upd(uint64(i+1), domain.SideBid, price, 10))
		require.NoError(t, err)
	}

	// Better than the worst: lands, 100 falls off.
	_, err := b.Apply(upd(4, domain.SideBid, 250, 5))
	require.NoError(t, err)
	assert.Equal(t, []domain.PriceLevel{{Price: 300, Quantity: 10}, {Price: 250, Quantity: 5}, {Price: 200, Quantity: 10}},
		b.Levels(domain.SideBid))

	// Worse than the whole full ladder: never lands, seq still consumed.
	_, err = b.Apply(upd(5, domain.SideBid, 50, 5))
	require.NoError(t, err)
	assert.Len(t, b.Levels(domain.SideBid), 3)
	assert.Equal(t, domain.FixedPoint(200), b.Levels(domain.SideBid)[2].Price)
	assert.Equal(t, uint64(5), b.LastSeq())
}

func TestApplyInverseRestoresBook(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	for i, price := range []domain.FixedPoint{300, 200, 100} {
		_, err := b.Apply(upd(uint64(i+1), domain.SideBid, price, 10))
		require.NoError(t, err)
	}
	before := b.Levels(domain.SideBid)

	_, err := b.Apply(upd(4, domain.SideBid, 150, 42))
	require.NoError(t, err)
	_, err = b.Apply(upd(5, domain.SideBid, 150, 0))
	require.NoError(t, err)

	assert.Equal(t, before, b.Levels(domain.SideBid))
}

func TestCrossedFlagSetsAndClears(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	_, err := b.Apply(upd(1, domain.SideBid, 100, 10))
	require.NoError(t, err)
	snap, err := b.Apply(upd(2, domain.SideAsk, 105, 10))
	require.NoError(t, err)
	assert.False(t, snap.Crossed)

	// Bid rises through the ask.
	snap, err = b.Apply(upd(3, domain.SideBid, 105, 10))
	require.NoError(t, err)
	assert.True(t, snap.Crossed)
	assert.False(t, snap.Tradable())

	// The offending bid disappears.
	snap, err = b.Apply(upd(4, domain.SideBid, 105, 0))
	require.NoError(t, err)
	assert.False(t, snap.Crossed)
	assert.True(t, snap.Tradable())
}

func TestBestSnapshotTracksWriter(t *testing.T) {
	b := New("binance", "ETH/BTC", 5)
	assert.Equal(t, "binance", b.Best().Exchange)
	assert.False(t, b.Best().TwoSided())

	_, err := b.Apply(upd(1, domain.SideBid, 100, 7))
	require.NoError(t, err)
	_, err = b.Apply(upd(2, domain.SideAsk, 110, 9))
	require.NoError(t, err)

	snap := b.Best()
	assert.Equal(t, domain.FixedPoint(100), snap.BestBid)
	assert.Equal(t, domain.FixedPoint(7), snap.BidQty)
	assert.Equal(t, domain.FixedPoint(110), snap.BestAsk)
	assert.Equal(t, domain.FixedPoint(9), snap.AskQty)
	assert.Equal(t, uint64(2), snap.Seq)
	assert.True(t, snap.TwoSided())
}

func TestLadderInvariantsUnderRandomChurn(t *testing.T) {
	const depth = 8
	b := New("binance", "ETH/BTC", depth)
	rng := rand.New(rand.NewSource(1))

	seq := uint64(0)
	for i := 0; i < 5000; i++ {
		seq++
		side := domain.SideBid
		if rng.Intn(2) == 1 {
			side = domain.SideAsk
		}
		price := domain.FixedPoint(1 + rng.Intn(40))
		qty := domain.FixedPoint(rng.Intn(5)) // includes deletes
		_, err := b.Apply(upd(seq, side, price, qty))
		require.NoError(t, err)

		assertLadderInvariants(t, b.Levels(domain.SideBid), depth, true)
		assertLadderInvariants(t, b.Levels(domain.SideAsk), depth, false)
	}
}
