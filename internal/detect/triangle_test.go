package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
)

func mustTriangle(t *testing.T) domain.Triangle {
	t.Helper()
	tri, err := domain.NewTriangle("ETH/BTC", "BTC/USDT", "ETH/USDT")
	require.NoError(t, err)
	return tri
}

func leg(symbol string, bid, ask domain.FixedPoint) domain.BestQuote {
	return domain.BestQuote{
		Exchange: "binance",
		Symbol:   symbol,
		BestBid:  bid,
		BidQty:   fp(1),
		BestAsk:  ask,
		AskQty:   fp(1),
		Seq:      1,
	}
}

func TestTriangularForwardPath(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	// Selling 1 ETH -> 0.05 BTC -> 3000 USDT buys back ETH at 2990:
	// 0.05 * 60000 / 2990 = 1.0033.. round trip.
	ab := leg("ETH/BTC", fp(0.05), fp(0.0501))
	bc := leg("BTC/USDT", 6_000_000_000_000, 6_001_000_000_000)
	ac := leg("ETH/USDT", 298_900_000_000, 299_000_000_000)

	opp, found, skipped := d.Evaluate("binance", ab, bc, ac, time.Unix(7, 0))
	require.True(t, found)
	require.Zero(t, skipped)

	assert.Equal(t, 1, opp.PathID)
	assert.Equal(t, int64(1_003_344), opp.Multiplier)
	assert.Equal(t, int64(33), opp.ProfitBps)
	assert.Equal(t, "binance", opp.Exchange)
	assert.Equal(t, "ETH/BTC,BTC/USDT,ETH/USDT", opp.Triangle)
	assert.Equal(t, [3]string{"ETH/BTC", "BTC/USDT", "ETH/USDT"}, opp.Legs)
	assert.Equal(t, time.Unix(7, 0), opp.DetectedAt)
	assert.NotEmpty(t, opp.ID)
}

func TestTriangularBreakEvenBoundaryIsStrict(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	// bid(A/B)=0.1, ask(A/C)=100 make the multiplier bid(B/C)/1e5 exactly,
	// so bid(B/C)=1001.00000000 lands precisely on the 1_001_000 threshold.
	ab := leg("ETH/BTC", fp(0.1), 0)
	bc := leg("BTC/USDT", 100_100_000_000, 0)
	ac := leg("ETH/USDT", 0, fp(100))

	_, found, _ := d.Evaluate("binance", ab, bc, ac, time.Now())
	assert.False(t, found, "exactly at threshold must not trigger")

	// One multiplier unit above the threshold triggers.
	bc.BestBid += 100_000
	opp, found, _ := d.Evaluate("binance", ab, bc, ac, time.Now())
	require.True(t, found)
	assert.Equal(t, int64(1_001_001), opp.Multiplier)
	assert.Equal(t, 1, opp.PathID)
	assert.Equal(t, int64(10), opp.ProfitBps)
}

func TestTriangularProfitBpsTruncates(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	// Multiplier 1_001_099: 10.99 bps above break-even reports truncated 10.
	ab := leg("ETH/BTC", fp(0.1), 0)
	bc := leg("BTC/USDT", 100_109_900_000, 0)
	ac := leg("ETH/USDT", 0, fp(100))

	opp, found, _ := d.Evaluate("binance", ab, bc, ac, time.Now())
	require.True(t, found)
	assert.Equal(t, int64(1_001_099), opp.Multiplier)
	assert.Equal(t, int64(10), opp.ProfitBps)
}

func TestTriangularReversePath(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	// Forward direction has no edge; selling ETH for USDT, buying BTC,
	// then buying ETH back with BTC returns 1.0033..
	ab := leg("ETH/BTC", fp(0.0499), fp(0.05))
	bc := leg("BTC/USDT", 5_990_000_000_000, 6_000_000_000_000)
	ac := leg("ETH/USDT", 301_000_000_000, 301_100_000_000)

	opp, found, skipped := d.Evaluate("binance", ab, bc, ac, time.Unix(9, 0))
	require.True(t, found)
	require.Zero(t, skipped)
	assert.Equal(t, 2, opp.PathID)

	// 1e6 * 3010e8 * 1e8 / (0.05e8 * 60000e8) = 1_003_333.
	assert.Equal(t, int64(1_003_333), opp.Multiplier)
	assert.Equal(t, int64(33), opp.ProfitBps)
}

func TestTriangularPicksHigherProfitPath(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	// Hand-built quotes make both directions profitable (only garbage
	// feeds do this; the policy still has to be deterministic).
	ab := leg("ETH/BTC", fp(1.1), fp(1))
	bc := leg("BTC/USDT", fp(1), fp(1))
	ac := leg("ETH/USDT", fp(1.05), fp(1))

	opp, found, _ := d.Evaluate("binance", ab, bc, ac, time.Now())
	require.True(t, found)
	assert.Equal(t, 1, opp.PathID, "path 1 yields 1000 bps vs 500")
	assert.Equal(t, int64(1_100_000), opp.Multiplier)
	assert.Equal(t, int64(1000), opp.ProfitBps)

	// Flip the edge to the reverse direction.
	ab.BestBid, ac.BestBid = fp(1.05), fp(1.1)
	opp, found, _ = d.Evaluate("binance", ab, bc, ac, time.Now())
	require.True(t, found)
	assert.Equal(t, 2, opp.PathID)
	assert.Equal(t, int64(1000), opp.ProfitBps)
}

func TestTriangularEqualProfitTieBreaksToPathOne(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	ab := leg("ETH/BTC", fp(1.1), fp(1))
	bc := leg("BTC/USDT", fp(1), fp(1))
	ac := leg("ETH/USDT", fp(1.1), fp(1))

	opp, found, _ := d.Evaluate("binance", ab, bc, ac, time.Now())
	require.True(t, found)
	assert.Equal(t, 1, opp.PathID)
	assert.Equal(t, int64(1000), opp.ProfitBps)
}

func TestTriangularSkipsCrossedLegs(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	ab := leg("ETH/BTC", fp(0.05), fp(0.0501))
	bc := leg("BTC/USDT", 6_000_000_000_000, 6_001_000_000_000)
	ac := leg("ETH/USDT", 298_900_000_000, 299_000_000_000)
	ac.Crossed = true

	_, found, _ := d.Evaluate("binance", ab, bc, ac, time.Now())
	assert.False(t, found, "a crossed leg parks the whole triangle")
}

func TestTriangularNeedsAllLegQuotes(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	// No ask on A/C kills path 1; no bid on A/C kills path 2.
	ab := leg("ETH/BTC", fp(0.05), fp(0.0501))
	bc := leg("BTC/USDT", 6_000_000_000_000, 6_001_000_000_000)
	ac := leg("ETH/USDT", 0, 0)

	_, found, skipped := d.Evaluate("binance", ab, bc, ac, time.Now())
	assert.False(t, found)
	assert.Zero(t, skipped)
}

func TestTriangularCountsNumericGarbage(t *testing.T) {
	d := NewTriangular(mustTriangle(t), 10, 8)

	ab := leg("ETH/BTC", 1_000_000_000_000_000, 0)
	bc := leg("BTC/USDT", 1_000_000_000_000_000, 0)
	ac := leg("ETH/USDT", 0, 1)

	_, found, skipped := d.Evaluate("binance", ab, bc, ac, time.Now())
	assert.False(t, found)
	assert.Equal(t, 1, skipped)
}
