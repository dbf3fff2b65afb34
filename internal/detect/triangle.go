package detect

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/arblab/arbcore/internal/domain"
)

// TriangleScale is the fixed scale for round-trip multipliers: a value of
// exactly TriangleScale means the cycle returns precisely the starting
// amount.
const TriangleScale int64 = 1_000_000

// Triangular evaluates one configured three-leg cycle A/B, B/C, A/C on a
// single exchange. Two directions exist:
//
//	path 1: A -> B -> C -> A   sell A/B, sell B/C, buy A/C
//	path 2: A -> C -> B -> A   sell A/C, buy B/C, buy A/B
//
// Multipliers are computed in integer arithmetic with big.Int
// intermediates, so overflow is unreachable regardless of price scale.
type Triangular struct {
	def        domain.Triangle
	threshold  int64 // strict lower bound for a profitable multiplier
	priceScale int64
}

// NewTriangular builds a detector for a validated triangle. minProfitBps
// and priceDecimals come from validated config.
func NewTriangular(def domain.Triangle, minProfitBps int64, priceDecimals int) *Triangular {
	return &Triangular{
		def:        def,
		threshold:  TriangleScale + TriangleScale/10_000*minProfitBps,
		priceScale: domain.Pow10(priceDecimals),
	}
}

// Definition returns the triangle this detector evaluates.
func (t *Triangular) Definition() domain.Triangle {
	return t.def
}

// Evaluate computes both round-trip multipliers from the three legs' best
// quotes on one exchange and reports the more profitable direction if it
// clears the threshold strictly. Equal profits resolve to path 1. The
// boolean reports whether an opportunity was found; the int counts paths
// dropped because the multiplier left int64 range (garbage prices).
func (t *Triangular) Evaluate(exchange string, ab, bc, ac domain.BestQuote, now time.Time) (domain.TriangularOpportunity, bool, int) {
	if !ab.Tradable() || !bc.Tradable() || !ac.Tradable() {
		return domain.TriangularOpportunity{}, false, 0
	}

	skipped := 0
	p1, ok1 := int64(0), false
	if ab.BestBid > 0 && bc.BestBid > 0 && ac.BestAsk > 0 {
		m, ok := mulDiv3(TriangleScale, int64(ab.BestBid), int64(bc.BestBid), int64(ac.BestAsk), t.priceScale)
		if !ok {
			skipped++
		} else {
			p1, ok1 = m, true
		}
	}
	p2, ok2 := int64(0), false
	if ac.BestBid > 0 && ab.BestAsk > 0 && bc.BestAsk > 0 {
		m, ok := mulDiv3(TriangleScale, int64(ac.BestBid), t.priceScale, int64(ab.BestAsk), int64(bc.BestAsk))
		if !ok {
			skipped++
		} else {
			p2, ok2 = m, true
		}
	}

	pass1 := ok1 && p1 > t.threshold
	pass2 := ok2 && p2 > t.threshold
	var bps1, bps2 int64
	if pass1 {
		bps1 = profitBps(p1)
	}
	if pass2 {
		bps2 = profitBps(p2)
	}
	path, mult := 0, int64(0)
	switch {
	case pass1 && (!pass2 || bps1 >= bps2):
		path, mult = 1, p1
	case pass2:
		path, mult = 2, p2
	default:
		return domain.TriangularOpportunity{}, false, skipped
	}

	return domain.TriangularOpportunity{
		ID:         uuid.Must(uuid.NewRandom()).String(),
		Exchange:   exchange,
		Triangle:   t.def.String(),
		Legs:       t.def.Symbols(),
		LegBids:    [3]domain.FixedPoint{ab.BestBid, bc.BestBid, ac.BestBid},
		LegAsks:    [3]domain.FixedPoint{ab.BestAsk, bc.BestAsk, ac.BestAsk},
		PathID:     path,
		Multiplier: mult,
		ProfitBps:  profitBps(mult),
		DetectedAt: now,
	}, true, skipped
}

// profitBps converts a profitable multiplier into truncated basis points
// above break-even.
func profitBps(m int64) int64 {
	return (m - TriangleScale) / (TriangleScale / 10_000)
}

// mulDiv3 returns a*b*c/(d*e) truncated toward zero, or ok=false when the
// result leaves int64 range or the denominator is zero.
func mulDiv3(a, b, c, d, e int64) (int64, bool) {
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	prod.Mul(prod, big.NewInt(c))
	den := new(big.Int).Mul(big.NewInt(d), big.NewInt(e))
	if den.Sign() == 0 {
		return 0, false
	}
	prod.Quo(prod, den)
	if !prod.IsInt64() {
		return 0, false
	}
	return prod.Int64(), true
}
