package domain

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// FixedPoint is a price or quantity scaled by 10^decimals. All book and
// detector arithmetic stays in scaled integers; floats never enter the
// engine.
type FixedPoint int64

// DefaultDecimals is the scale used when the config does not override it.
const DefaultDecimals = 8

// MaxDecimals bounds the configurable scale so Pow10 stays in int64 range
// with headroom for ratio math.
const MaxDecimals = 12

var pow10 = [MaxDecimals + 1]int64{
	1, 10, 100, 1_000, 10_000, 100_000, 1_000_000,
	10_000_000, 100_000_000, 1_000_000_000, 10_000_000_000,
	100_000_000_000, 1_000_000_000_000,
}

// Pow10 returns 10^n for n in [0, MaxDecimals]. Panics outside that range;
// config validation rejects such scales before the engine starts.
func Pow10(n int) int64 {
	if n < 0 || n > MaxDecimals {
		panic(fmt.Sprintf("domain: pow10 exponent %d out of range", n))
	}
	return pow10[n]
}

// ParseFixed converts a decimal string into a FixedPoint at the given
// scale. Excess fractional digits are an error, not a silent rounding.
func ParseFixed(s string, decimals int) (FixedPoint, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("domain: parse fixed-point %q: %w", s, err)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("domain: %q has more than %d decimal places: %w", s, decimals, ErrPrecision)
	}
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("domain: %q overflows fixed-point range: %w", s, ErrNumericRange)
	}
	return FixedPoint(bi.Int64()), nil
}

// FormatFixed renders a FixedPoint as a decimal string at the given scale.
func FormatFixed(v FixedPoint, decimals int) string {
	u := int64(v)
	neg := u < 0
	if neg {
		u = -u
	}
	scale := Pow10(decimals)
	whole := u / scale
	frac := u % scale

	buf := make([]byte, 0, 24)
	if neg {
		buf = append(buf, '-')
	}
	buf = strconv.AppendInt(buf, whole, 10)
	if decimals > 0 {
		buf = append(buf, '.')
		fs := strconv.FormatInt(frac, 10)
		for i := len(fs); i < decimals; i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, fs...)
	}
	return string(buf)
}

// MulDiv computes a*b/den with truncation toward zero. The intermediate
// product is widened through math/big when it would overflow int64, so the
// result is exact for any inputs; results outside int64 report
// ErrNumericRange.
func MulDiv(a, b, den int64) (int64, error) {
	if den == 0 {
		return 0, fmt.Errorf("domain: mul-div by zero: %w", ErrNumericRange)
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	aa, ab := abs64(a), abs64(b)
	// abs64(MinInt64) stays negative; such inputs take the big.Int path.
	if aa > 0 && ab > 0 && aa <= math.MaxInt64/ab {
		return a * b / den, nil
	}
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	prod.Quo(prod, big.NewInt(den))
	if !prod.IsInt64() {
		return 0, fmt.Errorf("domain: mul-div result overflows int64: %w", ErrNumericRange)
	}
	return prod.Int64(), nil
}

// BasisPoints returns num*10000/den, truncated. This is the profit unit
// both detectors report in.
func BasisPoints(num, den int64) (int64, error) {
	return MulDiv(num, 10_000, den)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
