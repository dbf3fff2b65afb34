package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFixed(t *testing.T) {
	v, err := ParseFixed("105.25", 8)
	require.NoError(t, err)
	assert.Equal(t, FixedPoint(10_525_000_000), v)

	v, err = ParseFixed("-0.00000001", 8)
	require.NoError(t, err)
	assert.Equal(t, FixedPoint(-1), v)

	v, err = ParseFixed("42", 0)
	require.NoError(t, err)
	assert.Equal(t, FixedPoint(42), v)
}

func TestParseFixedRejectsExcessPrecision(t *testing.T) {
	_, err := ParseFixed("1.123456789", 8)
	require.ErrorIs(t, err, ErrPrecision)
}

func TestParseFixedRejectsGarbageAndOverflow(t *testing.T) {
	_, err := ParseFixed("not-a-number", 8)
	require.Error(t, err)

	_, err = ParseFixed("99999999999999999999", 8)
	require.ErrorIs(t, err, ErrNumericRange)
}

func TestFormatFixed(t *testing.T) {
	assert.Equal(t, "105.25000000", FormatFixed(10_525_000_000, 8))
	assert.Equal(t, "0.00000001", FormatFixed(1, 8))
	assert.Equal(t, "-3.50", FormatFixed(-350, 2))
	assert.Equal(t, "42", FormatFixed(42, 0))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, raw := range []FixedPoint{0, 1, -1, 123_456_789, -987_654_321_012} {
		s := FormatFixed(raw, 8)
		back, err := ParseFixed(s, 8)
		require.NoError(t, err)
		assert.Equal(t, raw, back, "round trip of %s", s)
	}
}

func TestMulDivTruncatesTowardZero(t *testing.T) {
	got, err := MulDiv(7, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(23), got) // 70/3 = 23.33..

	got, err = MulDiv(-7, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(-23), got)
}

func TestMulDivWideIntermediate(t *testing.T) {
	// a*b overflows int64; the result does not.
	a := int64(5_000_000_000_000_000_000)
	got, err := MulDiv(a, 10_000, 10_000)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestMulDivResultOverflow(t *testing.T) {
	_, err := MulDiv(math.MaxInt64, 10_000, 1)
	require.ErrorIs(t, err, ErrNumericRange)

	_, err = MulDiv(1, 1, 0)
	require.ErrorIs(t, err, ErrNumericRange)
}

func TestBasisPoints(t *testing.T) {
	// bid 105.00 vs ask 100.00 at two decimals: 500 bps.
	bps, err := BasisPoints(10_500-10_000, 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(500), bps)

	// Truncation, never rounding: 1.9999..% stays 199 bps.
	bps, err = BasisPoints(19_999, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, int64(199), bps)
}
