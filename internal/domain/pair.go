package domain

import (
	"fmt"
	"strings"
)

// Pair identifies an instrument as BASE/QUOTE; the price of a pair is
// quote units per base unit.
type Pair struct {
	Base  string
	Quote string
}

// ParsePair parses "BASE/QUOTE" symbol syntax.
func ParsePair(symbol string) (Pair, error) {
	base, quote, ok := strings.Cut(symbol, "/")
	if !ok || base == "" || quote == "" {
		return Pair{}, fmt.Errorf("domain: malformed pair symbol %q: %w", symbol, ErrInvalidPair)
	}
	if base == quote {
		return Pair{}, fmt.Errorf("domain: pair %q trades a currency against itself: %w", symbol, ErrInvalidPair)
	}
	return Pair{Base: base, Quote: quote}, nil
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Triangle is a closed three-currency cycle over pairs A/B, B/C and A/C.
// The leg order is significant: both round-trip evaluations derive from it.
type Triangle struct {
	AB Pair
	BC Pair
	AC Pair
}

// NewTriangle validates that the three leg symbols form a closed cycle over
// exactly three distinct currencies. An inconsistent triple is a
// configuration error, rejected before the engine starts.
func NewTriangle(ab, bc, ac string) (Triangle, error) {
	legAB, err := ParsePair(ab)
	if err != nil {
		return Triangle{}, err
	}
	legBC, err := ParsePair(bc)
	if err != nil {
		return Triangle{}, err
	}
	legAC, err := ParsePair(ac)
	if err != nil {
		return Triangle{}, err
	}
	a, b := legAB.Base, legAB.Quote
	if legBC.Base != b {
		return Triangle{}, fmt.Errorf("domain: triangle leg %s does not continue %s: %w", bc, ab, ErrInvalidTriangle)
	}
	c := legBC.Quote
	if legAC.Base != a || legAC.Quote != c {
		return Triangle{}, fmt.Errorf("domain: triangle leg %s does not close cycle %s,%s: %w", ac, ab, bc, ErrInvalidTriangle)
	}
	return Triangle{AB: legAB, BC: legBC, AC: legAC}, nil
}

// Symbols returns the three leg symbols in definition order.
func (t Triangle) Symbols() [3]string {
	return [3]string{t.AB.String(), t.BC.String(), t.AC.String()}
}

func (t Triangle) String() string {
	return t.AB.String() + "," + t.BC.String() + "," + t.AC.String()
}
