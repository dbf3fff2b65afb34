package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownExchange = errors.New("unknown exchange")
	ErrUnknownSymbol   = errors.New("unknown symbol")
	ErrInvalidQuote    = errors.New("invalid quote")
	ErrStaleSequence   = errors.New("stale or duplicate sequence")
	ErrInvalidPair     = errors.New("invalid pair")
	ErrInvalidTriangle = errors.New("invalid triangle")
	ErrPrecision       = errors.New("precision exceeds scale")
	ErrNumericRange    = errors.New("value outside numeric range")
	ErrRateLimited     = errors.New("rate limited")
	ErrLockHeld        = errors.New("lock already held")
	ErrWSDisconnect    = errors.New("websocket disconnected")
)
