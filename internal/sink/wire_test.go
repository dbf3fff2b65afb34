package sink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
)

func TestEncoderCross(t *testing.T) {
	enc := NewEncoder(8, 8)
	data, err := enc.Cross(domain.CrossExchangeOpportunity{
		ID:           "id-1",
		Symbol:       "BTC/USDT",
		BuyExchange:  "beta",
		SellExchange: "alpha",
		BuyPrice:     10_000_000_000,
		SellPrice:    10_500_000_000,
		BuyQty:       150_000_000,
		SellQty:      50_000_000,
		ProfitBps:    500,
		DetectedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"event": "cross_exchange",
		"id": "id-1",
		"symbol": "BTC/USDT",
		"buy_exchange": "beta",
		"sell_exchange": "alpha",
		"buy_price": "100.00000000",
		"sell_price": "105.00000000",
		"buy_qty": "1.50000000",
		"sell_qty": "0.50000000",
		"profit_bps": 500,
		"detected_at": "2026-03-01T12:00:00Z"
	}`, string(data))
}

func TestEncoderTriangular(t *testing.T) {
	enc := NewEncoder(2, 2)
	data, err := enc.Triangular(domain.TriangularOpportunity{
		ID:         "id-2",
		Exchange:   "alpha",
		Triangle:   "ETH/BTC,BTC/USDT,ETH/USDT",
		Legs:       [3]string{"ETH/BTC", "BTC/USDT", "ETH/USDT"},
		LegBids:    [3]domain.FixedPoint{5, 6_500_000, 325_010},
		LegAsks:    [3]domain.FixedPoint{6, 6_500_100, 325_000},
		PathID:     1,
		Multiplier: 1_003_344,
		ProfitBps:  33,
		DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"event": "triangular",
		"id": "id-2",
		"exchange": "alpha",
		"triangle": "ETH/BTC,BTC/USDT,ETH/USDT",
		"legs": ["ETH/BTC", "BTC/USDT", "ETH/USDT"],
		"leg_bids": ["0.05", "65000.00", "3250.10"],
		"leg_asks": ["0.06", "65001.00", "3250.00"],
		"path_id": 1,
		"multiplier": 1003344,
		"profit_bps": 33,
		"detected_at": "2026-03-01T12:00:00Z"
	}`, string(data))
}
