package sink

import (
	"encoding/json"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// crossEvent is the JSON shape published for cross-exchange opportunities.
// Prices travel as decimal strings so consumers never see scaled integers.
type crossEvent struct {
	Event        string    `json:"event"`
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	BuyExchange  string    `json:"buy_exchange"`
	SellExchange string    `json:"sell_exchange"`
	BuyPrice     string    `json:"buy_price"`
	SellPrice    string    `json:"sell_price"`
	BuyQty       string    `json:"buy_qty"`
	SellQty      string    `json:"sell_qty"`
	ProfitBps    int64     `json:"profit_bps"`
	DetectedAt   time.Time `json:"detected_at"`
}

// triangleEvent is the JSON shape published for triangular opportunities.
type triangleEvent struct {
	Event      string    `json:"event"`
	ID         string    `json:"id"`
	Exchange   string    `json:"exchange"`
	Triangle   string    `json:"triangle"`
	Legs       [3]string `json:"legs"`
	LegBids    [3]string `json:"leg_bids"`
	LegAsks    [3]string `json:"leg_asks"`
	PathID     int       `json:"path_id"`
	Multiplier int64     `json:"multiplier"`
	ProfitBps  int64     `json:"profit_bps"`
	DetectedAt time.Time `json:"detected_at"`
}

// Encoder renders opportunities into the JSON wire shape shared by the
// bus and Kafka sinks.
type Encoder struct {
	priceDec int
	qtyDec   int
}

// NewEncoder creates an encoder for the configured scales.
func NewEncoder(priceDecimals, qtyDecimals int) Encoder {
	return Encoder{priceDec: priceDecimals, qtyDec: qtyDecimals}
}

// Cross encodes a cross-exchange opportunity.
func (e Encoder) Cross(opp domain.CrossExchangeOpportunity) ([]byte, error) {
	return json.Marshal(crossEvent{
		Event:        string(domain.OpportunityCrossExchange),
		ID:           opp.ID,
		Symbol:       opp.Symbol,
		BuyExchange:  opp.BuyExchange,
		SellExchange: opp.SellExchange,
		BuyPrice:     domain.FormatFixed(opp.BuyPrice, e.priceDec),
		SellPrice:    domain.FormatFixed(opp.SellPrice, e.priceDec),
		BuyQty:       domain.FormatFixed(opp.BuyQty, e.qtyDec),
		SellQty:      domain.FormatFixed(opp.SellQty, e.qtyDec),
		ProfitBps:    opp.ProfitBps,
		DetectedAt:   opp.DetectedAt,
	})
}

// Triangular encodes a triangular opportunity.
func (e Encoder) Triangular(opp domain.TriangularOpportunity) ([]byte, error) {
	ev := triangleEvent{
		Event:      string(domain.OpportunityTriangular),
		ID:         opp.ID,
		Exchange:   opp.Exchange,
		Triangle:   opp.Triangle,
		Legs:       opp.Legs,
		PathID:     opp.PathID,
		Multiplier: opp.Multiplier,
		ProfitBps:  opp.ProfitBps,
		DetectedAt: opp.DetectedAt,
	}
	for i := range opp.LegBids {
		ev.LegBids[i] = domain.FormatFixed(opp.LegBids[i], e.priceDec)
		ev.LegAsks[i] = domain.FormatFixed(opp.LegAsks[i], e.priceDec)
	}
	return json.Marshal(ev)
}
