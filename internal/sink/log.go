package sink

import (
	"context"
	"log/slog"

	"github.com/arblab/arbcore/internal/domain"
)

// LogSink writes every opportunity to the structured log. It is the one
// destination that is always on.
type LogSink struct {
	logger   *slog.Logger
	priceDec int
}

var _ domain.OpportunitySink = (*LogSink)(nil)

// NewLog creates a log destination rendering prices at the given scale.
func NewLog(logger *slog.Logger, priceDecimals int) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{
		logger:   logger.With(slog.String("component", "opportunity_log")),
		priceDec: priceDecimals,
	}
}

// Name implements Named.
func (s *LogSink) Name() string { return "log" }

// PublishCross implements domain.OpportunitySink.
func (s *LogSink) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	s.logger.Info("cross-exchange opportunity",
		slog.String("id", opp.ID),
		slog.String("symbol", opp.Symbol),
		slog.String("buy_exchange", opp.BuyExchange),
		slog.String("sell_exchange", opp.SellExchange),
		slog.String("buy_price", domain.FormatFixed(opp.BuyPrice, s.priceDec)),
		slog.String("sell_price", domain.FormatFixed(opp.SellPrice, s.priceDec)),
		slog.Int64("profit_bps", opp.ProfitBps),
	)
	return nil
}

// PublishTriangular implements domain.OpportunitySink.
func (s *LogSink) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	s.logger.Info("triangular opportunity",
		slog.String("id", opp.ID),
		slog.String("exchange", opp.Exchange),
		slog.String("triangle", opp.Triangle),
		slog.Int("path", opp.PathID),
		slog.Int64("multiplier", opp.Multiplier),
		slog.Int64("profit_bps", opp.ProfitBps),
	)
	return nil
}
