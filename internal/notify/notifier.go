// Package notify turns detected opportunities into operator alerts. Alerts
// are dispatched to all registered senders (Telegram, Discord) and can be
// filtered by opportunity kind; a shared rate limit keeps alert storms
// within the messaging platforms' tolerances.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier implements domain.OpportunitySink by formatting opportunities
// into alerts and fanning them out to every sender. When a rate limiter is
// configured, alerts beyond the window's budget are suppressed and
// reported as domain.ErrRateLimited so the pipeline can tell policy drops
// from delivery failures.
type Notifier struct {
	senders  []Sender
	kinds    map[domain.OpportunityKind]bool
	limiter  domain.RateLimiter
	limit    int
	window   time.Duration
	priceDec int
	logger   *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. Only
// opportunity kinds listed in kinds produce alerts; an empty list allows
// both. limiter may be nil, which disables rate limiting.
func NewNotifier(senders []Sender, kinds []string, limiter domain.RateLimiter, limit int, window time.Duration, priceDecimals int, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[domain.OpportunityKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[domain.OpportunityKind(strings.TrimSpace(k))] = true
	}
	return &Notifier{
		senders:  senders,
		kinds:    allowed,
		limiter:  limiter,
		limit:    limit,
		window:   window,
		priceDec: priceDecimals,
		logger:   logger.With(slog.String("component", "notifier")),
	}
}

// Name identifies the notifier in pipeline fan-out logs.
func (n *Notifier) Name() string { return "notify" }

// PublishCross implements domain.OpportunitySink.
func (n *Notifier) PublishCross(ctx context.Context, opp domain.CrossExchangeOpportunity) error {
	if !n.allowed(ctx, domain.OpportunityCrossExchange) {
		return nil
	}
	if err := n.reserve(ctx); err != nil {
		return err
	}
	title := fmt.Sprintf("Cross-exchange arbitrage: %s", opp.Symbol)
	message := fmt.Sprintf("Buy on %s at %s, sell on %s at %s, profit %d bps",
		opp.BuyExchange, domain.FormatFixed(opp.BuyPrice, n.priceDec),
		opp.SellExchange, domain.FormatFixed(opp.SellPrice, n.priceDec),
		opp.ProfitBps,
	)
	return n.dispatch(ctx, title, message)
}

// PublishTriangular implements domain.OpportunitySink.
func (n *Notifier) PublishTriangular(ctx context.Context, opp domain.TriangularOpportunity) error {
	if !n.allowed(ctx, domain.OpportunityTriangular) {
		return nil
	}
	if err := n.reserve(ctx); err != nil {
		return err
	}
	title := fmt.Sprintf("Triangular arbitrage on %s", opp.Exchange)
	message := fmt.Sprintf("Path %d over %s: multiplier %s, profit %d bps",
		opp.PathID, opp.Triangle,
		domain.FormatFixed(domain.FixedPoint(opp.Multiplier), 6),
		opp.ProfitBps,
	)
	return n.dispatch(ctx, title, message)
}

// NotifyAll sends an alert to every sender regardless of kind filtering or
// rate limits. Startup and shutdown notices use it.
func (n *Notifier) NotifyAll(ctx context.Context, title, message string) error {
	return n.dispatch(ctx, title, message)
}

// allowed applies the kind filter.
func (n *Notifier) allowed(ctx context.Context, kind domain.OpportunityKind) bool {
	if len(n.kinds) > 0 && !n.kinds[kind] {
		n.logger.DebugContext(ctx, "alert kind filtered out", slog.String("kind", string(kind)))
		return false
	}
	return true
}

// reserve consumes one slot of the alert budget.
func (n *Notifier) reserve(ctx context.Context) error {
	if n.limiter == nil || n.limit <= 0 {
		return nil
	}
	ok, err := n.limiter.Allow(ctx, "alerts", n.limit, n.window)
	if err != nil {
		return fmt.Errorf("notify: rate limiter: %w", err)
	}
	if !ok {
		return fmt.Errorf("notify: alert budget exhausted: %w", domain.ErrRateLimited)
	}
	return nil
}

// dispatch delivers to every sender, collecting failures so one broken
// channel does not silence the others.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "alert sent",
				slog.String("sender", s.Name()),
				slog.String("title", title),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Compile-time interface check.
var _ domain.OpportunitySink = (*Notifier)(nil)
