package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/engine"
	"github.com/arblab/arbcore/internal/feed"
	"github.com/arblab/arbcore/internal/service"
)

// metricsInterval is how often the periodic counters line is emitted.
const metricsInterval = time.Minute

// LiveMode drives the engine from the exchange WebSocket feed and runs
// until the context is cancelled.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting live mode",
		slog.String("ws_url", a.cfg.Feed.WsURL),
		slog.Int("workers", a.cfg.Feed.Workers),
	)

	g, ctx := errgroup.WithContext(ctx)

	dispatcher, err := a.startCore(ctx, g, deps)
	if err != nil {
		return err
	}

	wsFeed := feed.NewWSFeed(
		a.cfg.Feed.WsURL,
		a.cfg.Engine.Symbols,
		a.cfg.Engine.PriceDecimals,
		a.cfg.Engine.QuantityDecimals,
		dispatcher.Offer,
		a.logger,
	)
	g.Go(func() error {
		return wsFeed.Run(ctx)
	})

	a.announceStart(ctx, deps, "live")

	return g.Wait()
}

// SimMode drives the engine from the seeded synthetic feed. Useful for
// soak runs and demos without exchange connectivity.
func (a *App) SimMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sim mode",
		slog.Int64("seed", a.cfg.Sim.Seed),
		slog.Duration("interval", a.cfg.Sim.Interval.Duration),
		slog.Int("burst", a.cfg.Sim.Burst),
	)

	g, ctx := errgroup.WithContext(ctx)

	dispatcher, err := a.startCore(ctx, g, deps)
	if err != nil {
		return err
	}

	gen := feed.NewGenerator(
		a.cfg.Engine.Exchanges,
		a.cfg.Engine.Symbols,
		a.cfg.Engine.PriceDecimals,
		a.cfg.Engine.QuantityDecimals,
		a.cfg.Sim.Interval.Duration,
		a.cfg.Sim.Seed,
		a.cfg.Sim.Burst,
		dispatcher.Offer,
		a.logger,
	)
	g.Go(func() error {
		return gen.Run(ctx)
	})

	a.announceStart(ctx, deps, "sim")

	return g.Wait()
}

// startCore builds the ingest fabric shared by both modes and starts the
// supporting loops: opportunity fan-out, the quote mirror, the history
// archiver, and the periodic counters line. It returns the dispatcher the
// mode's feed should offer records to.
func (a *App) startCore(ctx context.Context, g *errgroup.Group, deps *Dependencies) (*feed.Dispatcher, error) {
	maxPrice, maxQty, err := a.cfg.Engine.ParseBounds()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	triangles, err := a.cfg.Engine.ParseTriangles()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var mirror func(domain.BestQuote)
	if deps.Mirror != nil {
		mirror = deps.Mirror.OnSnapshot
	}

	ing, err := engine.New(engine.Config{
		Exchanges:            a.cfg.Engine.Exchanges,
		Symbols:              a.cfg.Engine.Symbols,
		Triangles:            triangles,
		Depth:                a.cfg.Engine.Depth,
		DepthOverrides:       a.cfg.Engine.DepthOverrides,
		PriceDecimals:        a.cfg.Engine.PriceDecimals,
		CrossMinProfitBps:    a.cfg.Engine.CrossMinProfitBps,
		TriangleMinProfitBps: a.cfg.Engine.TriangleMinProfitBps,
		MaxPrice:             maxPrice,
		MaxQuantity:          maxQty,
		Sink:                 deps.Sink,
		Mirror:               mirror,
		Metrics:              deps.Metrics,
		Logger:               a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("app: build engine: %w", err)
	}

	// Rejections are already counted and logged inside Ingest, so the
	// dispatcher can discard its error.
	dispatcher := feed.NewDispatcher(
		a.cfg.Feed.Workers,
		a.cfg.Feed.QueueSize,
		a.cfg.Engine.Symbols,
		ing.Ingest,
		deps.Metrics,
		a.logger,
	)

	g.Go(func() error {
		return deps.Sink.Run(ctx)
	})
	g.Go(func() error {
		return dispatcher.Run(ctx)
	})
	if deps.Mirror != nil {
		g.Go(func() error {
			return deps.Mirror.Run(ctx)
		})
	}
	if deps.Archiver != nil {
		archiveSvc := service.NewArchiveService(
			deps.Archiver,
			deps.LockManager,
			a.cfg.S3.RetentionDays,
			a.cfg.S3.ArchiveHourUTC,
			a.logger,
		)
		g.Go(func() error {
			return archiveSvc.Run(ctx)
		})
	}
	g.Go(func() error {
		return a.metricsLoop(ctx, deps)
	})

	return dispatcher, nil
}

// metricsLoop emits one structured counters line per interval so soak
// runs leave a usable trace without a metrics backend.
func (a *App) metricsLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := deps.Metrics.Snapshot()
			a.logger.LogAttrs(ctx, slog.LevelInfo, "engine counters", snap.LogAttrs()...)
		}
	}
}

// announceStart pushes a startup notice to the alert channels, bypassing
// kind filters so operators see restarts.
func (a *App) announceStart(ctx context.Context, deps *Dependencies, mode string) {
	if deps.Notifier == nil {
		return
	}
	msg := fmt.Sprintf("Engine started in %s mode: %d exchanges, %d symbols, %d triangles",
		mode, len(a.cfg.Engine.Exchanges), len(a.cfg.Engine.Symbols), len(a.cfg.Engine.Triangles))
	if err := deps.Notifier.NotifyAll(ctx, "arbcore up", msg); err != nil {
		a.logger.WarnContext(ctx, "startup notice failed", slog.String("error", err.Error()))
	}
}
