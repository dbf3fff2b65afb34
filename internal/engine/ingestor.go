// Package engine owns the quote hot path: validate, apply to the book,
// publish top-of-book, then run both detectors synchronously. The update
// always completes before any detector sees it, and nothing on this path
// performs I/O; sinks queue internally.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arblab/arbcore/internal/book"
	"github.com/arblab/arbcore/internal/detect"
	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/obs"
	"github.com/arblab/arbcore/internal/quotetable"
)

// Config carries the validated engine settings plus its collaborators.
type Config struct {
	Exchanges            []string
	Symbols              []string
	Triangles            []domain.Triangle
	Depth                int
	DepthOverrides       map[string]int
	PriceDecimals        int
	CrossMinProfitBps    int64
	TriangleMinProfitBps int64
	MaxPrice             domain.FixedPoint // 0 disables the bound
	MaxQuantity          domain.FixedPoint // 0 disables the bound

	Sink    domain.OpportunitySink
	Mirror  func(domain.BestQuote) // optional; must never block
	Metrics *obs.Metrics
	Logger  *slog.Logger
}

// triangleRef pairs a detector with the three leg tables it reads.
type triangleRef struct {
	det  *detect.Triangular
	legs [3]*quotetable.Table
}

// symbolState is everything one symbol owns. A symbol has exactly one
// writer goroutine, so the entries buffer is reused without locking.
type symbolState struct {
	table     *quotetable.Table
	books     []*book.Book // slot per registered exchange
	triangles []*triangleRef
	buf       []domain.BestQuote
}

// Ingestor routes feed records through books, quote tables and detectors.
type Ingestor struct {
	reg     *quotetable.Registry
	symbols map[string]*symbolState
	cross   *detect.Cross
	sink    domain.OpportunitySink
	mirror  func(domain.BestQuote)
	metrics *obs.Metrics
	logger  *slog.Logger

	maxPrice domain.FixedPoint
	maxQty   domain.FixedPoint
}

// New builds the full book/table/detector fabric for the registered
// universe. Books exist up front and start empty; the first quote for a
// pair simply lands in its empty book.
func New(cfg Config) (*Ingestor, error) {
	if len(cfg.Exchanges) == 0 || len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("engine: exchanges and symbols must be registered")
	}
	if cfg.Depth < 1 {
		return nil, fmt.Errorf("engine: depth %d: %w", cfg.Depth, domain.ErrNumericRange)
	}
	if cfg.PriceDecimals < 0 || cfg.PriceDecimals > domain.MaxDecimals {
		return nil, fmt.Errorf("engine: price decimals %d: %w", cfg.PriceDecimals, domain.ErrNumericRange)
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("engine: opportunity sink is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := quotetable.NewRegistry(cfg.Exchanges)
	in := &Ingestor{
		reg:      reg,
		symbols:  make(map[string]*symbolState, len(cfg.Symbols)),
		cross:    detect.NewCross(cfg.CrossMinProfitBps),
		sink:     cfg.Sink,
		mirror:   cfg.Mirror,
		metrics:  cfg.Metrics,
		logger:   logger.With(slog.String("component", "quote_ingestor")),
		maxPrice: cfg.MaxPrice,
		maxQty:   cfg.MaxQuantity,
	}

	for _, sym := range cfg.Symbols {
		if _, err := domain.ParsePair(sym); err != nil {
			return nil, err
		}
		if _, dup := in.symbols[sym]; dup {
			continue
		}
		depth := cfg.Depth
		if d, ok := cfg.DepthOverrides[sym]; ok {
			depth = d
		}
		if depth < 1 {
			return nil, fmt.Errorf("engine: depth override %d for %s: %w", depth, sym, domain.ErrNumericRange)
		}
		st := &symbolState{
			table: quotetable.New(sym, reg),
			books: make([]*book.Book, reg.Len()),
			buf:   make([]domain.BestQuote, 0, reg.Len()),
		}
		for i, ex := range reg.Names() {
			st.books[i] = book.New(ex, sym, depth)
		}
		in.symbols[sym] = st
	}

	for _, tri := range cfg.Triangles {
		ref := &triangleRef{det: detect.NewTriangular(tri, cfg.TriangleMinProfitBps, cfg.PriceDecimals)}
		for i, legSym := range tri.Symbols() {
			st, ok := in.symbols[legSym]
			if !ok {
				return nil, fmt.Errorf("engine: triangle %s: leg %s is not a registered symbol: %w",
					tri, legSym, domain.ErrInvalidTriangle)
			}
			ref.legs[i] = st.table
			st.triangles = append(st.triangles, ref)
		}
	}
	return in, nil
}

// Ingest folds one feed record into its book and, when accepted, runs
// detection against the fresh state. Rejections are logged, counted and
// returned; they never mutate a book.
func (in *Ingestor) Ingest(ctx context.Context, u domain.QuoteUpdate) error {
	st, ok := in.symbols[u.Symbol]
	if !ok {
		in.reject(obs.RejectUnknownSymbol, u, nil)
		return fmt.Errorf("engine: symbol %q: %w", u.Symbol, domain.ErrUnknownSymbol)
	}
	exIdx, ok := in.reg.Index(u.Exchange)
	if !ok {
		in.reject(obs.RejectUnknownExchange, u, nil)
		return fmt.Errorf("engine: exchange %q: %w", u.Exchange, domain.ErrUnknownExchange)
	}
	if err := in.validate(u); err != nil {
		in.reject(obs.RejectInvalidQuote, u, err)
		return err
	}

	bk := st.books[exIdx]
	prev := bk.Best()
	snap, err := bk.Apply(u)
	if err != nil {
		in.reject(obs.RejectStaleSequence, u, err)
		return err
	}
	if err := st.table.Publish(snap); err != nil {
		return err
	}
	in.metrics.IncProcessed()

	if snap.Crossed && !prev.Crossed {
		in.metrics.IncCrossedBook()
		in.logger.Warn("book crossed, excluded from detection",
			slog.String("exchange", u.Exchange),
			slog.String("symbol", u.Symbol),
			slog.Uint64("seq", u.Seq),
		)
	}
	if in.mirror != nil {
		in.mirror(snap)
	}

	in.detect(ctx, st, u)
	return nil
}

func (in *Ingestor) validate(u domain.QuoteUpdate) error {
	if !u.Side.Valid() {
		return fmt.Errorf("engine: side %q: %w", u.Side, domain.ErrInvalidQuote)
	}
	if u.Price <= 0 {
		return fmt.Errorf("engine: price %d must be positive: %w", u.Price, domain.ErrInvalidQuote)
	}
	if u.Quantity < 0 {
		return fmt.Errorf("engine: negative quantity %d: %w", u.Quantity, domain.ErrInvalidQuote)
	}
	if in.maxPrice > 0 && u.Price > in.maxPrice {
		return fmt.Errorf("engine: price %d above bound %d: %w", u.Price, in.maxPrice, domain.ErrInvalidQuote)
	}
	if in.maxQty > 0 && u.Quantity > in.maxQty {
		return fmt.Errorf("engine: quantity %d above bound %d: %w", u.Quantity, in.maxQty, domain.ErrInvalidQuote)
	}
	return nil
}

// detect runs both detectors against the just-published state. DetectedAt
// carries the event time of the triggering update so emissions stay
// deterministic for a given feed.
func (in *Ingestor) detect(ctx context.Context, st *symbolState, u domain.QuoteUpdate) {
	entries := st.table.Entries(st.buf[:0])
	opps, skipped := in.cross.Scan(entries, u.Time)
	in.metrics.IncNumericSkips(skipped)
	in.metrics.IncCrossOpportunities(len(opps))
	for _, opp := range opps {
		if err := in.sink.PublishCross(ctx, opp); err != nil {
			in.metrics.IncSinkErrors()
			in.logger.Warn("cross opportunity publish failed", slog.String("id", opp.ID), slog.Any("error", err))
		} else {
			in.logger.Debug("cross-exchange opportunity",
				slog.String("symbol", opp.Symbol),
				slog.String("buy", opp.BuyExchange),
				slog.String("sell", opp.SellExchange),
				slog.Int64("profit_bps", opp.ProfitBps),
			)
		}
	}

	for _, ref := range st.triangles {
		ab, okAB := ref.legs[0].Get(u.Exchange)
		bc, okBC := ref.legs[1].Get(u.Exchange)
		ac, okAC := ref.legs[2].Get(u.Exchange)
		if !okAB || !okBC || !okAC {
			continue
		}
		opp, found, skip := ref.det.Evaluate(u.Exchange, ab, bc, ac, u.Time)
		in.metrics.IncNumericSkips(skip)
		if !found {
			continue
		}
		in.metrics.IncTriangularOpportunities(1)
		if err := in.sink.PublishTriangular(ctx, opp); err != nil {
			in.metrics.IncSinkErrors()
			in.logger.Warn("triangular opportunity publish failed", slog.String("id", opp.ID), slog.Any("error", err))
			continue
		}
		in.logger.Debug("triangular opportunity",
			slog.String("exchange", opp.Exchange),
			slog.String("triangle", opp.Triangle),
			slog.Int("path", opp.PathID),
			slog.Int64("profit_bps", opp.ProfitBps),
		)
	}
}

func (in *Ingestor) reject(reason obs.RejectReason, u domain.QuoteUpdate, err error) {
	in.metrics.IncReject(reason)
	in.logger.Warn("quote rejected",
		slog.String("exchange", u.Exchange),
		slog.String("symbol", u.Symbol),
		slog.Uint64("seq", u.Seq),
		slog.Any("error", err),
	)
}

// Best returns the current snapshot for one pair, for operational probes.
func (in *Ingestor) Best(exchange, symbol string) (domain.BestQuote, bool) {
	st, ok := in.symbols[symbol]
	if !ok {
		return domain.BestQuote{}, false
	}
	return st.table.Get(exchange)
}

// Symbols returns the registered symbols.
func (in *Ingestor) Symbols() []string {
	out := make([]string, 0, len(in.symbols))
	for sym := range in.symbols {
		out = append(out, sym)
	}
	return out
}
