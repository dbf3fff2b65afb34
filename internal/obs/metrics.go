// Package obs collects lightweight in-process counters for the quote
// pipeline. Everything is atomic; the hot path never blocks on metrics.
package obs

import (
	"log/slog"
	"sync/atomic"
)

// RejectReason classifies why an ingested record was refused.
type RejectReason int

const (
	RejectUnknownExchange RejectReason = iota
	RejectUnknownSymbol
	RejectInvalidQuote
	RejectStaleSequence
	rejectReasonCount
)

var rejectNames = [rejectReasonCount]string{
	"unknown_exchange",
	"unknown_symbol",
	"invalid_quote",
	"stale_sequence",
}

// Metrics aggregates pipeline counters.
type Metrics struct {
	quotesProcessed uint64
	rejects         [rejectReasonCount]uint64
	crossedBooks    uint64
	crossOpps       uint64
	triangularOpps  uint64
	numericSkips    uint64
	feedDrops       uint64
	sinkDrops       uint64
	sinkErrors      uint64
	mirrorDrops     uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncProcessed counts one accepted quote record.
func (m *Metrics) IncProcessed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.quotesProcessed, 1)
}

// IncReject counts one refused record by reason.
func (m *Metrics) IncReject(reason RejectReason) {
	if m == nil {
		return
	}
	if reason >= 0 && int(reason) < len(m.rejects) {
		atomic.AddUint64(&m.rejects[reason], 1)
	}
}

// IncCrossedBook counts a book entering the crossed state.
func (m *Metrics) IncCrossedBook() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.crossedBooks, 1)
}

// IncCrossOpportunities counts emitted cross-exchange opportunities.
func (m *Metrics) IncCrossOpportunities(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.crossOpps, uint64(n))
}

// IncTriangularOpportunities counts emitted triangular opportunities.
func (m *Metrics) IncTriangularOpportunities(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.triangularOpps, uint64(n))
}

// IncNumericSkips counts detector evaluations dropped as numeric garbage.
func (m *Metrics) IncNumericSkips(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.numericSkips, uint64(n))
}

// IncFeedDrops counts records evicted from a full feed queue.
func (m *Metrics) IncFeedDrops(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.feedDrops, uint64(n))
}

// IncSinkDrops counts opportunity events evicted from the sink queue.
func (m *Metrics) IncSinkDrops(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.sinkDrops, uint64(n))
}

// IncSinkErrors counts failed downstream deliveries.
func (m *Metrics) IncSinkErrors() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sinkErrors, 1)
}

// IncMirrorDrops counts quote snapshots the mirror queue shed.
func (m *Metrics) IncMirrorDrops(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.mirrorDrops, uint64(n))
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	QuotesProcessed uint64
	Rejects         map[string]uint64
	CrossedBooks    uint64
	CrossOpps       uint64
	TriangularOpps  uint64
	NumericSkips    uint64
	FeedDrops       uint64
	SinkDrops       uint64
	SinkErrors      uint64
	MirrorDrops     uint64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		QuotesProcessed: atomic.LoadUint64(&m.quotesProcessed),
		Rejects:         make(map[string]uint64, rejectReasonCount),
		CrossedBooks:    atomic.LoadUint64(&m.crossedBooks),
		CrossOpps:       atomic.LoadUint64(&m.crossOpps),
		TriangularOpps:  atomic.LoadUint64(&m.triangularOpps),
		NumericSkips:    atomic.LoadUint64(&m.numericSkips),
		FeedDrops:       atomic.LoadUint64(&m.feedDrops),
		SinkDrops:       atomic.LoadUint64(&m.sinkDrops),
		SinkErrors:      atomic.LoadUint64(&m.sinkErrors),
		MirrorDrops:     atomic.LoadUint64(&m.mirrorDrops),
	}
	for i, name := range rejectNames {
		if v := atomic.LoadUint64(&m.rejects[i]); v > 0 {
			s.Rejects[name] = v
		}
	}
	return s
}

// LogAttrs renders the snapshot as slog attributes for the periodic
// metrics line.
func (s Snapshot) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.Uint64("quotes", s.QuotesProcessed),
		slog.Uint64("crossed_books", s.CrossedBooks),
		slog.Uint64("cross_opps", s.CrossOpps),
		slog.Uint64("triangular_opps", s.TriangularOpps),
		slog.Uint64("numeric_skips", s.NumericSkips),
		slog.Uint64("feed_drops", s.FeedDrops),
		slog.Uint64("sink_drops", s.SinkDrops),
		slog.Uint64("sink_errors", s.SinkErrors),
		slog.Uint64("mirror_drops", s.MirrorDrops),
	}
	for name, v := range s.Rejects {
		attrs = append(attrs, slog.Uint64("reject_"+name, v))
	}
	return attrs
}
