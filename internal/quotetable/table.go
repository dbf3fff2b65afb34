// Package quotetable publishes per-symbol top-of-book state across
// exchanges. Each (symbol, exchange) slot is an atomic cell holding an
// immutable snapshot, so detector scans never observe a half-applied
// update and the hot path takes no locks.
package quotetable

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/arblab/arbcore/internal/domain"
)

// Registry assigns dense indexes to the registered exchange names.
// Registration happens once at startup; quotes for anything else are
// rejected at ingest.
type Registry struct {
	names []string
	index map[string]int
}

// NewRegistry builds a registry over the configured exchange names.
// Names are deduplicated and sorted so slot order is deterministic.
func NewRegistry(names []string) *Registry {
	uniq := make(map[string]struct{}, len(names))
	for _, n := range names {
		uniq[n] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for n := range uniq {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	idx := make(map[string]int, len(sorted))
	for i, n := range sorted {
		idx[n] = i
	}
	return &Registry{names: sorted, index: idx}
}

// Index returns the dense slot for an exchange name.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Names returns the registered exchanges in slot order.
func (r *Registry) Names() []string {
	return r.names
}

// Len returns the number of registered exchanges.
func (r *Registry) Len() int {
	return len(r.names)
}

// Table is the cross-exchange quote view for a single symbol.
type Table struct {
	symbol string
	reg    *Registry
	cells  []atomic.Pointer[domain.BestQuote]
}

// New returns an empty table with one cell per registered exchange.
func New(symbol string, reg *Registry) *Table {
	return &Table{
		symbol: symbol,
		reg:    reg,
		cells:  make([]atomic.Pointer[domain.BestQuote], reg.Len()),
	}
}

// Symbol returns the symbol this table covers.
func (t *Table) Symbol() string {
	return t.symbol
}

// Publish replaces the exchange's entry with a new snapshot.
func (t *Table) Publish(q domain.BestQuote) error {
	i, ok := t.reg.Index(q.Exchange)
	if !ok {
		return fmt.Errorf("quotetable %s: exchange %q: %w", t.symbol, q.Exchange, domain.ErrUnknownExchange)
	}
	snap := q
	t.cells[i].Store(&snap)
	return nil
}

// Get returns the entry for one exchange, if any quote has been published.
func (t *Table) Get(exchange string) (domain.BestQuote, bool) {
	i, ok := t.reg.Index(exchange)
	if !ok {
		return domain.BestQuote{}, false
	}
	p := t.cells[i].Load()
	if p == nil {
		return domain.BestQuote{}, false
	}
	return *p, true
}

// Entries appends every published entry to buf in slot order and returns
// the extended slice. Callers on the hot path pass a reused buffer.
func (t *Table) Entries(buf []domain.BestQuote) []domain.BestQuote {
	for i := range t.cells {
		if p := t.cells[i].Load(); p != nil {
			buf = append(buf, *p)
		}
	}
	return buf
}
