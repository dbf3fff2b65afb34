package obs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotReflectsCounters(t *testing.T) {
	m := NewMetrics()
	m.IncProcessed()
	m.IncProcessed()
	m.IncReject(RejectStaleSequence)
	m.IncCrossedBook()
	m.IncCrossOpportunities(3)
	m.IncTriangularOpportunities(1)
	m.IncNumericSkips(2)
	m.IncFeedDrops(5)
	m.IncSinkDrops(1)
	m.IncSinkErrors()
	m.IncMirrorDrops(4)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.QuotesProcessed)
	assert.Equal(t, map[string]uint64{"stale_sequence": 1}, s.Rejects)
	assert.Equal(t, uint64(1), s.CrossedBooks)
	assert.Equal(t, uint64(3), s.CrossOpps)
	assert.Equal(t, uint64(1), s.TriangularOpps)
	assert.Equal(t, uint64(2), s.NumericSkips)
	assert.Equal(t, uint64(5), s.FeedDrops)
	assert.Equal(t, uint64(1), s.SinkDrops)
	assert.Equal(t, uint64(1), s.SinkErrors)
	assert.Equal(t, uint64(4), s.MirrorDrops)
}

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.IncProcessed()
				m.IncReject(RejectInvalidQuote)
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, uint64(8000), s.QuotesProcessed)
	assert.Equal(t, uint64(8000), s.Rejects["invalid_quote"])
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.IncProcessed()
	m.IncReject(RejectUnknownSymbol)
	m.IncCrossOpportunities(1)
	m.IncFeedDrops(1)
	// no panic is the assertion
}
