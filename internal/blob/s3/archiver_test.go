package s3blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
)

type fakeWriter struct {
	path        string
	contentType string
	body        string
	fail        error
}

func (w *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	if w.fail != nil {
		return w.fail
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.path, w.contentType, w.body = path, contentType, string(b)
	return nil
}

func (w *fakeWriter) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	return w.Put(ctx, path, data, "application/x-ndjson")
}

type fakeSource struct {
	recs    []domain.OpportunityRecord
	deleted *time.Time
}

func (s *fakeSource) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.OpportunityRecord, error) {
	var out []domain.OpportunityRecord
	for _, r := range s.recs {
		if r.DetectedAt.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSource) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	var kept []domain.OpportunityRecord
	var n int64
	for _, r := range s.recs {
		if r.DetectedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.recs = kept
	s.deleted = &before
	return n, nil
}

func archiveFixture() *fakeSource {
	old := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return &fakeSource{recs: []domain.OpportunityRecord{
		{ID: "a", Kind: domain.OpportunityCrossExchange, Symbol: "BTC/USDT", ProfitBps: 500, DetectedAt: old},
		{ID: "b", Kind: domain.OpportunityTriangular, Symbol: "ETH/BTC,BTC/USDT,ETH/USDT", ProfitBps: 33, DetectedAt: old.Add(time.Hour)},
		{ID: "c", Kind: domain.OpportunityCrossExchange, Symbol: "BTC/USDT", ProfitBps: 12, DetectedAt: fresh},
	}}
}

func TestArchiverUploadsThenDeletes(t *testing.T) {
	writer := &fakeWriter{}
	source := archiveFixture()
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	n, err := NewArchiver(writer, source).ArchiveOpportunities(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, "archive/opportunities/2026-03-01.jsonl", writer.path)
	assert.Equal(t, "application/x-ndjson", writer.contentType)

	lines := strings.Split(strings.TrimSuffix(writer.body, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"a"`)
	assert.Contains(t, lines[1], `"id":"b"`)

	// Only the fresh record survives.
	require.NotNil(t, source.deleted)
	require.Len(t, source.recs, 1)
	assert.Equal(t, "c", source.recs[0].ID)
}

func TestArchiverKeepsRowsWhenUploadFails(t *testing.T) {
	writer := &fakeWriter{fail: errors.New("bucket gone")}
	source := archiveFixture()

	_, err := NewArchiver(writer, source).ArchiveOpportunities(context.Background(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	assert.Nil(t, source.deleted)
	assert.Len(t, source.recs, 3)
}

func TestArchiverNoRowsIsNoUpload(t *testing.T) {
	writer := &fakeWriter{}
	source := &fakeSource{}

	n, err := NewArchiver(writer, source).ArchiveOpportunities(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, writer.path)
	assert.Nil(t, source.deleted)
}
