package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// HistorySource is the slice of the opportunity store the archiver needs:
// time-ranged reads and the matching delete. The Postgres store satisfies
// it implicitly.
type HistorySource interface {
	ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.OpportunityRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver implements domain.Archiver: it drains opportunity history older
// than the cutoff into a JSONL object under archive/opportunities/, then
// deletes the archived rows. Deletion only happens after the upload
// succeeded, so a failed run leaves the rows in place for the next one.
type Archiver struct {
	writer domain.BlobWriter
	source HistorySource
}

// NewArchiver creates an Archiver reading from source and writing through
// writer.
func NewArchiver(writer domain.BlobWriter, source HistorySource) *Archiver {
	return &Archiver{writer: writer, source: source}
}

// archiveRow is the JSONL line shape. Prices and multipliers stay scaled
// integers, exactly as stored.
type archiveRow struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Symbol       string    `json:"symbol"`
	BuyExchange  string    `json:"buy_exchange,omitempty"`
	SellExchange string    `json:"sell_exchange,omitempty"`
	Exchange     string    `json:"exchange,omitempty"`
	PathID       int       `json:"path_id,omitempty"`
	BuyPrice     int64     `json:"buy_price,omitempty"`
	SellPrice    int64     `json:"sell_price,omitempty"`
	Multiplier   int64     `json:"multiplier,omitempty"`
	ProfitBps    int64     `json:"profit_bps"`
	DetectedAt   time.Time `json:"detected_at"`
}

func toArchiveRow(rec domain.OpportunityRecord) archiveRow {
	return archiveRow{
		ID:           rec.ID,
		Kind:         string(rec.Kind),
		Symbol:       rec.Symbol,
		BuyExchange:  rec.BuyExchange,
		SellExchange: rec.SellExchange,
		Exchange:     rec.Exchange,
		PathID:       rec.PathID,
		BuyPrice:     int64(rec.BuyPrice),
		SellPrice:    int64(rec.SellPrice),
		Multiplier:   rec.Multiplier,
		ProfitBps:    rec.ProfitBps,
		DetectedAt:   rec.DetectedAt,
	}
}

// ArchiveOpportunities moves every record detected strictly before the
// cutoff to cold storage and reports how many were archived.
func (a *Archiver) ArchiveOpportunities(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.source.ListBefore(ctx, before, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	rows := make([]archiveRow, len(recs))
	for i, rec := range recs {
		rows[i] = toArchiveRow(rec)
	}
	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive marshal: %w", err)
	}

	path := archivePath(before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive upload: %w", err)
	}

	if _, err := a.source.DeleteBefore(ctx, before); err != nil {
		return 0, fmt.Errorf("s3blob: archive delete after upload to %s: %w", path, err)
	}
	return int64(len(recs)), nil
}

// archivePath names one day's archive object after the cutoff date.
func archivePath(before time.Time) string {
	return fmt.Sprintf("archive/opportunities/%s.jsonl", before.UTC().Format("2006-01-02"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON, one
// compact line per element.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*Archiver)(nil)
