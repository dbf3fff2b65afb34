package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arblab/arbcore/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore on the
// opportunity_history table. Both opportunity kinds share the flat row
// shape of domain.OpportunityRecord; prices are stored as the engine's
// scaled integers, never as floating point.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a store backed by the given connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, kind, symbol, buy_exchange, sell_exchange,
	exchange, path_id, buy_price, sell_price, multiplier, profit_bps,
	detected_at`

// Insert stores one detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, rec domain.OpportunityRecord) error {
	const query = `
		INSERT INTO opportunity_history (
			id, kind, symbol, buy_exchange, sell_exchange,
			exchange, path_id, buy_price, sell_price, multiplier, profit_bps,
			detected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12
		)`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.Kind), rec.Symbol, rec.BuyExchange, rec.SellExchange,
		rec.Exchange, rec.PathID, int64(rec.BuyPrice), int64(rec.SellPrice), rec.Multiplier, rec.ProfitBps,
		rec.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities, newest first. A limit
// of 0 returns everything.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.OpportunityRecord, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunity_history ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListBefore returns opportunities detected strictly before the given
// time, oldest first, so the archiver drains history in stable batches.
func (s *OpportunityStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.OpportunityRecord, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunity_history
		WHERE detected_at < $1 ORDER BY detected_at ASC`
	args := []any{before}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities before %s: %w", before.Format(time.RFC3339), err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// DeleteBefore removes opportunities detected strictly before the given
// time and reports how many rows went away.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM opportunity_history WHERE detected_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// Count reports the number of stored opportunities.
func (s *OpportunityStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM opportunity_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count opportunities: %w", err)
	}
	return n, nil
}

func scanRecords(rows pgx.Rows) ([]domain.OpportunityRecord, error) {
	var recs []domain.OpportunityRecord
	for rows.Next() {
		var (
			rec                 domain.OpportunityRecord
			kind                string
			buyPrice, sellPrice int64
		)
		if err := rows.Scan(
			&rec.ID, &kind, &rec.Symbol, &rec.BuyExchange, &rec.SellExchange,
			&rec.Exchange, &rec.PathID, &buyPrice, &sellPrice, &rec.Multiplier, &rec.ProfitBps,
			&rec.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		rec.Kind = domain.OpportunityKind(kind)
		rec.BuyPrice = domain.FixedPoint(buyPrice)
		rec.SellPrice = domain.FixedPoint(sellPrice)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
