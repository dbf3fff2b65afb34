package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// archiveLockKey names the distributed lock that keeps concurrent
// deployments from archiving the same rows twice.
const archiveLockKey = "archive:opportunities"

// archiveLockTTL bounds how long a crashed run can hold the lock.
const archiveLockTTL = time.Hour

// ArchiveService runs the opportunity archiver once a day at a fixed UTC
// hour, moving history older than the retention window to cold storage.
type ArchiveService struct {
	archiver      domain.Archiver
	locks         domain.LockManager
	retentionDays int
	hourUTC       int
	logger        *slog.Logger
}

// NewArchiveService creates the daily archive loop. locks may be nil for
// single-instance deployments.
func NewArchiveService(archiver domain.Archiver, locks domain.LockManager, retentionDays, hourUTC int, logger *slog.Logger) *ArchiveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveService{
		archiver:      archiver,
		locks:         locks,
		retentionDays: retentionDays,
		hourUTC:       hourUTC,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run sleeps until the next scheduled hour, archives, and repeats until
// ctx is cancelled. A failed run is logged and retried at the next slot.
func (s *ArchiveService) Run(ctx context.Context) error {
	s.logger.Info("archiver started",
		slog.Int("retention_days", s.retentionDays),
		slog.Int("hour_utc", s.hourUTC),
	)
	defer s.logger.Info("archiver stopped")

	for {
		next := nextRunAt(time.Now().UTC(), s.hourUTC)
		s.logger.Info("archiver waiting for next run", slog.Time("next_run", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single archive sweep under the distributed lock.
// Finding the lock held is a skip, not a failure.
func (s *ArchiveService) RunOnce(ctx context.Context) error {
	if s.locks != nil {
		unlock, err := s.locks.Acquire(ctx, archiveLockKey, archiveLockTTL)
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.Info("archive skipped, another instance holds the lock")
			return nil
		}
		if err != nil {
			return fmt.Errorf("archiver: acquire lock: %w", err)
		}
		defer unlock()
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	count, err := s.archiver.ArchiveOpportunities(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiver: archive before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	s.logger.Info("archive run complete",
		slog.Time("cutoff", cutoff),
		slog.Int64("archived", count),
	)
	return nil
}

// nextRunAt returns the next occurrence of the given UTC hour after now.
func nextRunAt(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
