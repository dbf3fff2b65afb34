package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arblab/arbcore/internal/domain"
)

// fakeArchiver records the cutoff it was asked to archive before.
type fakeArchiver struct {
	before time.Time
	count  int64
	err    error
	calls  int
}

func (a *fakeArchiver) ArchiveOpportunities(_ context.Context, before time.Time) (int64, error) {
	a.calls++
	a.before = before
	return a.count, a.err
}

// fakeLockManager hands out a lock unless told it is already held.
type fakeLockManager struct {
	held     bool
	acquires int
	unlocks  int
}

func (l *fakeLockManager) Acquire(_ context.Context, _ string, _ time.Duration) (func(), error) {
	l.acquires++
	if l.held {
		return nil, domain.ErrLockHeld
	}
	return func() { l.unlocks++ }, nil
}

func TestArchiveServiceRunOnceArchivesUnderLock(t *testing.T) {
	archiver := &fakeArchiver{count: 42}
	locks := &fakeLockManager{}
	svc := NewArchiveService(archiver, locks, 30, 3, nil)

	require.NoError(t, svc.RunOnce(context.Background()))

	assert.Equal(t, 1, archiver.calls)
	assert.Equal(t, 1, locks.acquires)
	assert.Equal(t, 1, locks.unlocks, "lock released after the run")

	wantCutoff := time.Now().UTC().AddDate(0, 0, -30)
	assert.WithinDuration(t, wantCutoff, archiver.before, time.Minute)
}

func TestArchiveServiceSkipsWhenLockHeld(t *testing.T) {
	archiver := &fakeArchiver{}
	locks := &fakeLockManager{held: true}
	svc := NewArchiveService(archiver, locks, 30, 3, nil)

	require.NoError(t, svc.RunOnce(context.Background()), "held lock is a skip, not a failure")
	assert.Zero(t, archiver.calls)
}

func TestArchiveServiceRunsWithoutLockManager(t *testing.T) {
	archiver := &fakeArchiver{count: 1}
	svc := NewArchiveService(archiver, nil, 7, 0, nil)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, archiver.calls)
}

func TestArchiveServiceReportsArchiverFailure(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("bucket unreachable")}
	svc := NewArchiveService(archiver, nil, 7, 0, nil)

	err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")
}

func TestNextRunAt(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		hourUTC int
		want    time.Time
	}{
		{
			name:    "before the hour runs today",
			now:     time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC),
			hourUTC: 3,
			want:    time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "after the hour runs tomorrow",
			now:     time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC),
			hourUTC: 3,
			want:    time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "exactly on the hour runs tomorrow",
			now:     time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
			hourUTC: 3,
			want:    time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC),
		},
		{
			name:    "midnight schedule",
			now:     time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
			hourUTC: 0,
			want:    time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextRunAt(tt.now, tt.hourUTC))
		})
	}
}
