package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// VacuumInterval is the minimum interval between VACUUM operations.
const VacuumInterval = 30 * 24 * time.Hour

const metadataKeyLastVacuum = "last_vacuum_at"

// VacuumIfNeeded runs VACUUM when the last run is older than
// VacuumInterval. Returns true if VACUUM was performed. The events table
// only grows between imports and rollbacks, so a monthly compaction is
// enough.
func (s *Store) VacuumIfNeeded(ctx context.Context) (bool, error) {
	last, err := s.lastVacuumTime(ctx)
	if err != nil {
		return false, err
	}
	if time.Since(last) < VacuumInterval {
		return false, nil
	}

	start := time.Now()
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return false, err
	}
	slog.Info("database vacuumed", "elapsed", time.Since(start))

	if err := s.setLastVacuumTime(ctx, time.Now()); err != nil {
		// The VACUUM itself succeeded; the worst case is an early re-run.
		slog.Warn("failed to record vacuum time", "error", err)
	}
	return true, nil
}

// lastVacuumTime reads the recorded vacuum timestamp. A missing or
// unparseable value reads as the zero time, which triggers a run.
func (s *Store) lastVacuumTime(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM metadata WHERE key = ?",
		metadataKeyLastVacuum,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(TimeFormat, value)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func (s *Store) setLastVacuumTime(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		metadataKeyLastVacuum,
		t.UTC().Format(TimeFormat),
	)
	return err
}
