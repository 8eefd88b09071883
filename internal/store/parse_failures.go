package store

import (
	"context"
	"fmt"
	"time"

	"github.com/graaaaa/vrc-albums/internal/event"
)

// InsertParseFailure inserts a parse failure into the database.
// Returns true if the failure was inserted, false if it was a duplicate.
// Uses ON CONFLICT(dedupe_key) DO NOTHING for deduplication.
func (s *Store) InsertParseFailure(ctx context.Context, rawLine, errorMsg, kind string) (inserted bool, err error) {
	if rawLine == "" {
		return false, fmt.Errorf("raw_line is required")
	}

	const query = `
	INSERT INTO parse_failures (ts, raw_line, error_msg, kind, dedupe_key)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(dedupe_key) DO NOTHING
	`

	dedupeKey := event.SHA256Hex(rawLine)
	ts := time.Now().UTC().Format(TimeFormat)

	result, err := s.db.ExecContext(ctx, query, ts, rawLine, errorMsg, kind, dedupeKey)
	if err != nil {
		return false, fmt.Errorf("insert parse failure: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ReportParseFailure implements the aggregator's diagnostics sink on top
// of the parse_failures table. Insert errors are swallowed: diagnostics
// must never interfere with a scan.
func (s *Store) ReportParseFailure(ctx context.Context, f event.ParseFailure) {
	_, _ = s.InsertParseFailure(ctx, f.Line, f.Message, string(f.Kind))
}

// CountParseFailures returns the total number of recorded parse failures.
func (s *Store) CountParseFailures(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parse_failures`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count parse failures: %w", err)
	}
	return count, nil
}
