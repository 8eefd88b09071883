package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graaaaa/vrc-albums/internal/event"
)

// Stats holds per-type event counts plus auxiliary table sizes.
type Stats struct {
	WorldJoins    int64
	WorldLeaves   int64
	PlayerJoins   int64
	PlayerLeaves  int64
	PhotoJoins    int64
	ParseFailures int64
	LastEventAt   *string
}

// GetStats retrieves aggregate counts across all tables.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0)
		FROM events
	`, event.TypeWorldJoin, event.TypeWorldLeave, event.TypePlayerJoin, event.TypePlayerLeft).
		Scan(&stats.WorldJoins, &stats.WorldLeaves, &stats.PlayerJoins, &stats.PlayerLeaves)
	if err != nil {
		return nil, fmt.Errorf("count events by type: %w", err)
	}

	if stats.PhotoJoins, err = s.CountPhotoJoins(ctx); err != nil {
		return nil, err
	}
	if stats.ParseFailures, err = s.CountParseFailures(ctx); err != nil {
		return nil, err
	}

	var lastTs sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT ts FROM events
		ORDER BY ts DESC, id DESC
		LIMIT 1
	`).Scan(&lastTs)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("last event ts: %w", err)
	}
	if lastTs.Valid {
		stats.LastEventAt = &lastTs.String
	}

	return stats, nil
}
