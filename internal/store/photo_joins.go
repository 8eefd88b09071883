package store

import (
	"context"
	"fmt"
	"time"
)

// PhotoJoin is one world-join fact recovered from a photo filename.
type PhotoJoin struct {
	ID       int64
	WorldID  string
	JoinedAt time.Time
}

// InsertPhotoJoin records a photo-derived join fact.
// Returns false when the same world/timestamp pair is already present,
// making re-imports idempotent.
func (s *Store) InsertPhotoJoin(ctx context.Context, worldID string, joinedAt time.Time) (bool, error) {
	if worldID == "" {
		return false, fmt.Errorf("world_id is required")
	}
	if joinedAt.IsZero() {
		return false, fmt.Errorf("joined_at is required")
	}

	const query = `
	INSERT INTO photo_joins (world_id, joined_at)
	VALUES (?, ?)
	ON CONFLICT(world_id, joined_at) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query, worldID, joinedAt.UTC().Format(TimeFormat))
	if err != nil {
		return false, fmt.Errorf("insert photo join: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListPhotoJoins returns all photo-derived joins ordered by join time.
func (s *Store) ListPhotoJoins(ctx context.Context) ([]PhotoJoin, error) {
	const query = `SELECT id, world_id, joined_at FROM photo_joins ORDER BY joined_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list photo joins: %w", err)
	}
	defer rows.Close()

	var joins []PhotoJoin
	for rows.Next() {
		var (
			j  PhotoJoin
			ts string
		)
		if err := rows.Scan(&j.ID, &j.WorldID, &ts); err != nil {
			return nil, fmt.Errorf("scan photo join: %w", err)
		}
		t, err := time.Parse(TimeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parse joined_at %q: %w", ts, err)
		}
		j.JoinedAt = t
		joins = append(joins, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return joins, nil
}

// CountPhotoJoins returns the total number of photo-derived joins.
func (s *Store) CountPhotoJoins(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photo_joins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count photo joins: %w", err)
	}
	return count, nil
}
