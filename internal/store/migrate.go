package store

import (
	"context"
	"fmt"
)

// CurrentSchemaVersion is the current database schema version.
const CurrentSchemaVersion = 1

// migrate runs database migrations.
func (s *Store) migrate(ctx context.Context) error {
	steps := []func(context.Context) error{
		s.createEventsTable,
		s.createPhotoJoinsTable,
		s.createParseFailuresTable,
		s.createBackupsTable,
		s.createMetadataTable,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) createEventsTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id             INTEGER PRIMARY KEY,
		ts             TEXT NOT NULL,
		type           TEXT NOT NULL,
		player_name    TEXT,
		player_id      TEXT,
		world_id       TEXT,
		world_name     TEXT,
		instance_id    TEXT,
		reason         TEXT,
		dedupe_key     TEXT NOT NULL,
		ingested_at    TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		UNIQUE(dedupe_key)
	);

	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
	CREATE INDEX IF NOT EXISTS idx_events_type_ts ON events(type, ts);
	CREATE INDEX IF NOT EXISTS idx_events_ts_id ON events(ts, id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// photo_joins is the join log recovered from legacy photo filenames.
// Kept separate from events so fallback history never mixes with
// authoritative log-derived history.
func (s *Store) createPhotoJoinsTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS photo_joins (
		id        INTEGER PRIMARY KEY,
		world_id  TEXT NOT NULL,
		joined_at TEXT NOT NULL,
		UNIQUE(world_id, joined_at)
	);

	CREATE INDEX IF NOT EXISTS idx_photo_joins_joined_at ON photo_joins(joined_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create photo_joins table: %w", err)
	}
	return nil
}

func (s *Store) createParseFailuresTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS parse_failures (
		id         INTEGER PRIMARY KEY,
		ts         TEXT NOT NULL,
		raw_line   TEXT NOT NULL,
		error_msg  TEXT,
		kind       TEXT,
		dedupe_key TEXT NOT NULL,
		UNIQUE(dedupe_key)
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create parse_failures table: %w", err)
	}
	return nil
}

func (s *Store) createBackupsTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS backups (
		id              TEXT PRIMARY KEY,
		created_at      TEXT NOT NULL,
		folder_path     TEXT NOT NULL,
		source_files    TEXT NOT NULL,
		status          TEXT NOT NULL,
		import_status   TEXT NOT NULL DEFAULT '',
		imported_at     TEXT,
		total_log_lines INTEGER NOT NULL DEFAULT 0,
		exported_files  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_backups_created_at ON backups(created_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create backups table: %w", err)
	}
	return nil
}

func (s *Store) createMetadataTable(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS metadata (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create metadata table: %w", err)
	}
	return nil
}
