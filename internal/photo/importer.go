package photo

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"
)

// JoinStore is the persistence contract for photo-derived joins. The
// photo join log is kept separate from the text-log-derived events so
// that history recoverable only from filenames is never conflated with
// authoritative log history.
type JoinStore interface {
	// InsertPhotoJoin records a join fact. Returns false when the fact
	// was already present (idempotent re-import).
	InsertPhotoJoin(ctx context.Context, worldID string, joinedAt time.Time) (bool, error)
}

// Stats summarizes one import run.
type Stats struct {
	Scanned  int
	Matched  int
	Inserted int
}

// Importer recovers world joins from legacy photo filenames.
type Importer struct {
	store  JoinStore
	logger *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ImporterOption {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// NewImporter creates an Importer writing to store.
func NewImporter(store JoinStore, opts ...ImporterOption) *Importer {
	im := &Importer{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportDir recursively scans dir for legacy-named photos and records a
// join fact per match. Non-matching files are skipped silently;
// duplicates are ignored on insert.
func (im *Importer) ImportDir(ctx context.Context, dir string) (Stats, error) {
	var stats Stats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Scanned++
		info, ok := ParseLegacyName(path)
		if !ok {
			return nil
		}
		stats.Matched++

		inserted, err := im.store.InsertPhotoJoin(ctx, info.WorldID, info.TakenAt)
		if err != nil {
			return fmt.Errorf("insert photo join for %s: %w", path, err)
		}
		if inserted {
			stats.Inserted++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("scan photo dir %s: %w", dir, err)
	}

	im.logger.Info("photo import complete",
		"dir", dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"inserted", stats.Inserted,
	)
	return stats, nil
}
