package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/graaaaa/vrc-albums/internal/logstore"
)

// MetadataStore is the persistence contract for backup metadata.
type MetadataStore interface {
	InsertBackup(ctx context.Context, m *Metadata) error
	UpdateBackup(ctx context.Context, m *Metadata) error
	GetBackup(ctx context.Context, id string) (*Metadata, error)
	ListBackups(ctx context.Context) ([]Metadata, error)
}

// Clock provides time for deterministic testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service snapshots the log store before imports and restores snapshots
// on rollback. Snapshots live under <root>/backup-<uuid>/, mirroring the
// log store's relative layout.
type Service struct {
	root   string
	meta   MetadataStore
	logs   *logstore.Manager
	clock  Clock
	logger *slog.Logger
	newID  func() string
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock (for testing).
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator sets the backup id generator (for testing).
func WithIDGenerator(f func() string) Option {
	return func(s *Service) {
		if f != nil {
			s.newID = f
		}
	}
}

// NewService creates a backup Service rooted at dir.
func NewService(root string, meta MetadataStore, logs *logstore.Manager, opts ...Option) *Service {
	s := &Service{
		root:   root,
		meta:   meta,
		logs:   logs,
		clock:  realClock{},
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePreImportBackup snapshots every current log store file.
//
// Metadata is persisted as pending before the first byte is copied and
// marked completed only after every file landed, so a crash mid-copy is
// visible in the history. Callers must abort their mutation if this
// returns an error.
func (s *Service) CreatePreImportBackup(ctx context.Context) (*Metadata, error) {
	id := s.newID()
	folder := filepath.Join(s.root, "backup-"+id)

	files, err := s.logs.AllFilePaths()
	if err != nil && !errors.Is(err, logstore.ErrDirNotFound) {
		return nil, fmt.Errorf("enumerate store files: %w", err)
	}

	sources := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(s.logs.Root(), f)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", f, err)
		}
		sources = append(sources, rel)
	}

	m := &Metadata{
		ID:            id,
		CreatedAt:     s.clock.Now(),
		FolderPath:    folder,
		SourceFiles:   sources,
		Status:        StatusPending,
		ExportedFiles: []string{},
	}
	if err := s.meta.InsertBackup(ctx, m); err != nil {
		return nil, fmt.Errorf("persist backup metadata: %w", err)
	}

	for i, f := range files {
		dst := filepath.Join(folder, sources[i])
		if err := copyFile(f, dst); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", f, err)
		}
		m.ExportedFiles = append(m.ExportedFiles, dst)
	}

	m.Status = StatusCompleted
	if err := s.meta.UpdateBackup(ctx, m); err != nil {
		return nil, fmt.Errorf("mark backup completed: %w", err)
	}

	s.logger.Info("pre-import backup created",
		"backup_id", id,
		"files", len(files),
		"folder", folder,
	)
	return m, nil
}

// History returns all backups, newest first.
func (s *Service) History(ctx context.Context) ([]Metadata, error) {
	return s.meta.ListBackups(ctx)
}

// Get returns the metadata for one backup id.
func (s *Service) Get(ctx context.Context, id string) (*Metadata, error) {
	return s.meta.GetBackup(ctx, id)
}

// UpdateMetadata persists changed metadata fields.
func (s *Service) UpdateMetadata(ctx context.Context, m *Metadata) error {
	return s.meta.UpdateBackup(ctx, m)
}

// Restore replaces the current log store with the snapshot and marks the
// backup rolled back. All current store files are removed first so files
// created after the backup do not survive the rollback.
func (s *Service) Restore(ctx context.Context, id string) (*Metadata, error) {
	m, err := s.meta.GetBackup(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.logs.RemoveAllFiles(); err != nil {
		return nil, fmt.Errorf("clear current store: %w", err)
	}

	err = filepath.WalkDir(m.FolderPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.FolderPath, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(s.logs.Root(), rel))
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}

	m.Status = StatusRolledBack
	if err := s.meta.UpdateBackup(ctx, m); err != nil {
		return nil, fmt.Errorf("mark backup rolled back: %w", err)
	}

	s.logger.Info("backup restored", "backup_id", id)
	return m, nil
}

// copyFile copies src to dst, creating parent directories.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
