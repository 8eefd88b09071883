// Package transfer orchestrates log store import, export and rollback
// with a backup-before-mutate guarantee.
package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/graaaaa/vrc-albums/internal/aggregate"
	"github.com/graaaaa/vrc-albums/internal/backup"
	"github.com/graaaaa/vrc-albums/internal/event"
	"github.com/graaaaa/vrc-albums/internal/logstore"
)

// ErrNoImportFiles is the user-facing rejection when no candidate files
// resolve from the requested paths.
var ErrNoImportFiles = errors.New("no log store files found to import")

// EventStore is the persistence contract consumed by the orchestrator.
type EventStore interface {
	InsertEvent(ctx context.Context, e *event.Event) (bool, error)
	EventsInRange(ctx context.Context, since, until time.Time, eventType string) ([]event.Event, error)
}

// Clock provides time for deterministic testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service wires the log store manager, the aggregator and the backup
// service into the import/export/rollback operations.
type Service struct {
	store   EventStore
	logs    *logstore.Manager
	backups *backup.Service
	agg     *aggregate.Aggregator
	clock   Clock
	logger  *slog.Logger
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

// NewService creates a transfer Service.
func NewService(store EventStore, logs *logstore.Manager, backups *backup.Service, agg *aggregate.Aggregator, opts ...Option) *Service {
	s := &Service{
		store:   store,
		logs:    logs,
		backups: backups,
		agg:     agg,
		clock:   realClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportResult reports a completed import.
type ImportResult struct {
	TotalLines     int64
	ProcessedFiles []string
	Backup         *backup.Metadata
}

// Import ingests foreign log store files into the local store.
//
// paths may mix files and directories; directories are scanned
// recursively for logStore*.txt. A pre-import backup is confirmed
// persisted before the first mutation; if backup creation fails the
// import aborts with nothing changed. Files are then processed one at a
// time, in order, so rotation decisions always see a consistent current
// file size.
func (s *Service) Import(ctx context.Context, paths []string) (*ImportResult, error) {
	files, err := resolveImportFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoImportFiles
	}

	meta, err := s.backups.CreatePreImportBackup(ctx)
	if err != nil {
		return nil, fmt.Errorf("create pre-import backup: %w", err)
	}

	now := s.clock.Now()
	meta.ImportStatus = backup.ImportApplying
	meta.ImportedAt = &now
	meta.SourceFiles = files
	if err := s.backups.UpdateMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("mark import applying: %w", err)
	}

	result := &ImportResult{Backup: meta}
	var totalBytes int64

	for _, file := range files {
		lines, size, err := readLines(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}

		res := s.agg.Scan(ctx, lines)
		for _, e := range res.Events {
			e.IngestedAt = s.clock.Now()
			if _, err := s.store.InsertEvent(ctx, e); err != nil {
				return nil, fmt.Errorf("persist event from %s: %w", file, err)
			}
		}

		raw := make([]string, len(lines))
		for i, l := range lines {
			raw[i] = string(l)
		}
		if _, err := s.logs.AppendLines(raw); err != nil {
			return nil, fmt.Errorf("append lines from %s: %w", file, err)
		}

		result.TotalLines += int64(len(lines))
		result.ProcessedFiles = append(result.ProcessedFiles, file)
		totalBytes += size

		s.logger.Info("imported log store file",
			"file", file,
			"lines", len(lines),
			"events", len(res.Events),
			"failures", len(res.Failures),
			"size", humanize.Bytes(uint64(size)),
		)
	}

	meta.ImportStatus = backup.ImportCompleted
	meta.TotalLogLines = result.TotalLines
	if err := s.backups.UpdateMetadata(ctx, meta); err != nil {
		return nil, fmt.Errorf("mark import completed: %w", err)
	}

	s.logger.Info("import complete",
		"files", len(result.ProcessedFiles),
		"lines", result.TotalLines,
		"size", humanize.Bytes(uint64(totalBytes)),
	)
	return result, nil
}

// Rollback restores the log store from the identified backup and marks
// it rolled back. An unknown id surfaces the store's not-found error.
func (s *Service) Rollback(ctx context.Context, backupID string) (*backup.Metadata, error) {
	return s.backups.Restore(ctx, backupID)
}

// resolveImportFiles expands the path list into candidate store files.
func resolveImportFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			if isImportCandidate(p) {
				files = append(files, p)
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isImportCandidate(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}
	return files, nil
}

// isImportCandidate matches logStore*.txt, including the legacy name.
func isImportCandidate(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "logStore") && strings.HasSuffix(base, ".txt")
}

// readLines reads a file into log lines, returning the byte size too.
func readLines(path string) ([]event.LogLine, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}

	var lines []event.LogLine
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, event.LogLine(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}

	return lines, info.Size(), nil
}
