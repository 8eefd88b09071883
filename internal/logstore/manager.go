package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultRotationBytes is the size threshold above which the active month
// file stops receiving appends and a timestamped sibling takes over.
const DefaultRotationBytes int64 = 10 * 1024 * 1024

// Sentinel errors for store file discovery.
var (
	// ErrDirNotFound is returned when the store root does not exist.
	ErrDirNotFound = errors.New("log store directory not found")

	// ErrFilesNotFound is returned when no store files fall in the
	// requested range.
	ErrFilesNotFound = errors.New("no log store files found")
)

// Clock provides time for deterministic testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager maps "append this batch of lines" onto physical month files.
// It assumes a single process and a single writer.
type Manager struct {
	root          string
	rotationBytes int64
	clock         Clock
	logger        *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRotationBytes overrides the rotation threshold.
func WithRotationBytes(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.rotationBytes = n
		}
	}
}

// WithClock sets the clock (for testing).
func WithClock(c Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Manager rooted at dir.
func New(root string, opts ...Option) *Manager {
	m := &Manager{
		root:          root,
		rotationBytes: DefaultRotationBytes,
		clock:         realClock{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Root returns the store root directory.
func (m *Manager) Root() string { return m.root }

// ActiveFilePath returns the append target for now, applying the
// rotation rule: if the month's standard file already exceeds the
// threshold, a new timestamped sibling (timestamp = now, second
// precision) becomes the target instead of the oversized file.
func (m *Manager) ActiveFilePath() (string, error) {
	now := m.clock.Now()
	ym := now.Format(yearMonthLayout)
	dir := filepath.Join(m.root, ym)
	active := filepath.Join(dir, fmt.Sprintf("logStore-%s.txt", ym))

	info, err := os.Stat(active)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return active, nil
		}
		return "", fmt.Errorf("stat %s: %w", active, err)
	}

	if info.Size() <= m.rotationBytes {
		return active, nil
	}

	rotated := filepath.Join(dir, fmt.Sprintf("logStore-%s-%s.txt", ym, now.Format(rotationLayout)))
	m.logger.Info("rotating log store file",
		"file", active,
		"size", humanize.Bytes(uint64(info.Size())),
		"threshold", humanize.Bytes(uint64(m.rotationBytes)),
		"next", rotated,
	)
	return rotated, nil
}

// AppendLines appends the batch to the active file for the current
// month, creating the month directory and file as needed.
// Returns the path that received the lines.
func (m *Manager) AppendLines(lines []string) (string, error) {
	path, err := m.ActiveFilePath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create month dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return "", fmt.Errorf("append to %s: %w", path, err)
		}
	}

	return path, nil
}

// FilePathsInRange returns every store file whose month falls within
// [start, end]. Timestamped rotation siblings are included, so callers
// must not assume one file per month. The legacy single file carries no
// month and is always included when present.
func (m *Manager) FilePathsInRange(start, end time.Time) ([]string, error) {
	if _, err := os.Stat(m.root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, m.root)
		}
		return nil, fmt.Errorf("stat store root: %w", err)
	}

	startMonth := monthOf(start)
	endMonth := monthOf(end)

	var paths []string
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f := NewFile(path)
		if !f.IsStoreFile() {
			return nil
		}

		ym, ok := f.YearMonth()
		if !ok {
			paths = append(paths, path)
			return nil
		}
		month, perr := time.ParseInLocation(yearMonthLayout, ym, time.Local)
		if perr != nil {
			return nil
		}
		if !month.Before(startMonth) && !month.After(endMonth) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk store root: %w", err)
	}

	if len(paths) == 0 {
		return nil, ErrFilesNotFound
	}

	sort.Strings(paths)
	return paths, nil
}

// AllFilePaths returns every store file under the root, regardless of
// month. Used when snapshotting the whole store for a backup.
func (m *Manager) AllFilePaths() ([]string, error) {
	if _, err := os.Stat(m.root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, m.root)
		}
		return nil, fmt.Errorf("stat store root: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(m.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && NewFile(path).IsStoreFile() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk store root: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// RemoveAllFiles deletes every store file under the root. Used by
// rollback before the snapshot is copied back.
func (m *Manager) RemoveAllFiles() error {
	paths, err := m.AllFilePaths()
	if err != nil {
		if errors.Is(err, ErrDirNotFound) {
			return nil
		}
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// monthOf truncates t to the first instant of its month.
func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
