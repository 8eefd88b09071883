package logstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeClock returns a fixed time.
type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

func TestFile_YearMonth(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		wantYM string
		wantOK bool
	}{
		{"legacy single file", "logStore.txt", "", false},
		{"standard month file", "logStore-2024-05.txt", "2024-05", true},
		{"timestamped file", "logStore-2024-05-20240515154530.txt", "2024-05", true},
		{"with directory prefix", filepath.Join("store", "2024-05", "logStore-2024-05.txt"), "2024-05", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ym, ok := NewFile(tt.path).YearMonth()
			if ok != tt.wantOK || ym != tt.wantYM {
				t.Errorf("YearMonth() = (%q, %v), want (%q, %v)", ym, ok, tt.wantYM, tt.wantOK)
			}
		})
	}
}

func TestFile_Timestamp(t *testing.T) {
	f := NewFile("logStore-2024-05-20240515154530.txt")

	if !f.HasTimestamp() {
		t.Fatal("HasTimestamp() = false, want true")
	}

	ts, ok := f.Timestamp()
	if !ok {
		t.Fatal("Timestamp() not ok")
	}
	want := time.Date(2024, 5, 15, 15, 45, 30, 0, time.Local)
	if !ts.Equal(want) {
		t.Errorf("Timestamp() = %v, want %v", ts, want)
	}

	if NewFile("logStore-2024-05.txt").HasTimestamp() {
		t.Error("standard file should not have a timestamp")
	}
	if NewFile("logStore.txt").HasTimestamp() {
		t.Error("legacy file should not have a timestamp")
	}
}

func TestFile_IsStoreFile(t *testing.T) {
	if !NewFile("logStore.txt").IsStoreFile() {
		t.Error("logStore.txt should be recognized")
	}
	if NewFile("notes.txt").IsStoreFile() {
		t.Error("notes.txt should not be recognized")
	}
	if NewFile("logStore-2024-5.txt").IsStoreFile() {
		t.Error("unpadded month should not be recognized")
	}
}

func TestAppendLines_CreatesMonthFile(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.Local)
	m := New(root, WithClock(fakeClock{now}))

	path, err := m.AppendLines([]string{"line one", "line two"})
	if err != nil {
		t.Fatalf("AppendLines: %v", err)
	}

	want := filepath.Join(root, "2024-05", "logStore-2024-05.txt")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("content = %q", string(data))
	}

	// A second batch appends to the same file.
	if _, err := m.AppendLines([]string{"line three"}); err != nil {
		t.Fatalf("second append: %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.HasSuffix(string(data), "line three\n") {
		t.Errorf("append did not extend file: %q", string(data))
	}
}

func TestAppendLines_RotatesOversizedFile(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 5, 15, 15, 45, 30, 0, time.Local)
	m := New(root, WithClock(fakeClock{now}), WithRotationBytes(16))

	active := filepath.Join(root, "2024-05", "logStore-2024-05.txt")
	if err := os.MkdirAll(filepath.Dir(active), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(active, []byte(strings.Repeat("x", 32)), 0o600); err != nil {
		t.Fatal(err)
	}

	path, err := m.AppendLines([]string{"rotated line"})
	if err != nil {
		t.Fatalf("AppendLines: %v", err)
	}

	want := filepath.Join(root, "2024-05", "logStore-2024-05-20240515154530.txt")
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	// The oversized file must not have been mutated.
	info, err := os.Stat(active)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 32 {
		t.Errorf("oversized file grew to %d bytes", info.Size())
	}
}

func TestFilePathsInRange(t *testing.T) {
	root := t.TempDir()
	files := []string{
		filepath.Join(root, "logStore.txt"),
		filepath.Join(root, "2024-04", "logStore-2024-04.txt"),
		filepath.Join(root, "2024-05", "logStore-2024-05.txt"),
		filepath.Join(root, "2024-05", "logStore-2024-05-20240515154530.txt"),
		filepath.Join(root, "2024-07", "logStore-2024-07.txt"),
	}
	for _, f := range files {
		if err := os.MkdirAll(filepath.Dir(f), 0o700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(f, []byte("x\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	m := New(root)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.Local)

	got, err := m.FilePathsInRange(start, end)
	if err != nil {
		t.Fatalf("FilePathsInRange: %v", err)
	}

	// Both May files (standard + rotated) and the legacy file; April and
	// July are out of range.
	if len(got) != 3 {
		t.Fatalf("got %d paths, want 3: %v", len(got), got)
	}
	for _, p := range got {
		base := filepath.Base(p)
		if base != "logStore.txt" && !strings.HasPrefix(base, "logStore-2024-05") {
			t.Errorf("unexpected path in range: %s", p)
		}
	}
}

func TestFilePathsInRange_DirNotFound(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "missing"))

	_, err := m.FilePathsInRange(time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, ErrDirNotFound) {
		t.Errorf("error = %v, want ErrDirNotFound", err)
	}
}

func TestFilePathsInRange_NoFiles(t *testing.T) {
	m := New(t.TempDir())

	_, err := m.FilePathsInRange(time.Now().AddDate(0, -1, 0), time.Now())
	if !errors.Is(err, ErrFilesNotFound) {
		t.Errorf("error = %v, want ErrFilesNotFound", err)
	}
}
