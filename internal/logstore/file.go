// Package logstore manages the on-disk, month-partitioned log store.
//
// Layout:
//
//	<root>/logStore.txt                                  legacy single file
//	<root>/2024-05/logStore-2024-05.txt                  active month file
//	<root>/2024-05/logStore-2024-05-20240515154530.txt   rotated sibling
package logstore

import (
	"path/filepath"
	"regexp"
	"time"
)

// fileNameRe matches all three store file forms. Group 1 is the
// year-month, group 2 the rotation timestamp; both optional.
var fileNameRe = regexp.MustCompile(`^logStore(?:-(\d{4}-\d{2})(?:-(\d{14}))?)?\.txt$`)

const (
	yearMonthLayout = "2006-01"
	rotationLayout  = "20060102150405"
)

// File identifies a log store file by path. All derivations operate on
// the filename only, never on file contents.
type File struct {
	Path string
}

// NewFile wraps a path as a store File.
func NewFile(path string) File {
	return File{Path: path}
}

// IsStoreFile reports whether the filename is any recognized store form.
func (f File) IsStoreFile() bool {
	return fileNameRe.MatchString(filepath.Base(f.Path))
}

// YearMonth returns the "yyyy-MM" partition of the file.
// The legacy single-file form has no partition; ok is false.
func (f File) YearMonth() (string, bool) {
	m := fileNameRe.FindStringSubmatch(filepath.Base(f.Path))
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// HasTimestamp reports whether the file is a rotated, timestamped sibling.
func (f File) HasTimestamp() bool {
	m := fileNameRe.FindStringSubmatch(filepath.Base(f.Path))
	return m != nil && m[2] != ""
}

// Timestamp returns the rotation timestamp of a timestamped file,
// interpreted in local time to match the log timestamps themselves.
func (f File) Timestamp() (time.Time, bool) {
	m := fileNameRe.FindStringSubmatch(filepath.Base(f.Path))
	if m == nil || m[2] == "" {
		return time.Time{}, false
	}
	ts, err := time.ParseInLocation(rotationLayout, m[2], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
