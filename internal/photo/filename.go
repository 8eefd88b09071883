// Package photo recovers world-join facts from photo filenames and
// imports them into the dedicated photo-derived join log.
package photo

import (
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

// takenAtLayout is the timestamp embedded in VRChat photo filenames,
// millisecond precision, local time.
const takenAtLayout = "2006-01-02_15-04-05.000"

var (
	// legacyNameRe matches the old naming convention that embedded the
	// destination world id directly in the filename:
	// VRChat_2023-10-08_15-30-45.123_wrld_<uuid>.png
	legacyNameRe = regexp.MustCompile(`^VRChat_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.\d{3})_(wrld_[0-9a-f-]{36})\.[A-Za-z]+$`)

	// standardNameRe matches the current naming convention:
	// VRChat_2023-10-08_15-30-45.123_1920x1080.png
	standardNameRe = regexp.MustCompile(`^VRChat_(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.\d{3})_(\d+)x(\d+)\.[A-Za-z]+$`)
)

// LegacyInfo is the world-join fact recovered from a legacy filename.
type LegacyInfo struct {
	TakenAt time.Time
	WorldID string
}

// StandardInfo is the metadata carried by a standard photo filename.
type StandardInfo struct {
	TakenAt time.Time
	Width   int
	Height  int
}

// ParseLegacyName parses a legacy world-embedded photo filename.
// The argument may be a full path; only the base name is inspected.
func ParseLegacyName(path string) (LegacyInfo, bool) {
	m := legacyNameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return LegacyInfo{}, false
	}
	takenAt, err := time.ParseInLocation(takenAtLayout, m[1], time.Local)
	if err != nil {
		return LegacyInfo{}, false
	}
	return LegacyInfo{TakenAt: takenAt, WorldID: m[2]}, true
}

// ParseStandardName parses a standard photo filename.
func ParseStandardName(path string) (StandardInfo, bool) {
	m := standardNameRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return StandardInfo{}, false
	}
	takenAt, err := time.ParseInLocation(takenAtLayout, m[1], time.Local)
	if err != nil {
		return StandardInfo{}, false
	}
	w, err := strconv.Atoi(m[2])
	if err != nil {
		return StandardInfo{}, false
	}
	h, err := strconv.Atoi(m[3])
	if err != nil {
		return StandardInfo{}, false
	}
	return StandardInfo{TakenAt: takenAt, Width: w, Height: h}, true
}
