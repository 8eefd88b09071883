package session

import (
	"sort"
	"time"

	"github.com/graaaaa/vrc-albums/internal/parser"
)

// WorldVisit is the string-field join-log shape used by the legacy
// share-image pipeline: the date and time are kept exactly as they
// appeared in the log file.
type WorldVisit struct {
	WorldID   string
	WorldName string
	Date      string // "yyyy.MM.dd"
	Time      string // "HH:mm:ss"
}

// VisitedAt reconstructs the visit timestamp from the string fields.
// Returns the zero time when the fields do not parse.
func (v WorldVisit) VisitedAt() time.Time {
	ts, err := parser.ParseLogDateTime(v.Date, v.Time)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// CollapseAdjacentWorlds sorts visits ascending by reconstructed date
// and keeps only the first entry of each maximal run of consecutive
// same-world visits. Non-adjacent repeats of the same world, separated
// by a different world, are preserved.
func CollapseAdjacentWorlds(visits []WorldVisit) []WorldVisit {
	if len(visits) == 0 {
		return []WorldVisit{}
	}

	sorted := make([]WorldVisit, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].VisitedAt().Before(sorted[j].VisitedAt())
	})

	out := make([]WorldVisit, 0, len(sorted))
	for i, v := range sorted {
		if i > 0 && v.WorldID == sorted[i-1].WorldID {
			continue
		}
		out = append(out, v)
	}
	return out
}
