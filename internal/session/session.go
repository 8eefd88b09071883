// Package session reconstructs world visits from join events and
// attributes photos to the visit they were taken in.
package session

import (
	"sort"
	"time"

	"github.com/graaaaa/vrc-albums/internal/event"
)

// Clock provides time for deterministic testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// DefaultClock is used by the simple production API.
var DefaultClock Clock = realClock{}

// Photo is a photo file with its taken-at timestamp.
type Photo struct {
	Path    string
	TakenAt time.Time
}

// Session is a world visit bounded by two joins (or by "now" for the
// last join), with the photos taken during it. Join is nil for the
// catch-all session holding photos that fall outside every visit.
type Session struct {
	Join   *event.WorldJoin
	Photos []Photo
}

// Group partitions photos into per-visit buckets.
//
// Joins are sorted ascending by join time (the input slice is not
// mutated). Join i's visit ends one second before join i+1, or at now()
// for the last join. A photo belongs to a visit iff it was taken
// strictly after the join and no later than the upper bound; a photo
// taken in the same second as a join, or between the upper bound and the
// next join, belongs to neither neighboring visit. Unattributed photos
// are collected into a trailing nil-Join session so none are lost.
func Group(joins []event.WorldJoin, photos []Photo) []Session {
	return GroupWithClock(joins, photos, DefaultClock)
}

// GroupWithClock is Group with an injectable clock.
func GroupWithClock(joins []event.WorldJoin, photos []Photo, clk Clock) []Session {
	if clk == nil {
		clk = DefaultClock
	}
	if len(joins) == 0 && len(photos) == 0 {
		return []Session{}
	}

	sorted := make([]event.WorldJoin, len(joins))
	copy(sorted, joins)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})

	sessions := make([]Session, 0, len(sorted)+1)
	assigned := make([]bool, len(photos))

	for i := range sorted {
		join := sorted[i]

		var upper time.Time
		if i+1 < len(sorted) {
			upper = sorted[i+1].JoinedAt.Add(-time.Second)
		} else {
			upper = clk.Now()
		}

		s := Session{Join: &sorted[i], Photos: []Photo{}}
		for pi, p := range photos {
			if assigned[pi] {
				continue
			}
			if p.TakenAt.After(join.JoinedAt) && !p.TakenAt.After(upper) {
				s.Photos = append(s.Photos, p)
				assigned[pi] = true
			}
		}
		sessions = append(sessions, s)
	}

	var orphans []Photo
	for pi, p := range photos {
		if !assigned[pi] {
			orphans = append(orphans, p)
		}
	}
	if len(orphans) > 0 {
		sessions = append(sessions, Session{Photos: orphans})
	}

	return sessions
}
