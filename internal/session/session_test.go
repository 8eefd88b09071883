package session

import (
	"testing"
	"time"

	"github.com/graaaaa/vrc-albums/internal/event"
)

type fakeClock struct {
	now time.Time
}

func (f fakeClock) Now() time.Time { return f.now }

func join(id string, at time.Time) event.WorldJoin {
	return event.WorldJoin{JoinedAt: at, WorldID: id, WorldName: id}
}

func TestGroup_Empty(t *testing.T) {
	got := Group(nil, nil)
	if len(got) != 0 {
		t.Errorf("Group(nil, nil) = %+v, want empty", got)
	}
}

func TestGroup_OpenEndedLastSession(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)
	joins := []event.WorldJoin{join("wrld_a", t0)}
	photos := []Photo{
		{Path: "p1.png", TakenAt: time.Date(2020, 1, 2, 0, 0, 0, 0, time.Local)},
		{Path: "p2.png", TakenAt: time.Date(2020, 1, 3, 0, 0, 0, 0, time.Local)},
	}
	clk := fakeClock{now: time.Date(2020, 2, 1, 0, 0, 0, 0, time.Local)}

	got := GroupWithClock(joins, photos, clk)
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if len(got[0].Photos) != 2 {
		t.Errorf("got %d photos in session, want 2", len(got[0].Photos))
	}
}

func TestGroup_BoundaryExclusion(t *testing.T) {
	t0 := time.Date(2023, 6, 1, 12, 0, 0, 0, time.Local)
	t1 := time.Date(2023, 6, 1, 13, 0, 0, 0, time.Local)
	joins := []event.WorldJoin{join("wrld_a", t0), join("wrld_b", t1)}

	photos := []Photo{
		{Path: "inside.png", TakenAt: t1.Add(-time.Second)}, // exactly t1-1s: session 0
		{Path: "boundary.png", TakenAt: t1},                 // exactly t1: neither
	}
	clk := fakeClock{now: t1.Add(time.Hour)}

	got := GroupWithClock(joins, photos, clk)

	// Two join sessions plus the catch-all for the boundary photo.
	if len(got) != 3 {
		t.Fatalf("got %d sessions, want 3", len(got))
	}

	if len(got[0].Photos) != 1 || got[0].Photos[0].Path != "inside.png" {
		t.Errorf("session 0 photos = %+v, want [inside.png]", got[0].Photos)
	}
	if len(got[1].Photos) != 0 {
		t.Errorf("session 1 photos = %+v, want none", got[1].Photos)
	}
	if got[2].Join != nil || len(got[2].Photos) != 1 || got[2].Photos[0].Path != "boundary.png" {
		t.Errorf("catch-all session = %+v, want [boundary.png] with nil join", got[2])
	}
}

func TestGroup_PhotoAtJoinSecondExcluded(t *testing.T) {
	t0 := time.Date(2023, 6, 1, 12, 0, 0, 0, time.Local)
	joins := []event.WorldJoin{join("wrld_a", t0)}
	photos := []Photo{{Path: "same-second.png", TakenAt: t0}}
	clk := fakeClock{now: t0.Add(time.Hour)}

	got := GroupWithClock(joins, photos, clk)
	if len(got[0].Photos) != 0 {
		t.Errorf("photo taken in the join second should not be attributed: %+v", got[0].Photos)
	}
}

func TestGroup_SortsJoinsWithoutMutatingInput(t *testing.T) {
	t0 := time.Date(2023, 6, 1, 12, 0, 0, 0, time.Local)
	t1 := t0.Add(time.Hour)
	joins := []event.WorldJoin{join("wrld_b", t1), join("wrld_a", t0)}
	clk := fakeClock{now: t1.Add(time.Hour)}

	got := GroupWithClock(joins, nil, clk)
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2", len(got))
	}
	if got[0].Join.WorldID != "wrld_a" || got[1].Join.WorldID != "wrld_b" {
		t.Errorf("sessions not in join order: %s, %s", got[0].Join.WorldID, got[1].Join.WorldID)
	}

	if joins[0].WorldID != "wrld_b" {
		t.Error("input slice was mutated by sorting")
	}
}

func TestCollapseAdjacentWorlds(t *testing.T) {
	visits := []WorldVisit{
		{WorldID: "wrld_a", Date: "2023.06.01", Time: "10:00:00"},
		{WorldID: "wrld_a", Date: "2023.06.01", Time: "11:00:00"},
		{WorldID: "wrld_b", Date: "2023.06.01", Time: "12:00:00"},
		{WorldID: "wrld_a", Date: "2023.06.01", Time: "13:00:00"},
	}

	got := CollapseAdjacentWorlds(visits)

	want := []struct {
		id   string
		time string
	}{
		{"wrld_a", "10:00:00"},
		{"wrld_b", "12:00:00"},
		{"wrld_a", "13:00:00"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d visits, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].WorldID != w.id || got[i].Time != w.time {
			t.Errorf("visit[%d] = {%s %s}, want {%s %s}", i, got[i].WorldID, got[i].Time, w.id, w.time)
		}
	}
}

func TestCollapseAdjacentWorlds_SortsFirst(t *testing.T) {
	visits := []WorldVisit{
		{WorldID: "wrld_b", Date: "2023.06.01", Time: "12:00:00"},
		{WorldID: "wrld_a", Date: "2023.06.01", Time: "10:00:00"},
		{WorldID: "wrld_b", Date: "2023.06.01", Time: "11:00:00"},
	}

	got := CollapseAdjacentWorlds(visits)

	// Sorted order is a@10, b@11, b@12; the adjacent b run collapses.
	if len(got) != 2 {
		t.Fatalf("got %d visits, want 2: %+v", len(got), got)
	}
	if got[0].WorldID != "wrld_a" || got[1].WorldID != "wrld_b" || got[1].Time != "11:00:00" {
		t.Errorf("unexpected result: %+v", got)
	}
}
