package aggregate

import (
	"context"
	"testing"

	"github.com/graaaaa/vrc-albums/internal/event"
)

// recordingSink collects reported parse failures.
type recordingSink struct {
	failures []event.ParseFailure
}

func (r *recordingSink) ReportParseFailure(_ context.Context, f event.ParseFailure) {
	r.failures = append(r.failures, f)
}

func logLines(ss ...string) []event.LogLine {
	out := make([]event.LogLine, len(ss))
	for i, s := range ss {
		out[i] = event.LogLine(s)
	}
	return out
}

func TestScan_FullSequence(t *testing.T) {
	lines := logLines(
		"2023.10.08 15:00:00 Log        -  [Behaviour] Joining wrld_12345678-1234-1234-1234-123456789abc:12345",
		"2023.10.08 15:00:01 Log        -  [Behaviour] Joining or Creating Room: Test World",
		"2023.10.08 15:05:00 Log        -  [Behaviour] OnPlayerJoined Friend One (usr_12345678-1234-1234-1234-123456789abc)",
		"2023.10.08 15:10:00 Debug      -  [Behaviour] OnPlayerLeft Friend One (usr_12345678-1234-1234-1234-123456789abc)",
		"2023.10.08 15:20:00 Log        -  VRCApplication: HandleApplicationQuit",
	)

	res := New().Scan(context.Background(), lines)

	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %+v", res.Failures)
	}

	// world_join, player_join, player_left, explicit world_leave, then the
	// inferred world_leave appended after the pass.
	wantTypes := []string{
		event.TypeWorldJoin,
		event.TypePlayerJoin,
		event.TypePlayerLeft,
		event.TypeWorldLeave,
		event.TypeWorldLeave,
	}
	if len(res.Events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(res.Events), len(wantTypes), res.Events)
	}
	for i, want := range wantTypes {
		if res.Events[i].Type != want {
			t.Errorf("event[%d].Type = %s, want %s", i, res.Events[i].Type, want)
		}
	}

	// The inferred leave (end of file) carries the applicationQuit reason.
	last := res.Events[len(res.Events)-1]
	if last.Reason == nil || *last.Reason != string(event.LeaveReasonApplicationQuit) {
		t.Errorf("inferred leave reason = %v, want applicationQuit", last.Reason)
	}
}

func TestScan_FailureDoesNotAbort(t *testing.T) {
	sink := &recordingSink{}
	lines := logLines(
		"2023.10.08 15:00:00 Log        -  [Behaviour] OnPlayerJoined BadActor (usr_malformed)",
		"2023.10.08 15:05:00 Log        -  [Behaviour] OnPlayerJoined GoodActor",
	)

	res := New(WithDiagnostics(sink)).Scan(context.Background(), lines)

	if len(res.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(res.Failures))
	}
	if res.Failures[0].Kind != event.FailurePlayerJoin {
		t.Errorf("failure kind = %s, want player_join", res.Failures[0].Kind)
	}
	if len(sink.failures) != 1 {
		t.Errorf("sink received %d failures, want 1", len(sink.failures))
	}

	if len(res.Events) != 1 || res.Events[0].Type != event.TypePlayerJoin {
		t.Fatalf("the valid line should still produce its event: %+v", res.Events)
	}
	if *res.Events[0].PlayerName != "GoodActor" {
		t.Errorf("PlayerName = %q", *res.Events[0].PlayerName)
	}
}

func TestScan_ExcludesOnPlayerLeftRoom(t *testing.T) {
	lines := logLines(
		"2023.10.08 15:00:00 Log        -  [Behaviour] OnPlayerLeftRoom",
	)

	res := New().Scan(context.Background(), lines)

	if len(res.Events) != 0 {
		t.Errorf("OnPlayerLeftRoom should not produce events: %+v", res.Events)
	}
	if len(res.Failures) != 0 {
		t.Errorf("OnPlayerLeftRoom should not produce failures: %+v", res.Failures)
	}
}

func TestScan_Empty(t *testing.T) {
	res := New().Scan(context.Background(), nil)
	if len(res.Events) != 0 || len(res.Failures) != 0 {
		t.Errorf("empty input should yield empty result: %+v", res)
	}
}
