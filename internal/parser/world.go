package parser

import (
	"regexp"
	"strings"

	"github.com/graaaaa/vrc-albums/internal/event"
)

// RoomNameLookahead bounds the forward scan for the room-name line that
// follows a world join. VRChat emits the room name within a handful of
// lines; the bound only exists to keep cost finite on corrupt logs.
const RoomNameLookahead = 512

var (
	worldJoinRe = regexp.MustCompile(`^(\d{4}\.\d{2}\.\d{2}) (\d{2}:\d{2}:\d{2}).*\[Behaviour\] Joining (wrld_[0-9a-f-]+):(\S+)`)
	roomNameRe  = regexp.MustCompile(`\[Behaviour\] Joining or Creating Room: (.+)$`)

	// worldIDRe is the strict world id validator: "wrld_" followed by a
	// 36-character UUID.
	worldIDRe = regexp.MustCompile(`^wrld_[0-9a-f-]{36}$`)
)

// ValidWorldID reports whether s is a well-formed world id.
func ValidWorldID(s string) bool {
	return worldIDRe.MatchString(s)
}

// ParseWorldJoin parses a world-join event starting at lines[idx].
//
// If lines[idx] does not match the join pattern at all, both results are
// nil. On a structural match, the room name is taken from the first
// "Joining or Creating Room" line within the lookahead window; a missing
// room name or an invalid world id yields a ParseError.
func ParseWorldJoin(lines []event.LogLine, idx int) (*event.WorldJoin, *ParseError) {
	if idx < 0 || idx >= len(lines) {
		return nil, nil
	}
	line := string(lines[idx])

	m := worldJoinRe.FindStringSubmatch(line)
	if m == nil {
		return nil, nil
	}

	joinedAt, err := ParseLogDateTime(m[1], m[2])
	if err != nil {
		return nil, &ParseError{Kind: KindDateParse, Line: line, Err: err}
	}

	worldID := m[3]
	if !ValidWorldID(worldID) {
		return nil, &ParseError{Kind: KindFormatMismatch, Line: line, Err: ErrInvalidWorldID}
	}

	end := idx + 1 + RoomNameLookahead
	if end > len(lines) {
		end = len(lines)
	}
	for i := idx + 1; i < end; i++ {
		if rm := roomNameRe.FindStringSubmatch(string(lines[i])); rm != nil {
			return &event.WorldJoin{
				JoinedAt:   joinedAt,
				WorldID:    worldID,
				InstanceID: m[4],
				WorldName:  rm[1],
			}, nil
		}
	}

	return nil, &ParseError{Kind: KindFormatMismatch, Line: line, Err: ErrRoomNameNotFound}
}

// leaveRule maps a literal log phrase to a leave reason. Rules are tried
// in order; the first match wins.
type leaveRule struct {
	phrase string
	reason event.LeaveReason
}

// worldLeaveRules is the ordered phrase table for explicit leave
// detection. New leave signatures are added here, not in code.
var worldLeaveRules = []leaveRule{
	// Application quit
	{"VRCApplication: HandleApplicationQuit", event.LeaveReasonApplicationQuit},
	{"HandleApplicationQuit", event.LeaveReasonApplicationQuit},
	// Disconnects
	{"Lost connection", event.LeaveReasonDisconnect},
	{"Disconnected", event.LeaveReasonDisconnect},
	{"Network error", event.LeaveReasonDisconnect},
	{"Connection timeout", event.LeaveReasonDisconnect},
	// User-initiated leaves have no dedicated phrase today; the reason is
	// assigned during inference from the next world join instead.
}

// ParseWorldLeave parses an explicit world-leave line.
// Returns nil if no rule matches or the line has no date/time prefix.
func ParseWorldLeave(line event.LogLine) *event.WorldLeave {
	s := string(line)
	ts, ok := lineTimestamp(s)
	if !ok {
		return nil
	}
	for _, r := range worldLeaveRules {
		if strings.Contains(s, r.phrase) {
			return &event.WorldLeave{LeftAt: ts, Reason: r.reason}
		}
	}
	return nil
}

// InferWorldLeaveEvents synthesizes a leave event for every world join
// that has no explicit leave line. The session ends on the line
// immediately before the next join (user action) or on the last line of
// the file (application quit). Joins whose boundary line has no parseable
// date/time prefix are skipped.
func InferWorldLeaveEvents(lines []event.LogLine, joinIndices []int) []event.WorldLeave {
	if len(lines) == 0 {
		return nil
	}

	leaves := make([]event.WorldLeave, 0, len(joinIndices))
	for i := range joinIndices {
		var (
			boundary int
			reason   event.LeaveReason
		)
		if i+1 < len(joinIndices) {
			boundary = joinIndices[i+1] - 1
			reason = event.LeaveReasonUserAction
		} else {
			boundary = len(lines) - 1
			reason = event.LeaveReasonApplicationQuit
		}
		if boundary < 0 {
			continue
		}
		ts, ok := lineTimestamp(string(lines[boundary]))
		if !ok {
			continue
		}
		leaves = append(leaves, event.WorldLeave{LeftAt: ts, Reason: reason})
	}
	return leaves
}
