// Package event provides the shared event model for VRC Albums.
// This package is used by the parser, aggregate, session, transfer and
// store packages.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Event type constants.
const (
	TypeWorldJoin  = "world_join"
	TypeWorldLeave = "world_leave"
	TypePlayerJoin = "player_join"
	TypePlayerLeft = "player_left"
)

// LogLine is a single raw line from a VRChat client log file.
type LogLine string

// String returns the raw line text.
func (l LogLine) String() string { return string(l) }

// LeaveReason classifies why the user left a world.
type LeaveReason string

const (
	LeaveReasonUserAction      LeaveReason = "userAction"
	LeaveReasonApplicationQuit LeaveReason = "applicationQuit"
	LeaveReasonDisconnect      LeaveReason = "disconnect"
	LeaveReasonUnknown         LeaveReason = "unknown"
)

// WorldJoin is a timestamped fact that the user entered a world instance.
type WorldJoin struct {
	JoinedAt   time.Time
	WorldID    string
	InstanceID string
	WorldName  string
}

// WorldLeave is a timestamped fact that the user left a world instance.
// It is either detected from an explicit log phrase or inferred from the
// next world join (or end of file).
type WorldLeave struct {
	LeftAt time.Time
	Reason LeaveReason
}

// PlayerJoin is a timestamped fact that another player entered the instance.
// PlayerID is nil when the log line carried no id parenthetical.
type PlayerJoin struct {
	JoinedAt   time.Time
	PlayerName string
	PlayerID   *string
}

// PlayerLeave is a timestamped fact that another player left the instance.
type PlayerLeave struct {
	LeftAt     time.Time
	PlayerName string
	PlayerID   *string
}

// FailureKind identifies which detector produced a parse failure.
type FailureKind string

const (
	FailureWorldJoin   FailureKind = "world_join"
	FailureWorldLeave  FailureKind = "world_leave"
	FailurePlayerJoin  FailureKind = "player_join"
	FailurePlayerLeave FailureKind = "player_leave"
)

// ParseFailure is a diagnostic record for a line that matched a detector's
// pre-filter but failed to parse. Failures never block aggregation.
type ParseFailure struct {
	Line    string
	Message string
	Kind    FailureKind
}

// Event is the flat, storage-facing representation shared across packages.
// Optional fields are pointers so that absence survives the database round
// trip.
type Event struct {
	ID            int64     `json:"id"`
	Ts            time.Time `json:"ts"`
	Type          string    `json:"type"`
	PlayerName    *string   `json:"player_name,omitempty"`
	PlayerID      *string   `json:"player_id,omitempty"`
	WorldID       *string   `json:"world_id,omitempty"`
	WorldName     *string   `json:"world_name,omitempty"`
	InstanceID    *string   `json:"instance_id,omitempty"`
	Reason        *string   `json:"reason,omitempty"`
	DedupeKey     string    `json:"-"`
	IngestedAt    time.Time `json:"ingested_at"`
	SchemaVersion int       `json:"-"`
}

// StringPtr returns a pointer to the given string.
// Useful for setting optional fields.
func StringPtr(s string) *string {
	return &s
}

// SHA256Hex returns the SHA256 hash of the input string as a hex string.
func SHA256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// FromWorldJoin converts a WorldJoin to a store event.
// The dedupe key is derived from the raw line that produced the event.
func FromWorldJoin(w WorldJoin, rawLine string) *Event {
	return &Event{
		Ts:         w.JoinedAt,
		Type:       TypeWorldJoin,
		WorldID:    StringPtr(w.WorldID),
		WorldName:  StringPtr(w.WorldName),
		InstanceID: StringPtr(w.InstanceID),
		DedupeKey:  SHA256Hex(rawLine),
	}
}

// FromWorldLeave converts a WorldLeave to a store event.
// Inferred leaves have no raw line of their own, so the dedupe key is
// derived from the event identity instead.
func FromWorldLeave(w WorldLeave) *Event {
	key := fmt.Sprintf("%s|%s|%s", TypeWorldLeave, w.LeftAt.UTC().Format(time.RFC3339Nano), w.Reason)
	return &Event{
		Ts:        w.LeftAt,
		Type:      TypeWorldLeave,
		Reason:    StringPtr(string(w.Reason)),
		DedupeKey: SHA256Hex(key),
	}
}

// FromPlayerJoin converts a PlayerJoin to a store event.
func FromPlayerJoin(p PlayerJoin, rawLine string) *Event {
	return &Event{
		Ts:         p.JoinedAt,
		Type:       TypePlayerJoin,
		PlayerName: StringPtr(p.PlayerName),
		PlayerID:   p.PlayerID,
		DedupeKey:  SHA256Hex(rawLine),
	}
}

// FromPlayerLeave converts a PlayerLeave to a store event.
func FromPlayerLeave(p PlayerLeave, rawLine string) *Event {
	return &Event{
		Ts:         p.LeftAt,
		Type:       TypePlayerLeft,
		PlayerName: StringPtr(p.PlayerName),
		PlayerID:   p.PlayerID,
		DedupeKey:  SHA256Hex(rawLine),
	}
}
