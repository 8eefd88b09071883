package parser

import (
	"regexp"
	"strings"

	"github.com/graaaaa/vrc-albums/internal/event"
)

var (
	playerJoinRe = regexp.MustCompile(`^(\d{4}\.\d{2}\.\d{2}) (\d{2}:\d{2}:\d{2}).*\[Behaviour\] OnPlayerJoined (.*?)(?: \((usr_[^)]*)\))?$`)

	// The leave pattern tolerates an optional log-level token before the
	// dash; some client versions emit one, some do not.
	playerLeaveRe = regexp.MustCompile(`^(\d{4}\.\d{2}\.\d{2}) (\d{2}:\d{2}:\d{2}) (?:Log|Debug|Warning|Error)?\s*-\s+\[Behaviour\] OnPlayerLeft (.*?)(?: \((usr_[^)]*)\))?$`)

	// playerIDRe is the strict player id validator: "usr_" followed by a
	// 36-character UUID.
	playerIDRe = regexp.MustCompile(`^usr_[0-9a-f-]{36}$`)
)

// ValidPlayerID reports whether s is a well-formed player id.
func ValidPlayerID(s string) bool {
	return playerIDRe.MatchString(s)
}

// ParsePlayerJoin parses an "OnPlayerJoined" line.
//
// The player name and id are validated independently: an empty or
// whitespace-only name and a present-but-malformed id are both typed
// errors. A missing id parenthetical is valid and yields a nil PlayerID.
func ParsePlayerJoin(line event.LogLine) (*event.PlayerJoin, *ParseError) {
	s := string(line)
	m := playerJoinRe.FindStringSubmatch(s)
	if m == nil {
		return nil, formatMismatch(s)
	}

	joinedAt, err := ParseLogDateTime(m[1], m[2])
	if err != nil {
		return nil, &ParseError{Kind: KindDateParse, Line: s, Err: err}
	}

	name, id, perr := validatePlayer(s, m[3], m[4])
	if perr != nil {
		return nil, perr
	}

	return &event.PlayerJoin{JoinedAt: joinedAt, PlayerName: name, PlayerID: id}, nil
}

// ParsePlayerLeave parses an "OnPlayerLeft" line. Callers must exclude
// "OnPlayerLeftRoom" lines, which are an unrelated log phrase.
func ParsePlayerLeave(line event.LogLine) (*event.PlayerLeave, *ParseError) {
	s := string(line)
	m := playerLeaveRe.FindStringSubmatch(s)
	if m == nil {
		return nil, formatMismatch(s)
	}

	leftAt, err := ParseLogDateTime(m[1], m[2])
	if err != nil {
		return nil, &ParseError{Kind: KindDateParse, Line: s, Err: err}
	}

	name, id, perr := validatePlayer(s, m[3], m[4])
	if perr != nil {
		return nil, perr
	}

	return &event.PlayerLeave{LeftAt: leftAt, PlayerName: name, PlayerID: id}, nil
}

// validatePlayer checks the captured name and optional id.
func validatePlayer(line, name, rawID string) (string, *string, *ParseError) {
	if strings.TrimSpace(name) == "" {
		return "", nil, &ParseError{Kind: KindInvalidPlayerName, Line: line}
	}
	if rawID == "" {
		return name, nil, nil
	}
	if !ValidPlayerID(rawID) {
		return "", nil, &ParseError{Kind: KindInvalidPlayerID, Line: line}
	}
	return name, event.StringPtr(rawID), nil
}
