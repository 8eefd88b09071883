package parser

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable parse failures.
type ErrorKind string

const (
	// KindFormatMismatch means the line looked relevant but did not match
	// the expected pattern.
	KindFormatMismatch ErrorKind = "LOG_FORMAT_MISMATCH"

	// KindInvalidPlayerName means the player name was empty or whitespace.
	KindInvalidPlayerName ErrorKind = "INVALID_PLAYER_NAME"

	// KindInvalidPlayerID means a player id was present but malformed.
	KindInvalidPlayerID ErrorKind = "INVALID_PLAYER_ID"

	// KindDateParse means the date/time prefix could not be parsed.
	KindDateParse ErrorKind = "DATE_PARSE_ERROR"
)

// Sentinel errors for semantically invalid world-join lines. Both are
// reported as KindFormatMismatch parse errors rather than panics, so a
// single bad line never aborts a scan.
var (
	// ErrInvalidWorldID is returned when a structurally matched join line
	// carries a world id that fails strict validation.
	ErrInvalidWorldID = errors.New("invalid world id")

	// ErrRoomNameNotFound is returned when no "Joining or Creating Room"
	// line follows a world join within the lookahead window.
	ErrRoomNameNotFound = errors.New("room name not found after world join")
)

// ParseError is a recoverable, typed parse failure for a single line.
type ParseError struct {
	Kind ErrorKind
	Line string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Message returns a human-readable description for diagnostics.
func (e *ParseError) Message() string {
	switch e.Kind {
	case KindInvalidPlayerName:
		return "Invalid player name"
	case KindInvalidPlayerID:
		return "Invalid player id"
	case KindDateParse:
		return "Failed to parse log date/time"
	case KindFormatMismatch:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Log line did not match expected format"
	default:
		return e.Error()
	}
}

func formatMismatch(line string) *ParseError {
	return &ParseError{Kind: KindFormatMismatch, Line: line}
}
