// Package parser turns single VRChat log lines (plus limited lookahead)
// into typed events or typed, recoverable parse errors.
package parser

import (
	"regexp"
	"time"
)

// logDateTimeLayout is the date/time prefix VRChat writes on every line.
const logDateTimeLayout = "2006.01.02 15:04:05"

// datePrefixRe extracts the date/time prefix from a log line.
var datePrefixRe = regexp.MustCompile(`^(\d{4}\.\d{2}\.\d{2}) (\d{2}:\d{2}:\d{2})`)

// ParseLogDateTime parses the "yyyy.MM.dd" date and "HH:mm:ss" time pair
// from a log line. VRChat logs in the machine's local time zone, so the
// result is interpreted as local time, not UTC.
func ParseLogDateTime(dateStr, timeStr string) (time.Time, error) {
	return time.ParseInLocation(logDateTimeLayout, dateStr+" "+timeStr, time.Local)
}

// lineTimestamp parses the date/time prefix of a raw line.
// Returns false if the line has no parseable prefix.
func lineTimestamp(line string) (time.Time, bool) {
	m := datePrefixRe.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := ParseLogDateTime(m[1], m[2])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
