// Package aggregate scans an ordered sequence of log lines once and
// collects typed events and parse diagnostics.
package aggregate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/graaaaa/vrc-albums/internal/event"
	"github.com/graaaaa/vrc-albums/internal/parser"
)

// Diagnostics receives parse failures for out-of-band reporting.
// Implementations must not block for long; the scan continues regardless
// of what the sink does.
type Diagnostics interface {
	ReportParseFailure(ctx context.Context, f event.ParseFailure)
}

// Result holds the outcome of a single scan.
type Result struct {
	// Events in line-encounter order, inferred world leaves appended last.
	// Not sorted by timestamp; callers sort if they need chronology.
	Events []*event.Event

	// Failures collected during the scan. A failure never aborts the scan.
	Failures []event.ParseFailure
}

// Aggregator runs the per-line parsers over a line sequence.
type Aggregator struct {
	logger *slog.Logger
	diag   Diagnostics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithDiagnostics sets the parse-failure sink.
func WithDiagnostics(d Diagnostics) Option {
	return func(a *Aggregator) { a.diag = d }
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Substring pre-filters deciding which detector a line is relevant to.
// A line that passes a pre-filter but fails its parser is a diagnostic;
// a line that passes no pre-filter is simply not an event.
const (
	markerWorldJoin      = "[Behaviour] Joining wrld_"
	markerPlayerJoin     = "OnPlayerJoined"
	markerPlayerLeft     = "OnPlayerLeft"
	markerPlayerLeftRoom = "OnPlayerLeftRoom"
)

// Scan makes a single left-to-right pass over lines.
// Each line is independently checked for world joins, explicit world
// leaves, player joins and player leaves. After the pass, world-leave
// events are inferred for every recorded join and appended.
func (a *Aggregator) Scan(ctx context.Context, lines []event.LogLine) Result {
	var (
		res         Result
		joinIndices []int
	)

	for i, line := range lines {
		s := string(line)

		if strings.Contains(s, markerWorldJoin) {
			if w, perr := parser.ParseWorldJoin(lines, i); perr != nil {
				a.fail(ctx, &res, event.FailureWorldJoin, perr)
			} else if w != nil {
				joinIndices = append(joinIndices, i)
				res.Events = append(res.Events, event.FromWorldJoin(*w, s))
			}
		}

		if w := parser.ParseWorldLeave(line); w != nil {
			res.Events = append(res.Events, event.FromWorldLeave(*w))
		}

		if strings.Contains(s, markerPlayerJoin) {
			if p, perr := parser.ParsePlayerJoin(line); perr != nil {
				a.fail(ctx, &res, event.FailurePlayerJoin, perr)
			} else {
				res.Events = append(res.Events, event.FromPlayerJoin(*p, s))
			}
		}

		// OnPlayerLeftRoom is a distinct, unrelated log phrase.
		if strings.Contains(s, markerPlayerLeft) && !strings.Contains(s, markerPlayerLeftRoom) {
			if p, perr := parser.ParsePlayerLeave(line); perr != nil {
				a.fail(ctx, &res, event.FailurePlayerLeave, perr)
			} else {
				res.Events = append(res.Events, event.FromPlayerLeave(*p, s))
			}
		}
	}

	for _, leave := range parser.InferWorldLeaveEvents(lines, joinIndices) {
		res.Events = append(res.Events, event.FromWorldLeave(leave))
	}

	a.logger.Debug("scan complete",
		"lines", len(lines),
		"events", len(res.Events),
		"failures", len(res.Failures),
	)

	return res
}

// fail records a parse failure and reports it to the diagnostics sink.
func (a *Aggregator) fail(ctx context.Context, res *Result, kind event.FailureKind, perr *parser.ParseError) {
	f := event.ParseFailure{
		Line:    perr.Line,
		Message: perr.Message(),
		Kind:    kind,
	}
	res.Failures = append(res.Failures, f)

	if a.diag != nil {
		a.diag.ReportParseFailure(ctx, f)
	}
}
