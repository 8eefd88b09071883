package transfer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/graaaaa/vrc-albums/internal/event"
)

const (
	exportFolderLayout = "2006-01-02_15-04-05"
	exportLineLayout   = "2006.01.02 15:04:05"
)

// ExportResult reports a completed export. RangeStart and RangeEnd echo
// the requested event range (end exclusive).
type ExportResult struct {
	Folder        string
	ExportedFiles []string
	TotalLogLines int64
	RangeStart    time.Time
	RangeEnd      time.Time
}

// Export regenerates log store files from persisted events.
//
// Events with timestamps in [start, until) are rendered back into log
// line form and written as one logStore-{yyyy-MM}.txt per covered month
// under a timestamped vrchat-albums-export_* folder in outDir. Months
// without events produce no file.
func (s *Service) Export(ctx context.Context, start, until time.Time, outDir string) (*ExportResult, error) {
	events, err := s.store.EventsInRange(ctx, start, until, "")
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	folder := filepath.Join(outDir, "vrchat-albums-export_"+s.clock.Now().Format(exportFolderLayout))
	result := &ExportResult{Folder: folder, RangeStart: start, RangeEnd: until}

	byMonth := map[string][]string{}
	for i := range events {
		lines := formatEventLines(&events[i])
		if len(lines) == 0 {
			continue
		}
		month := events[i].Ts.Local().Format("2006-01")
		byMonth[month] = append(byMonth[month], lines...)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	if len(months) > 0 {
		if err := os.MkdirAll(folder, 0o700); err != nil {
			return nil, fmt.Errorf("create export folder: %w", err)
		}
	}

	for _, month := range months {
		lines := byMonth[month]
		path := filepath.Join(folder, "logStore-"+month+".txt")
		data := strings.Join(lines, "\n") + "\n"
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		result.ExportedFiles = append(result.ExportedFiles, path)
		result.TotalLogLines += int64(len(lines))

		s.logger.Info("exported month", "month", month, "lines", len(lines), "file", path)
	}

	return result, nil
}

// formatEventLines renders an event back into parseable log line form.
//
// World joins need two lines because the world name travels on its own
// Joining or Creating Room line. Leaves with reason userAction have no
// explicit line form in the source logs; they are omitted here and
// re-derived from join boundaries when the export is read back.
func formatEventLines(e *event.Event) []string {
	prefix := e.Ts.Local().Format(exportLineLayout) + " Log        -  "

	switch e.Type {
	case event.TypeWorldJoin:
		if e.WorldID == nil {
			return nil
		}
		instance := ""
		if e.InstanceID != nil {
			instance = *e.InstanceID
		}
		lines := []string{prefix + "[Behaviour] Joining " + *e.WorldID + ":" + instance}
		if e.WorldName != nil {
			lines = append(lines, prefix+"[Behaviour] Joining or Creating Room: "+*e.WorldName)
		}
		return lines

	case event.TypePlayerJoin:
		if e.PlayerName == nil {
			return nil
		}
		line := prefix + "[Behaviour] OnPlayerJoined " + *e.PlayerName
		if e.PlayerID != nil {
			line += " (" + *e.PlayerID + ")"
		}
		return []string{line}

	case event.TypePlayerLeft:
		if e.PlayerName == nil {
			return nil
		}
		line := prefix + "[Behaviour] OnPlayerLeft " + *e.PlayerName
		if e.PlayerID != nil {
			line += " (" + *e.PlayerID + ")"
		}
		return []string{line}

	case event.TypeWorldLeave:
		if e.Reason == nil {
			return nil
		}
		switch event.LeaveReason(*e.Reason) {
		case event.LeaveReasonApplicationQuit:
			return []string{prefix + "VRCApplication: HandleApplicationQuit"}
		case event.LeaveReasonDisconnect:
			return []string{prefix + "Lost connection"}
		default:
			return nil
		}
	}

	return nil
}
