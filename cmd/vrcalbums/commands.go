package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/graaaaa/vrc-albums/internal/event"
	"github.com/graaaaa/vrc-albums/internal/store"
)

const dateLayout = "2006-01-02"

// parseDateFlag parses a yyyy-MM-dd flag value in local time.
func parseDateFlag(name, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want yyyy-MM-dd", name, value)
	}
	return t, nil
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file-or-dir>...",
		Short: "Import log store files into the local archive",
		Long: `Import ingests logStore*.txt files (or directories containing them)
into the local archive. A backup of the current store is taken before
anything is modified; use "vrcalbums rollback" to undo an import.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			res, err := a.transfers.Import(cmd.Context(), args)
			if err != nil {
				return err
			}

			fmt.Printf("Imported %s lines from %d file(s)\n",
				humanize.Comma(res.TotalLines), len(res.ProcessedFiles))
			fmt.Printf("Backup: %s\n", res.Backup.ID)
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var (
		startStr string
		endStr   string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived events as log store files",
		Long: `Export regenerates one logStore-{yyyy-MM}.txt per month from the
archived events in the given date range and writes them into a
timestamped folder under --out.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDateFlag("start", startStr)
			if err != nil {
				return err
			}
			end, err := parseDateFlag("end", endStr)
			if err != nil {
				return err
			}

			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			// --end names the last included day.
			res, err := a.transfers.Export(cmd.Context(), start, end.AddDate(0, 0, 1), outDir)
			if err != nil {
				return err
			}

			if len(res.ExportedFiles) == 0 {
				fmt.Println("No events in range, nothing exported")
				return nil
			}
			fmt.Printf("Exported %s lines into %d file(s) under %s\n",
				humanize.Comma(res.TotalLogLines), len(res.ExportedFiles), res.Folder)
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "first day to export (yyyy-MM-dd)")
	cmd.Flags().StringVar(&endStr, "end", "", "last day to export (yyyy-MM-dd)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <backup-id>",
		Short: "Restore the log store from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			m, err := a.transfers.Rollback(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Restored %d file(s) from backup %s (created %s)\n",
				len(m.SourceFiles), m.ID, m.CreatedAt.Local().Format(time.RFC3339))
			return nil
		},
	}
}

func newBackupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backup history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			history, err := a.backups.History(cmd.Context())
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Println("No backups")
				return nil
			}

			for _, m := range history {
				line := fmt.Sprintf("%s  %s  %s  %d file(s)",
					m.ID, m.CreatedAt.Local().Format(time.RFC3339), m.Status, len(m.SourceFiles))
				if m.ImportStatus != "" {
					line += fmt.Sprintf("  import=%s", m.ImportStatus)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newEventsCommand() *cobra.Command {
	var (
		sinceStr  string
		untilStr  string
		eventType string
		limit     int
		cursor    string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List archived events, oldest first",
		Long: `List archived events as one line each. Output is paginated; when more
events remain, the next page's cursor is printed last and can be passed
back via --cursor.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			var filter store.QueryFilter
			if sinceStr != "" {
				since, err := parseDateFlag("since", sinceStr)
				if err != nil {
					return err
				}
				filter.Since = &since
			}
			if untilStr != "" {
				until, err := parseDateFlag("until", untilStr)
				if err != nil {
					return err
				}
				until = until.AddDate(0, 0, 1)
				filter.Until = &until
			}
			if eventType != "" {
				filter.Type = &eventType
			}
			if cursor != "" {
				filter.Cursor = &cursor
			}
			filter.Limit = limit

			res, err := a.db.QueryEvents(cmd.Context(), filter)
			if err != nil {
				return err
			}

			for _, e := range res.Items {
				fmt.Println(formatEventLine(e))
			}
			if res.NextCursor != nil {
				fmt.Printf("next: --cursor %s\n", *res.NextCursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sinceStr, "since", "", "first day to include (yyyy-MM-dd)")
	cmd.Flags().StringVar(&untilStr, "until", "", "last day to include (yyyy-MM-dd)")
	cmd.Flags().StringVar(&eventType, "type", "", "restrict to one event type")
	cmd.Flags().IntVar(&limit, "limit", 100, "page size")
	cmd.Flags().StringVar(&cursor, "cursor", "", "resume from a previous page")
	return cmd
}

// formatEventLine renders one event for terminal output.
func formatEventLine(e event.Event) string {
	line := fmt.Sprintf("%s  %-12s", e.Ts.Local().Format(time.RFC3339), e.Type)
	switch e.Type {
	case event.TypeWorldJoin:
		if e.WorldName != nil {
			line += "  " + *e.WorldName
		}
		if e.WorldID != nil {
			line += "  (" + *e.WorldID + ")"
		}
	case event.TypeWorldLeave:
		if e.Reason != nil {
			line += "  " + *e.Reason
		}
	case event.TypePlayerJoin, event.TypePlayerLeft:
		if e.PlayerName != nil {
			line += "  " + *e.PlayerName
		}
	}
	return line
}
