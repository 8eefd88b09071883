package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/graaaaa/vrc-albums/internal/event"
	"github.com/graaaaa/vrc-albums/internal/photo"
	"github.com/graaaaa/vrc-albums/internal/session"
)

func newPhotosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Photo-related operations",
	}
	cmd.AddCommand(newPhotosImportCommand(), newPhotosJoinsCommand())
	return cmd
}

func newPhotosJoinsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "joins",
		Short: "List world joins recovered from photo filenames",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			joins, err := a.db.ListPhotoJoins(cmd.Context())
			if err != nil {
				return err
			}
			if len(joins) == 0 {
				fmt.Println("No photo-derived joins recorded")
				return nil
			}

			for _, j := range joins {
				fmt.Printf("%s  %s\n", j.JoinedAt.Local().Format(time.RFC3339), j.WorldID)
			}
			return nil
		},
	}
}

func newPhotosImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]...",
		Short: "Recover world joins from legacy photo filenames",
		Long: `Scans photo directories for legacy-named photos
(VRChat_<timestamp>_wrld_<uuid>.png) and records the world join each one
implies. Without arguments the configured photo directories are scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			dirs := args
			if len(dirs) == 0 {
				dirs = a.cfg.PhotoDirs
			}
			if len(dirs) == 0 {
				return fmt.Errorf("no photo directories given or configured")
			}

			importer := photo.NewImporter(a.db)
			var total photo.Stats
			for _, dir := range dirs {
				stats, err := importer.ImportDir(cmd.Context(), dir)
				if err != nil {
					return err
				}
				total.Scanned += stats.Scanned
				total.Matched += stats.Matched
				total.Inserted += stats.Inserted
			}

			fmt.Printf("Scanned %d file(s), matched %d, recorded %d new join(s)\n",
				total.Scanned, total.Matched, total.Inserted)
			return nil
		},
	}
}

func newSessionsCommand() *cobra.Command {
	var (
		startStr   string
		endStr     string
		showPhotos bool
	)

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Group photos into the world visits they were taken in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseDateFlag("start", startStr)
			if err != nil {
				return err
			}

			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			// Default the end of the range to the newest archived event.
			var until time.Time
			if endStr != "" {
				end, err := parseDateFlag("end", endStr)
				if err != nil {
					return err
				}
				until = end.AddDate(0, 0, 1)
			} else {
				last, err := a.db.GetLastEventTime(cmd.Context())
				if err != nil {
					return err
				}
				if last.IsZero() {
					last = time.Now()
				}
				until = last.Add(time.Second)
			}

			events, err := a.db.EventsInRange(cmd.Context(), start, until, event.TypeWorldJoin)
			if err != nil {
				return err
			}

			joins := make([]event.WorldJoin, 0, len(events))
			for _, e := range events {
				j := event.WorldJoin{JoinedAt: e.Ts.Local()}
				if e.WorldID != nil {
					j.WorldID = *e.WorldID
				}
				if e.WorldName != nil {
					j.WorldName = *e.WorldName
				}
				if e.InstanceID != nil {
					j.InstanceID = *e.InstanceID
				}
				joins = append(joins, j)
			}

			photos, err := collectPhotos(a.cfg.PhotoDirs)
			if err != nil {
				return err
			}

			sessions := session.Group(joins, photos)
			for _, s := range sessions {
				if s.Join == nil {
					fmt.Printf("(unattributed)  %d photo(s)\n", len(s.Photos))
				} else {
					fmt.Printf("%s  %s  %d photo(s)\n",
						s.Join.JoinedAt.Format(time.RFC3339), s.Join.WorldName, len(s.Photos))
				}
				if showPhotos {
					for _, p := range s.Photos {
						fmt.Printf("  %s\n", p.Path)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", "first day to include (yyyy-MM-dd)")
	cmd.Flags().StringVar(&endStr, "end", "", "last day to include (yyyy-MM-dd, default: latest event)")
	cmd.Flags().BoolVar(&showPhotos, "show-photos", false, "list photo paths per session")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

// collectPhotos walks the photo dirs and keeps files whose names carry a
// VRChat timestamp, in either naming convention.
func collectPhotos(dirs []string) ([]session.Photo, error) {
	var photos []session.Photo
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if info, ok := photo.ParseStandardName(path); ok {
				photos = append(photos, session.Photo{Path: path, TakenAt: info.TakenAt})
			} else if info, ok := photo.ParseLegacyName(path); ok {
				photos = append(photos, session.Photo{Path: path, TakenAt: info.TakenAt})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan photo dir %s: %w", dir, err)
		}
	}
	return photos, nil
}
