package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/graaaaa/vrc-albums/internal/config"
	"github.com/graaaaa/vrc-albums/internal/lookup"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show archive statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			stats, err := a.db.GetStats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("World joins:    %s\n", humanize.Comma(stats.WorldJoins))
			fmt.Printf("World leaves:   %s\n", humanize.Comma(stats.WorldLeaves))
			fmt.Printf("Player joins:   %s\n", humanize.Comma(stats.PlayerJoins))
			fmt.Printf("Player leaves:  %s\n", humanize.Comma(stats.PlayerLeaves))
			fmt.Printf("Photo joins:    %s\n", humanize.Comma(stats.PhotoJoins))
			fmt.Printf("Parse failures: %s\n", humanize.Comma(stats.ParseFailures))
			if stats.LastEventAt != nil {
				fmt.Printf("Last event:     %s\n", *stats.LastEventAt)
			}
			return nil
		},
	}
}

func newMaintenanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Run periodic database maintenance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			ran, err := a.db.VacuumIfNeeded(cmd.Context())
			if err != nil {
				return err
			}
			if ran {
				fmt.Println("VACUUM performed")
			} else {
				fmt.Println("VACUUM skipped (ran recently)")
			}
			return nil
		},
	}
}

func newUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User-related operations",
	}
	cmd.AddCommand(newUsersSearchCommand())
	return cmd
}

func newUsersSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search VRChat users by display name",
		Long: `Search the VRChat user search endpoint. Requires the auth cookie in
secrets.json. Requests go through a rate-limited queue so repeated
searches never exceed one request per second.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg = config.ApplyEnvOverrides(cfg)

			secrets, _, err := config.LoadSecrets()
			if err != nil {
				return fmt.Errorf("load secrets: %w", err)
			}

			client := lookup.NewClient(secrets.VRChatAuthCookie,
				lookup.WithBaseURL(cfg.LookupBaseURL),
				lookup.WithHTTPClient(&http.Client{
					Timeout: time.Duration(cfg.LookupTimeoutSec) * time.Second,
				}),
			)

			queue := lookup.NewQueue(client,
				lookup.WithRequestTimeout(time.Duration(cfg.LookupTimeoutSec)*time.Second),
			)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go queue.Run(ctx)

			users, err := queue.Search(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Println("No users found")
				return nil
			}

			for _, u := range users {
				line := fmt.Sprintf("%s  %s", u.ID, u.DisplayName)
				if u.IsFriend {
					line += "  (friend)"
				}
				if u.StatusDescription != "" {
					line += "  " + u.StatusDescription
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results")
	return cmd
}
