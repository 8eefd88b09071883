// Package main provides the entry point for the VRC Albums CLI.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/graaaaa/vrc-albums/internal/singleinstance"
	"github.com/graaaaa/vrc-albums/internal/version"
)

func main() {
	// Single instance check (Windows: mutex, other: no-op). The log store
	// assumes a single writer.
	release, ok, err := singleinstance.AcquireLock()
	if err != nil {
		log.Fatalf("Failed to acquire lock: %v", err)
	}
	if !ok {
		log.Println("Another instance is already running")
		os.Exit(1)
	}
	defer release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "vrcalbums",
		Short: "VRC Albums - VRChat log archive and photo session tool",
		Long: `VRC Albums maintains a permanent, month-partitioned archive of VRChat
log lines, extracts world and player events from them, and groups photos
into the world visit they were taken in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newImportCommand(),
		newExportCommand(),
		newEventsCommand(),
		newRollbackCommand(),
		newBackupsCommand(),
		newPhotosCommand(),
		newSessionsCommand(),
		newStatsCommand(),
		newMaintenanceCommand(),
		newUsersCommand(),
		versionCmd(),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "vrcalbums %s\n", version.Version)
		},
	}
}
