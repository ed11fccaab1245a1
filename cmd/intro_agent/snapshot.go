package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/observability"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show a page of the last persisted analysis",
	RunE:  runSnapshot,
}

var (
	snapshotUserID   string
	snapshotPage     int
	snapshotPageSize int
	snapshotJSON     bool
)

func init() {
	snapshotCmd.Flags().StringVar(&snapshotUserID, "user-id", "", "User ID (required)")
	snapshotCmd.Flags().IntVar(&snapshotPage, "page", 1, "Page number (1-based)")
	snapshotCmd.Flags().IntVar(&snapshotPageSize, "page-size", 0, "Page size (0 uses the configured default)")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(_ *cobra.Command, _ []string) error {
	userID, err := parseUserIDFlag(snapshotUserID)
	if err != nil {
		return err
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	ctx := context.Background()
	database, err := rt.connectDB(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	page, err := engine.New(database, nil, rt.cfg.Snapshot, rt.log).GetSnapshotPage(ctx, userID, snapshotPage, snapshotPageSize)
	if err != nil {
		return err
	}

	if snapshotJSON {
		return writeJSON(os.Stdout, page)
	}
	observability.NewPrinter(os.Stdout).PrintSnapshotPage(page)
	return nil
}
