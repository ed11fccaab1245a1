package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/observability"
)

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "List warm introductions and outbound prospects in one ranked feed",
	RunE:  runOpportunities,
}

var (
	opportunitiesUserID string
	opportunitiesJSON   bool
)

func init() {
	opportunitiesCmd.Flags().StringVar(&opportunitiesUserID, "user-id", "", "User ID (required)")
	opportunitiesCmd.Flags().BoolVar(&opportunitiesJSON, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(opportunitiesCmd)
}

func runOpportunities(_ *cobra.Command, _ []string) error {
	userID, err := parseUserIDFlag(opportunitiesUserID)
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

	opps, err := engine.New(database, nil, rt.cfg.Snapshot, rt.log).ListOpportunities(ctx, userID)
	if err != nil {
		return err
	}

	if opportunitiesJSON {
		return writeJSON(os.Stdout, opps)
	}
	observability.NewPrinter(os.Stdout).PrintOpportunities(opps)
	return nil
}
