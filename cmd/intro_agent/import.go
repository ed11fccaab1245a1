package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a network JSON file into PostgreSQL",
	Long:  "Validate a network file against its schema and write its ICP, connections, work history and prospects for one user.",
	RunE:  runImport,
}

var (
	importUserID  string
	importFile    string
	importReplace bool
)

func init() {
	importCmd.Flags().StringVar(&importUserID, "user-id", "", "User ID (required)")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to network JSON file (required)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Delete the user's existing records first")

	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, _ []string) error {
	userID, err := parseUserIDFlag(importUserID)
	if err != nil {
		return err
	}
	if importFile == "" {
		return fmt.Errorf("--file is required")
	}

	nf, err := readNetworkFile(importFile)
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

	if importReplace {
		if err := database.DeleteUserData(ctx, userID); err != nil {
			return err
		}
	}

	stats, err := database.ImportNetworkFile(ctx, userID, nf)
	if err != nil {
		return err
	}

	rt.log.Info("network imported",
		"user_id", userID,
		"connections", stats.Connections,
		"work_history", stats.WorkHistory,
		"prospects", stats.Prospects,
		"icp", stats.ICP)
	_, _ = fmt.Fprintf(os.Stdout, "Imported %d connections, %d work history entries, %d prospects for %s\n",
		stats.Connections, stats.WorkHistory, stats.Prospects, userID)
	return nil
}
