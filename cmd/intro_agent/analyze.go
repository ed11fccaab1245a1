package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/memstore"
	"github.com/jonathan/warm-intros/internal/observability"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run relationship analysis for one user",
	Long: `Recompute ICP matches and warm introduction paths for a user and replace the stored snapshot.

With --network the analysis runs against a JSON network file in memory and nothing is written
to the database. Otherwise --user-id selects a user in PostgreSQL.`,
	RunE: runAnalyze,
}

var (
	analyzeUserID  string
	analyzeNetwork string
	analyzeOffline bool
	analyzeOut     string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUserID, "user-id", "", "User ID (required unless --network is used)")
	analyzeCmd.Flags().StringVar(&analyzeNetwork, "network", "", "Path to a network JSON file to analyze in memory")
	analyzeCmd.Flags().BoolVar(&analyzeOffline, "offline", false, "Skip LLM classification; heuristics and alumni inference only")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Write the result as JSON to this path ('-' for stdout)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	if analyzeNetwork == "" && analyzeUserID == "" {
		return fmt.Errorf("must provide either --user-id or --network")
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	ctx := context.Background()
	cls, cleanup, err := rt.buildClassifier(ctx, analyzeOffline)
	if err != nil {
		return err
	}
	defer cleanup()

	var store engine.Store
	var userID uuid.UUID
	if analyzeNetwork != "" {
		nf, err := readNetworkFile(analyzeNetwork)
		if err != nil {
			return err
		}
		userID = uuid.New()
		if analyzeUserID != "" {
			if userID, err = parseUserIDFlag(analyzeUserID); err != nil {
				return err
			}
		}
		mem := memstore.New()
		mem.LoadNetworkFile(userID, nf)
		store = mem
	} else {
		if userID, err = parseUserIDFlag(analyzeUserID); err != nil {
			return err
		}
		database, err := rt.connectDB(ctx)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		store = database
	}

	eng := engine.New(store, cls, rt.cfg.Snapshot, rt.log)
	result, err := eng.RunAnalysis(ctx, userID)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		icp, _ := store.GetICPProfile(ctx, userID)
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintICPProfile(icp)
		printer.PrintAnalysis(result)
	}

	if analyzeOut != "" {
		return writeJSONFile(analyzeOut, result)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Analyzed %d companies: %d matches, %d inferences\n",
		result.TotalAnalyzed, len(result.Matches), len(result.Inferences))
	if !result.Persisted && result.TotalAnalyzed > 0 {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: snapshot was not persisted\n")
	}
	return nil
}
