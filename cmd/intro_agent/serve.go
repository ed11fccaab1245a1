package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/server"
	"github.com/jonathan/warm-intros/internal/server/ratelimit"
)

var (
	servePort            int
	serveOffline         bool
	serveAnalysisTimeout string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing analysis, snapshot and opportunity endpoints backed by PostgreSQL.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "Disable LLM classification")
	serveCmd.Flags().StringVar(&serveAnalysisTimeout, "analysis-timeout", "5m", "Upper bound for one analysis request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.log.Sync()

	timeout, err := parseDurationFlag("analysis-timeout", serveAnalysisTimeout)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := rt.connectDB(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	cls, cleanup, err := rt.buildClassifier(ctx, serveOffline)
	if err != nil {
		return err
	}
	defer cleanup()

	port := rt.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	eng := engine.New(database, cls, rt.cfg.Snapshot, rt.log)
	srv := server.New(server.Config{
		Port:            port,
		AnalysisTimeout: timeout,
		RateLimit:       ratelimit.FromSettings(rt.cfg.Server.RateLimit),
	}, eng, database, rt.log)
	return srv.Start()
}
