package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/warm-intros/internal/cache"
	"github.com/jonathan/warm-intros/internal/classifier"
	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/db"
	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/llm"
	"github.com/jonathan/warm-intros/internal/logger"
	"github.com/jonathan/warm-intros/internal/schemas"
	"github.com/jonathan/warm-intros/internal/types"
)

// app holds what every command needs
type app struct {
	cfg *config.Config
	log *logger.Logger
}

func loadRuntime() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (rt *app) connectDB(ctx context.Context) (*db.DB, error) {
	if rt.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable (or database_url in config) is required")
	}
	return db.Connect(ctx, rt.cfg.DatabaseURL)
}

// buildClassifier returns nil when offline. The returned cleanup closes the LLM client and cache.
func (rt *app) buildClassifier(ctx context.Context, offline bool) (engine.Classifier, func(), error) {
	noop := func() {}
	if offline {
		return nil, noop, nil
	}
	if rt.cfg.LLM.APIKey == "" {
		return nil, noop, fmt.Errorf("API key is required (set GEMINI_API_KEY or OPENAI_API_KEY, or use --offline)")
	}

	llmConfig := llm.ConfigFor(llm.Provider(rt.cfg.LLM.Provider), rt.cfg.LLM.BaseURL, rt.cfg.LLM.Model)
	client, err := llm.NewClient(ctx, llmConfig, rt.cfg.LLM.APIKey)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create LLM client: %w", err)
	}

	opts := []classifier.Option{classifier.WithLogger(rt.log)}
	cleanup := func() { _ = client.Close() }

	if rt.cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, rt.cfg.Redis, rt.log)
		if err != nil {
			// The cache only saves LLM calls; run without it.
			rt.log.Warn("classification cache disabled", "addr", rt.cfg.Redis.Addr, "error", err)
		} else {
			opts = append(opts, classifier.WithCache(rc))
			cleanup = func() {
				_ = client.Close()
				_ = rc.Close()
			}
		}
	}

	return classifier.New(client, rt.cfg.Classifier, opts...), cleanup, nil
}

// readNetworkFile loads a network file, checking it against the embedded schema first.
func readNetworkFile(path string) (*types.NetworkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	if err := schemas.Validate(schemas.NetworkFile, data); err != nil {
		return nil, fmt.Errorf("network file %s is invalid: %w", path, err)
	}
	return types.ParseNetworkFile(data)
}

func parseUserIDFlag(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--user-id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user-id: %w", err)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// writeJSONFile writes v to path, or to stdout when path is "-".
func writeJSONFile(path string, v any) error {
	if path == "-" {
		return writeJSON(os.Stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return writeJSON(f, v)
}

func parseDurationFlag(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid --%s: must be non-negative", name)
	}
	return d, nil
}
