package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-fit/internal/config"
	"github.com/jonathan/portfolio-fit/internal/db"
	"github.com/jonathan/portfolio-fit/internal/guardrail"
	"github.com/jonathan/portfolio-fit/internal/history"
	"github.com/jonathan/portfolio-fit/internal/ids"
	"github.com/jonathan/portfolio-fit/internal/llm"
	"github.com/jonathan/portfolio-fit/internal/logging"
	"github.com/jonathan/portfolio-fit/internal/pipeline"
	"github.com/jonathan/portfolio-fit/internal/prompts"
	"github.com/jonathan/portfolio-fit/internal/storage"
)

// app holds the collaborators shared by every command
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	history *history.Store
	closers []func()
}

// newApp loads configuration, builds the logger and opens the history medium.
// CLI commands pass persistent=true so a session backend falls back to SQLite;
// an in-process cache would not outlive the command.
func newApp(ctx context.Context, persistent bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		JSON:     cfg.LogJSON,
		FilePath: cfg.LogFile,
	})

	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	backend := cfg.Storage
	if persistent && backend == config.StorageSession {
		backend = config.StorageSQLite
	}
	medium, err := a.openMedium(ctx, backend)
	if err != nil {
		a.close()
		return nil, err
	}

	a.history = history.NewStore(medium,
		history.WithMaxEntries(cfg.HistoryMax),
		history.WithLogger(logger))
	return a, nil
}

// openMedium connects the history medium for backend
func (a *app) openMedium(ctx context.Context, backend string) (history.Medium, error) {
	switch backend {
	case config.StorageRedis:
		r, err := storage.OpenRedis(ctx, a.cfg.RedisURL, storage.DefaultSessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = r.Close() })
		return r, nil
	case config.StorageSQLite:
		s, err := storage.OpenSQLite(a.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite history: %w", err)
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	case config.StoragePostgres:
		database, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		return database, nil
	default:
		return storage.NewSession(storage.DefaultSessionTTL, storage.DefaultCleanupInterval), nil
	}
}

// runner builds the analysis pipeline
func (a *app) runner() (*pipeline.Runner, error) {
	if err := prompts.CheckAnalysis(); err != nil {
		return nil, err
	}

	profile := ""
	if a.cfg.ProfilePath != "" {
		data, err := os.ReadFile(a.cfg.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read profile %s: %w", a.cfg.ProfilePath, err)
		}
		profile = string(data)
	}

	return &pipeline.Runner{
		Client: llm.NewClient(llm.ClientOptions{
			APIKey:  a.cfg.APIKey,
			BaseURL: a.cfg.BaseURL,
			Logger:  a.logger,
		}),
		Store:     a.history,
		Guardrail: guardrail.New(a.logger),
		Config:    a.cfg.LLMConfig(),
		Profile:   profile,
		NewID:     ids.NewULID(),
		Logger:    a.logger,
	}, nil
}

// close releases everything opened by newApp, newest first
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
