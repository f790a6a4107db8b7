package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/johnwards/classroom-seed/internal/config"
	"github.com/johnwards/classroom-seed/internal/database"
	"github.com/johnwards/classroom-seed/internal/seed"
	"github.com/johnwards/classroom-seed/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	db, err := database.OpenURL(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}()

	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	sd, err := seed.New(store.New(db), logger, seed.DefaultFixture(), seed.Options{
		ParallelEnroll: cfg.Parallel,
	})
	if err != nil {
		return fmt.Errorf("prepare seeder: %w", err)
	}

	logger.Info("seeding database", "dialect", db.Dialect, "scope", cfg.Scope)

	var rep *seed.Report
	switch cfg.Scope {
	case config.ScopeUsers:
		rep, err = sd.RunUsers(ctx)
	default:
		rep, err = sd.Run(ctx)
	}
	if err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("LOG_FORMAT: unknown format %q", format)
	}
}
