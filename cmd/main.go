package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/watchwave/internal/repositories"
	"github.com/desertthunder/watchwave/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	config.ApplyEnv(os.Getenv)

	if level, err := shared.ParseLogLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(logger, level)
	} else {
		logger.Warn("invalid log level, using info", "error", err)
	}

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}

	if db, err := shared.OpenDatabase(config.Database); err == nil {
		defer db.Close()
		opts.Storage = repositories.NewSQLiteStore(db)
		opts.Cache = repositories.NewCatalogCache(db)
	} else {
		logger.Warn("database unavailable, changes will not persist", "path", config.Database.Path, "error", err)
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "watchwave",
		Usage:    "Track movies and series you want to watch and have watched",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		stop()
		logger.Fatalf("application error: %v", err)
	}
}
