// Package main provides a CLI tool for seeding locale catalogs from a YAML file.
// Usage: seed [path]   (defaults to $SEED_FILE)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lingua/internal/config"
	"lingua/internal/infrastructure/storage"
	"lingua/internal/seed"
	"lingua/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	path := cfg.SeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path == "" {
		log.Fatal("seed file path is required (argument or SEED_FILE)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log.WithComponent("seed"))

	file, err := seed.Load(path)
	if err != nil {
		log.Fatalw("failed to load seed file", "path", path, "error", err)
	}

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer backend.Close()

	table := file.TableOr(cfg.Table)
	if err := backend.EnsureTable(ctx, table); err != nil {
		log.Fatalw("failed to prepare seed table", "table", table, "error", err)
	}

	res, err := seed.Apply(ctx, backend.Store, backend.Tx, cfg.Table, cfg.Scheme(), file)
	if err != nil {
		log.Fatalw("failed to apply seed", "path", path, "error", err)
	}

	log.Infow("seeding completed",
		"path", path,
		"table", table,
		"created", res.Created,
		"existing", res.Existing,
		"defaults_set", res.DefaultsSet,
	)
}
