// Package main is the entry point for the Lingua API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lingua/internal/config"
	"lingua/internal/core/tenant"
	v1 "lingua/internal/infrastructure/http/v1"
	"lingua/internal/infrastructure/storage"
	"lingua/internal/seed"
	"lingua/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

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
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting lingua server",
		"driver", cfg.StoreDriver,
		"table", cfg.Table,
		"key_scheme", cfg.Scheme(),
	)

	// --- Store ---
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer backend.Close()

	// --- Optional seed ---
	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			log.Fatalw("failed to load seed file", "path", cfg.SeedFile, "error", err)
		}
		// The API only serves cfg.Table.
		if err := file.RequireTable(cfg.Table); err != nil {
			log.Fatalw("invalid seed file", "path", cfg.SeedFile, "error", err)
		}
		seedCtx := logger.WithLogger(ctx, log.WithComponent("seed"))
		if _, err := seed.Apply(seedCtx, backend.Store, backend.Tx, cfg.Table, cfg.Scheme(), file); err != nil {
			log.Fatalw("failed to apply seed file", "path", cfg.SeedFile, "error", err)
		}
	}

	// --- Router ---
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	routerCfg := v1.RouterConfig{
		Store:     backend.Store,
		Table:     cfg.Table,
		KeyScheme: cfg.Scheme(),
		Health:    backend,
		Driver:    cfg.StoreDriver,
		Pool:      backend.Pool,
		Logger:    log,
		Version:   version,
	}

	// Tenant registry is optional: without it X-Tenant-ID is trusted.
	if cfg.TenantRegistryEnabled {
		registry := tenant.NewPostgresRegistry(backend.Pool.Pool)
		if err := registry.EnsureSchema(ctx); err != nil {
			log.Fatalw("failed to prepare tenant registry", "error", err)
		}
		routerCfg.Tenants = registry
		log.Info("tenant registry enabled")
	}

	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
