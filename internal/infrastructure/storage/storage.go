// Package storage opens the configured kv.Store backend.
package storage

import (
	"context"
	"fmt"

	"lingua/internal/config"
	"lingua/internal/core/kv"
	"lingua/internal/core/tx"
	"lingua/internal/infrastructure/storage/postgres"
	"lingua/internal/infrastructure/storage/sqlite"
	"lingua/pkg/logger"
)

// Backend is an opened store together with its lifecycle hooks.
type Backend struct {
	Store kv.Store

	// Tx runs work in one transaction of Store.
	Tx tx.Manager

	// Pool is set for the postgres driver only.
	Pool *postgres.Pool

	ensure func(ctx context.Context, table string) error
	ping   func(ctx context.Context) error
	close  func()
}

// EnsureTable creates table if it does not exist.
func (b *Backend) EnsureTable(ctx context.Context, table string) error {
	return b.ensure(ctx, table)
}

// Ping checks the backend connectivity.
func (b *Backend) Ping(ctx context.Context) error {
	return b.ping(ctx)
}

// Close releases the backend resources.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open connects to the backend selected by cfg.StoreDriver and makes sure the
// locale table exists.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (*Backend, error) {
	log = log.WithComponent("storage")
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg config.Config, log *logger.Logger) (*Backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	txm := postgres.NewTxManager(pool)
	store := postgres.NewKVStore(txm)
	if err := store.EnsureTable(ctx, cfg.Table); err != nil {
		pool.Close()
		return nil, err
	}
	log.Infow("postgres store ready", "table", cfg.Table, "max_conns", poolCfg.MaxConns)

	return &Backend{
		Store:  store,
		Tx:     txm,
		Pool:   pool,
		ensure: store.EnsureTable,
		ping:   store.Ping,
		close:  pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.Config, log *logger.Logger) (*Backend, error) {
	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureTable(ctx, cfg.Table); err != nil {
		_ = store.Close()
		return nil, err
	}
	log.Infow("sqlite store ready", "path", cfg.SQLitePath, "table", cfg.Table)

	return &Backend{
		Store:  store,
		Tx:     store,
		ensure: store.EnsureTable,
		ping:   store.Ping,
		close:  func() {
			if err := store.Close(); err != nil {
				log.Warnw("close sqlite store", "error", err)
			}
		},
	}, nil
}
