// Package sqlite provides a SQLite-backed kv.Store for single-node
// deployments, local development and integration tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"lingua/internal/core/kv"
	"lingua/internal/core/tx"
)

var tracer = otel.Tracer("lingua/sqlite")

// Store persists kv items in SQLite tables of (pk, sk, data json).
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: transactions are carried in ctx and must not interleave.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureTable creates the item table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context, table string) error {
	ddl, err := createTableSQL(table)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) querier(ctx context.Context) querier {
	if t, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return t
	}
	return s.db
}

// RunInTransaction executes fn within a transaction. Nested calls reuse it.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "transaction")
	defer span.End()

	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	err := s.runNew(ctx, fn)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (s *Store) runNew(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, table string, q kv.Query, opts kv.ReadOptions) ([]kv.Item, error) {
	query, args, err := buildRead(table, q, opts)
	if err != nil {
		return nil, fmt.Errorf("build read: %w", err)
	}

	rows, err := s.querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	defer rows.Close()

	var items []kv.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return items, nil
}

func (s *Store) Create(ctx context.Context, table string, key kv.Key, data any) (kv.Item, error) {
	raw, err := kv.Marshal(data)
	if err != nil {
		return kv.Item{}, err
	}
	now := s.now().UTC().Truncate(time.Millisecond)

	query, args, err := buildInsert(table, key, raw, toMillis(now))
	if err != nil {
		return kv.Item{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.querier(ctx).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return kv.Item{}, kv.DuplicateKey(key).WithCause(err)
		}
		return kv.Item{}, fmt.Errorf("insert %s: %w", table, err)
	}
	return kv.Item{Key: key, Data: raw, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Store) Update(ctx context.Context, table string, key kv.Key, patch kv.Patch) (kv.Item, error) {
	query, args, err := buildUpdate(table, key, nil, patch, toMillis(s.now()), true)
	if err != nil {
		return kv.Item{}, fmt.Errorf("build update: %w", err)
	}

	item, err := scanItem(s.querier(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return kv.Item{}, kv.MissingKey(key)
		}
		return kv.Item{}, fmt.Errorf("update %s: %w", table, err)
	}
	return item, nil
}

func (s *Store) Delete(ctx context.Context, table string, key kv.Key) error {
	query, args, err := buildDelete(table, key)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.querier(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func (s *Store) Batch(table string) kv.Batch {
	return &batch{store: s, table: table}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (kv.Item, error) {
	var (
		item             kv.Item
		data             string
		created, updated int64
	)
	if err := row.Scan(&item.PK, &item.SK, &data, &created, &updated); err != nil {
		return kv.Item{}, err
	}
	item.Data = []byte(data)
	item.CreatedAt = fromMillis(created)
	item.UpdatedAt = fromMillis(updated)
	return item, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ kv.Store   = (*Store)(nil)
	_ tx.Manager = (*Store)(nil)
)
