package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lingua/internal/core/kv"
)

// KVStore implements kv.Store on PostgreSQL tables of (pk, sk, data jsonb).
// Statements run on the transaction in ctx when there is one.
type KVStore struct {
	txm *TxManager
	now func() time.Time
}

// NewKVStore creates a store bound to the given transaction manager.
func NewKVStore(txm *TxManager) *KVStore {
	return &KVStore{txm: txm, now: time.Now}
}

type itemRow struct {
	PK        string    `db:"pk"`
	SK        string    `db:"sk"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r itemRow) item() kv.Item {
	return kv.Item{
		Key:       kv.Key{PK: r.PK, SK: r.SK},
		Data:      r.Data,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// EnsureTable creates the item table if it does not exist.
func (s *KVStore) EnsureTable(ctx context.Context, table string) error {
	ddl, err := createTableSQL(table)
	if err != nil {
		return err
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.txm.Ping(ctx)
}

func (s *KVStore) Read(ctx context.Context, table string, q kv.Query, opts kv.ReadOptions) ([]kv.Item, error) {
	query, args, err := buildRead(table, q, opts)
	if err != nil {
		return nil, fmt.Errorf("build read: %w", err)
	}

	var rows []itemRow
	if err := pgxscan.Select(ctx, s.txm.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	items := make([]kv.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	return items, nil
}

func (s *KVStore) Create(ctx context.Context, table string, key kv.Key, data any) (kv.Item, error) {
	raw, err := kv.Marshal(data)
	if err != nil {
		return kv.Item{}, err
	}
	now := s.now().UTC()

	query, args, err := buildInsert(table, key, raw, now)
	if err != nil {
		return kv.Item{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return kv.Item{}, kv.DuplicateKey(key).WithCause(err)
		}
		return kv.Item{}, fmt.Errorf("insert %s: %w", table, err)
	}
	return kv.Item{Key: key, Data: raw, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *KVStore) Update(ctx context.Context, table string, key kv.Key, patch kv.Patch) (kv.Item, error) {
	query, args, err := buildUpdate(table, key, nil, patch, s.now().UTC(), true)
	if err != nil {
		return kv.Item{}, fmt.Errorf("build update: %w", err)
	}

	var row itemRow
	if err := pgxscan.Get(ctx, s.txm.GetQuerier(ctx), &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return kv.Item{}, kv.MissingKey(key)
		}
		return kv.Item{}, fmt.Errorf("update %s: %w", table, err)
	}
	return row.item(), nil
}

func (s *KVStore) Delete(ctx context.Context, table string, key kv.Key) error {
	query, args, err := buildDelete(table, key)
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

func (s *KVStore) Batch(table string) kv.Batch {
	return &kvBatch{store: s, table: table}
}

// kvBatch sends all queued mutations in one pgx.Batch inside a transaction.
type kvBatch struct {
	kv.Queue
	store *KVStore
	table string
}

func (b *kvBatch) Execute(ctx context.Context) error {
	if b.Len() == 0 {
		return nil
	}
	mutations := b.Mutations()
	now := b.store.now().UTC()

	batch := &pgx.Batch{}
	for _, m := range mutations {
		query, args, err := buildMutation(b.table, m, now)
		if err != nil {
			return fmt.Errorf("build %s: %w", m.Kind, err)
		}
		batch.Queue(query, args...)
	}

	return b.store.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		results := b.store.txm.GetTx(ctx).SendBatch(ctx, batch)
		defer results.Close()

		for _, m := range mutations {
			tag, err := results.Exec()
			if err != nil {
				if m.Kind == kv.MutationCreate && isUniqueViolation(err) {
					return kv.DuplicateKey(m.Key).WithCause(err)
				}
				return fmt.Errorf("batch %s %s: %w", m.Kind, m.Key, err)
			}
			if tag.RowsAffected() > 0 {
				continue
			}
			switch m.Kind {
			case kv.MutationUpdate:
				return kv.MissingKey(m.Key)
			case kv.MutationUpdateIf:
				return kv.ExpectationFailed(m.Key)
			}
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ kv.Store = (*KVStore)(nil)
