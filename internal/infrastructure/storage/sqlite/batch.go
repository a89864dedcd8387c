package sqlite

import (
	"context"
	"fmt"

	"lingua/internal/core/kv"
)

// batch applies queued mutations in order inside one transaction.
type batch struct {
	kv.Queue
	store *Store
	table string
}

func (b *batch) Execute(ctx context.Context) error {
	if b.Len() == 0 {
		return nil
	}
	mutations := b.Mutations()
	now := toMillis(b.store.now())

	return b.store.RunInTransaction(ctx, func(ctx context.Context) error {
		q := b.store.querier(ctx)
		for _, m := range mutations {
			query, args, err := buildMutation(b.table, m, now)
			if err != nil {
				return fmt.Errorf("build %s: %w", m.Kind, err)
			}

			res, err := q.ExecContext(ctx, query, args...)
			if err != nil {
				if m.Kind == kv.MutationCreate && isUniqueViolation(err) {
					return kv.DuplicateKey(m.Key).WithCause(err)
				}
				return fmt.Errorf("batch %s %s: %w", m.Kind, m.Key, err)
			}

			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("batch %s %s: %w", m.Kind, m.Key, err)
			}
			if affected > 0 {
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
