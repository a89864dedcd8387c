package postgres

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"lingua/internal/core/kv"
)

var itemColumns = []string{"pk", "sk", "data", "created_at", "updated_at"}

// Builder returns squirrel builder with PostgreSQL placeholder format.
func Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func quoteTable(table string) (string, error) {
	if err := kv.ValidateTable(table); err != nil {
		return "", err
	}
	return pgx.Identifier{table}.Sanitize(), nil
}

func createTableSQL(table string) (string, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", err
	}
	// COLLATE "C" keeps sort key order bytewise regardless of database locale.
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	pk         text COLLATE "C" NOT NULL,
	sk         text COLLATE "C" NOT NULL,
	data       jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (pk, sk)
)`, tbl), nil
}

func sortKeyPredicate(c kv.Cond) (sq.Sqlizer, error) {
	switch c.Op {
	case kv.OpEq:
		return sq.Eq{"sk": c.Value}, nil
	case kv.OpGt:
		return sq.Gt{"sk": c.Value}, nil
	case kv.OpLt:
		return sq.Lt{"sk": c.Value}, nil
	default:
		return nil, fmt.Errorf("unsupported sort key operator %s", c.Op)
	}
}

func buildRead(table string, q kv.Query, opts kv.ReadOptions) (string, []any, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", nil, err
	}
	pred, err := sortKeyPredicate(q.SK)
	if err != nil {
		return "", nil, err
	}

	order := "sk ASC"
	if opts.Reverse {
		order = "sk DESC"
	}

	sb := Builder().
		Select(itemColumns...).
		From(tbl).
		Where(sq.Eq{"pk": q.PK}).
		Where(pred).
		OrderBy(order)
	if opts.Limit > 0 {
		sb = sb.Limit(uint64(opts.Limit))
	}
	return sb.ToSql()
}

func buildInsert(table string, key kv.Key, data []byte, now time.Time) (string, []any, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", nil, err
	}
	return Builder().
		Insert(tbl).
		Columns(itemColumns...).
		Values(key.PK, key.SK, string(data), now, now).
		ToSql()
}

// buildUpdate merges patch into the stored document. A non-empty expect adds a
// containment check, turning the statement into a compare-and-swap.
func buildUpdate(table string, key kv.Key, expect, patch kv.Patch, now time.Time, returning bool) (string, []any, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", nil, err
	}
	patchJSON, err := kv.Marshal(patch)
	if err != nil {
		return "", nil, err
	}

	ub := Builder().
		Update(tbl).
		Set("data", sq.Expr("data || ?::jsonb", string(patchJSON))).
		Set("updated_at", now).
		Where(sq.Eq{"pk": key.PK, "sk": key.SK})

	if len(expect) > 0 {
		expectJSON, err := kv.Marshal(expect)
		if err != nil {
			return "", nil, err
		}
		ub = ub.Where(sq.Expr("data @> ?::jsonb", string(expectJSON)))
	}
	if returning {
		ub = ub.Suffix("RETURNING " + strings.Join(itemColumns, ", "))
	}
	return ub.ToSql()
}

func buildDelete(table string, key kv.Key) (string, []any, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", nil, err
	}
	return Builder().
		Delete(tbl).
		Where(sq.Eq{"pk": key.PK, "sk": key.SK}).
		ToSql()
}

func buildMutation(table string, m kv.Mutation, now time.Time) (string, []any, error) {
	switch m.Kind {
	case kv.MutationCreate:
		data, err := kv.Marshal(m.Data)
		if err != nil {
			return "", nil, err
		}
		return buildInsert(table, m.Key, data, now)
	case kv.MutationUpdate:
		return buildUpdate(table, m.Key, nil, m.Patch, now, false)
	case kv.MutationUpdateIf:
		return buildUpdate(table, m.Key, m.Expect, m.Patch, now, false)
	default:
		return "", nil, fmt.Errorf("unsupported mutation %s", m.Kind)
	}
}
