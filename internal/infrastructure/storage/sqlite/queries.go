package sqlite

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"lingua/internal/core/kv"
)

var itemColumns = []string{"pk", "sk", "data", "created_at", "updated_at"}

func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// quoteTable relies on ValidateTable: names are limited to [a-z0-9_].
func quoteTable(table string) (string, error) {
	if err := kv.ValidateTable(table); err != nil {
		return "", err
	}
	return `"` + table + `"`, nil
}

func createTableSQL(table string) (string, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	pk         TEXT NOT NULL,
	sk         TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (pk, sk)
) WITHOUT ROWID`, tbl), nil
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

	sb := builder().
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

func buildInsert(table string, key kv.Key, data []byte, nowMillis int64) (string, []any, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", nil, err
	}
	return builder().
		Insert(tbl).
		Columns(itemColumns...).
		Values(key.PK, key.SK, string(data), nowMillis, nowMillis).
		ToSql()
}

// buildUpdate merges patch into the stored document with json_patch. Each
// expect field adds an equality check on the stored value.
func buildUpdate(table string, key kv.Key, expect, patch kv.Patch, nowMillis int64, returning bool) (string, []any, error) {
	tbl, err := quoteTable(table)
	if err != nil {
		return "", nil, err
	}
	patchJSON, err := kv.Marshal(patch)
	if err != nil {
		return "", nil, err
	}

	ub := builder().
		Update(tbl).
		Set("data", sq.Expr("json_patch(data, ?)", string(patchJSON))).
		Set("updated_at", nowMillis).
		Where(sq.Eq{"pk": key.PK, "sk": key.SK})

	fields := make([]string, 0, len(expect))
	for field := range expect {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		value, err := json.Marshal(expect[field])
		if err != nil {
			return "", nil, fmt.Errorf("marshal expected %s: %w", field, err)
		}
		ub = ub.Where(sq.Expr("json_extract(data, ?) = json_extract(?, '$')", "$."+field, string(value)))
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
	return builder().
		Delete(tbl).
		Where(sq.Eq{"pk": key.PK, "sk": key.SK}).
		ToSql()
}

func buildMutation(table string, m kv.Mutation, nowMillis int64) (string, []any, error) {
	switch m.Kind {
	case kv.MutationCreate:
		data, err := kv.Marshal(m.Data)
		if err != nil {
			return "", nil, err
		}
		return buildInsert(table, m.Key, data, nowMillis)
	case kv.MutationUpdate:
		return buildUpdate(table, m.Key, nil, m.Patch, nowMillis, false)
	case kv.MutationUpdateIf:
		return buildUpdate(table, m.Key, m.Expect, m.Patch, nowMillis, false)
	default:
		return "", nil, fmt.Errorf("unsupported mutation %s", m.Kind)
	}
}
