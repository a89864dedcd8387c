// Package kvtest provides an in-memory kv.Store for unit tests.
// Use it where a database would only slow the test down; it follows the
// kv error contract and counts every call so tests can assert on I/O.
package kvtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"lingua/internal/core/kv"
)

// Calls counts store interactions.
type Calls struct {
	Reads   int
	Creates int
	Updates int
	Deletes int
	Batches int
}

// Writes is the number of calls that could have modified data.
func (c Calls) Writes() int {
	return c.Creates + c.Updates + c.Deletes + c.Batches
}

// Total is the number of calls of any kind.
func (c Calls) Total() int {
	return c.Reads + c.Writes()
}

type table map[kv.Key]kv.Item

// Store is an in-memory kv.Store.
type Store struct {
	mu     sync.Mutex
	tables map[string]table
	calls  Calls
	now    func() time.Time

	// FailExecute, when set, is returned by the next non-empty Batch.Execute
	// instead of applying the batch.
	FailExecute error

	// BeforeExecute runs at the start of every non-empty Batch.Execute,
	// outside the store lock. Tests use it to interleave a competing writer.
	BeforeExecute func()
}

// New creates an empty store.
func New() *Store {
	return &Store{
		tables: make(map[string]table),
		now:    time.Now,
	}
}

// Calls returns a snapshot of the call counters.
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// ResetCalls zeroes the call counters.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = Calls{}
}

// Peek returns an item without counting a read.
func (s *Store) Peek(tableName string, key kv.Key) (kv.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.tables[tableName][key]
	return item, ok
}

// Len returns the number of items in a table.
func (s *Store) Len(tableName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[tableName])
}

func (s *Store) table(name string) table {
	t, ok := s.tables[name]
	if !ok {
		t = make(table)
		s.tables[name] = t
	}
	return t
}

func (s *Store) Read(ctx context.Context, tableName string, q kv.Query, opts kv.ReadOptions) ([]kv.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Reads++

	var items []kv.Item
	for key, item := range s.tables[tableName] {
		if key.PK == q.PK && q.SK.Match(key.SK) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if opts.Reverse {
			return items[i].SK > items[j].SK
		}
		return items[i].SK < items[j].SK
	})
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items, nil
}

func (s *Store) Create(ctx context.Context, tableName string, key kv.Key, data any) (kv.Item, error) {
	if err := ctx.Err(); err != nil {
		return kv.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Creates++
	return s.create(s.table(tableName), key, data)
}

func (s *Store) Update(ctx context.Context, tableName string, key kv.Key, patch kv.Patch) (kv.Item, error) {
	if err := ctx.Err(); err != nil {
		return kv.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Updates++
	return s.update(s.table(tableName), key, nil, patch)
}

func (s *Store) Delete(ctx context.Context, tableName string, key kv.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Deletes++
	delete(s.table(tableName), key)
	return nil
}

func (s *Store) Batch(tableName string) kv.Batch {
	return &batch{store: s, table: tableName}
}

func (s *Store) create(t table, key kv.Key, data any) (kv.Item, error) {
	if _, exists := t[key]; exists {
		return kv.Item{}, kv.DuplicateKey(key)
	}
	raw, err := kv.Marshal(data)
	if err != nil {
		return kv.Item{}, err
	}
	now := s.now().UTC()
	item := kv.Item{Key: key, Data: raw, CreatedAt: now, UpdatedAt: now}
	t[key] = item
	return item, nil
}

func (s *Store) update(t table, key kv.Key, expect, patch kv.Patch) (kv.Item, error) {
	item, ok := t[key]
	if !ok {
		if expect != nil {
			return kv.Item{}, kv.ExpectationFailed(key)
		}
		return kv.Item{}, kv.MissingKey(key)
	}

	attrs := map[string]any{}
	if err := json.Unmarshal(item.Data, &attrs); err != nil {
		return kv.Item{}, fmt.Errorf("decode item %s: %w", key, err)
	}
	for name, want := range expect {
		if !sameJSON(attrs[name], want) {
			return kv.Item{}, kv.ExpectationFailed(key)
		}
	}
	for name, value := range patch {
		attrs[name] = value
	}
	raw, err := kv.Marshal(attrs)
	if err != nil {
		return kv.Item{}, err
	}
	item.Data = raw
	item.UpdatedAt = s.now().UTC()
	t[key] = item
	return item, nil
}

func sameJSON(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}

type batch struct {
	kv.Queue
	store *Store
	table string
}

func (b *batch) Execute(ctx context.Context) error {
	if b.Len() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.store.BeforeExecute != nil {
		b.store.BeforeExecute()
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Batches++

	if s.FailExecute != nil {
		err := s.FailExecute
		s.FailExecute = nil
		return err
	}

	// Apply to a copy and swap it in only if every mutation succeeds.
	current := s.table(b.table)
	next := make(table, len(current))
	for k, v := range current {
		next[k] = v
	}

	for _, m := range b.Mutations() {
		var err error
		switch m.Kind {
		case kv.MutationCreate:
			_, err = s.create(next, m.Key, m.Data)
		case kv.MutationUpdate:
			_, err = s.update(next, m.Key, nil, m.Patch)
		case kv.MutationUpdateIf:
			_, err = s.update(next, m.Key, m.Expect, m.Patch)
		default:
			err = fmt.Errorf("unsupported mutation %s", m.Kind)
		}
		if err != nil {
			return err
		}
	}

	s.tables[b.table] = next
	return nil
}

type txKey struct{}

// RunInTransaction runs fn and restores every table to its prior state when fn
// fails. Nested calls join the outer transaction. Writes are not isolated from
// concurrent callers.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := make(map[string]table, len(s.tables))
	for name, t := range s.tables {
		cp := make(table, len(t))
		for k, v := range t {
			cp[k] = v
		}
		snapshot[name] = cp
	}
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.tables = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

var _ kv.Store = (*Store)(nil)
