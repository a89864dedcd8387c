// Package kv defines the key-value store contract the registries are built on.
//
// Items live in a table and are addressed by a partition key (PK) and a sort key (SK).
// Each item carries a JSON attribute document. Implementations live in
// infrastructure/storage (PostgreSQL, SQLite) and kv/kvtest (in-memory).
//
// Error contract, shared by every implementation:
//   - Create on an existing key returns an apperror with CodeDuplicate.
//   - Update on a missing key returns an apperror with CodeNotFound.
//   - UpdateIf whose expectation does not hold returns CodeConcurrentModification.
//   - Delete of a missing key is not an error.
//   - Batch.Execute applies every queued mutation or none of them.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Key addresses a single item.
type Key struct {
	PK string
	SK string
}

func (k Key) String() string {
	return k.PK + "/" + k.SK
}

// Item is a stored record.
type Item struct {
	Key
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode unmarshals the item's attribute document into v.
func (i Item) Decode(v any) error {
	if err := json.Unmarshal(i.Data, v); err != nil {
		return fmt.Errorf("decode item %s: %w", i.Key, err)
	}
	return nil
}

// Patch is a shallow attribute merge applied by Update.
type Patch map[string]any

// ReadOptions narrows a range read.
type ReadOptions struct {
	// Limit caps the number of items returned; 0 means no limit.
	Limit int

	// Reverse returns items in descending sort key order.
	Reverse bool
}

// Store is a key-value client over named tables.
type Store interface {
	// Read returns the items matching q in sort key order.
	Read(ctx context.Context, table string, q Query, opts ReadOptions) ([]Item, error)

	// Create inserts a new item. data is marshalled to JSON.
	Create(ctx context.Context, table string, key Key, data any) (Item, error)

	// Update merges patch into an existing item and returns the result.
	Update(ctx context.Context, table string, key Key, patch Patch) (Item, error)

	// Delete removes an item if present.
	Delete(ctx context.Context, table string, key Key) error

	// Batch starts an atomic group of mutations against table.
	Batch(table string) Batch
}

// Batch queues mutations and applies them atomically on Execute.
type Batch interface {
	Create(key Key, data any)
	Update(key Key, patch Patch)

	// UpdateIf applies patch only if every attribute in expect currently holds
	// the given value. This is the compare-and-swap primitive.
	UpdateIf(key Key, expect Patch, patch Patch)

	Len() int
	Execute(ctx context.Context) error
}

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ValidateTable checks that name is usable as an unquoted SQL identifier.
func ValidateTable(name string) error {
	if !tableName.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Marshal encodes an item document. Nil encodes as an empty object.
func Marshal(data any) (json.RawMessage, error) {
	if data == nil {
		return json.RawMessage(`{}`), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode item data: %w", err)
	}
	return raw, nil
}
