package locale

import (
	"context"
	"fmt"

	"lingua/internal/core/apperror"
	"lingua/internal/core/kv"
)

// Registry is the locale catalog of one scope, stored in a kv table.
//
// Invariant: the default pointer names exactly one locale whose Default flag is
// set, and no other locale of the scope has it set. UpdateDefault is the only
// operation that changes either side.
type Registry struct {
	store kv.Store
	table string
	scope Scope
	keys  Keys
}

// NewRegistry validates scope and returns a registry bound to it.
// A missing tenant or content locale fails here, before any store call.
func NewRegistry(store kv.Store, table string, scope Scope) (*Registry, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if err := kv.ValidateTable(table); err != nil {
		return nil, err
	}
	return &Registry{
		store: store,
		table: table,
		scope: scope,
		keys:  scope.Keys(),
	}, nil
}

// Scope returns the scope the registry is bound to.
func (r *Registry) Scope() Scope {
	return r.scope
}

// Keys returns the partition keys the registry reads and writes.
func (r *Registry) Keys() Keys {
	return r.keys
}

func (r *Registry) localeKey(code string) kv.Key {
	return kv.Key{PK: r.keys.Locale, SK: code}
}

func (r *Registry) defaultKey() kv.Key {
	return kv.Key{PK: r.keys.Default, SK: defaultSortKey}
}

// GetByCode returns the locale with the given code, or nil if there is none.
func (r *Registry) GetByCode(ctx context.Context, code string) (*Locale, error) {
	items, err := r.store.Read(ctx, r.table, kv.Exact(r.localeKey(code)), kv.ReadOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("get locale %q: %w", code, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return decodeLocale(items[0])
}

// GetDefault returns the default pointer, or nil if no default was ever set.
func (r *Registry) GetDefault(ctx context.Context) (*DefaultPointer, error) {
	items, err := r.store.Read(ctx, r.table, kv.Exact(r.defaultKey()), kv.ReadOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("get default locale: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var ptr DefaultPointer
	if err := items[0].Decode(&ptr); err != nil {
		return nil, err
	}
	return &ptr, nil
}

// List returns the scope's locales in code order.
func (r *Registry) List(ctx context.Context, params ListParams) ([]Locale, error) {
	q := kv.After(r.keys.Locale, listFloor)
	if params.After != "" {
		if params.Reverse {
			q = kv.Before(r.keys.Locale, params.After)
		} else {
			q = kv.After(r.keys.Locale, params.After)
		}
	}

	items, err := r.store.Read(ctx, r.table, q, kv.ReadOptions{
		Limit:   params.Limit,
		Reverse: params.Reverse,
	})
	if err != nil {
		return nil, fmt.Errorf("list locales: %w", err)
	}

	locales := make([]Locale, 0, len(items))
	for _, item := range items {
		l, err := decodeLocale(item)
		if err != nil {
			return nil, err
		}
		locales = append(locales, *l)
	}
	return locales, nil
}

// Create stores a new locale. An existing code yields a DUPLICATE_ENTRY error.
func (r *Registry) Create(ctx context.Context, in CreateInput) (*Locale, error) {
	if in.Code == "" {
		return nil, apperror.NewValidation("locale code is required")
	}

	item, err := r.store.Create(ctx, r.table, r.localeKey(in.Code), Locale{Code: in.Code, Default: in.Default})
	if err != nil {
		if apperror.IsDuplicate(err) {
			return nil, apperror.NewDuplicate("locale", "code", in.Code).WithCause(err)
		}
		return nil, fmt.Errorf("create locale %q: %w", in.Code, err)
	}
	return decodeLocale(item)
}

// Update sets the Default flag of an existing locale.
// It does not touch the default pointer; use UpdateDefault to change the default.
func (r *Registry) Update(ctx context.Context, code string, in UpdateInput) (*Locale, error) {
	item, err := r.store.Update(ctx, r.table, r.localeKey(code), kv.Patch{"default": in.Default})
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("locale", code).WithCause(err)
		}
		return nil, fmt.Errorf("update locale %q: %w", code, err)
	}
	return decodeLocale(item)
}

// Delete removes a locale. Deleting a missing locale is not an error.
func (r *Registry) Delete(ctx context.Context, code string) error {
	if err := r.store.Delete(ctx, r.table, r.localeKey(code)); err != nil {
		return fmt.Errorf("delete locale %q: %w", code, err)
	}
	return nil
}

// UpdateDefault makes code the default locale.
//
// All writes go out as one batch. The pointer is moved with a compare-and-swap
// on its current code (or created only if still absent), so a concurrent change
// of the default makes this call fail with CONCURRENT_MODIFICATION instead of
// leaving two defaults. Calling it for the current default writes nothing.
func (r *Registry) UpdateDefault(ctx context.Context, code string) error {
	if code == "" {
		return apperror.NewValidation("locale code is required")
	}

	current, err := r.GetDefault(ctx)
	if err != nil {
		return err
	}

	batch := r.store.Batch(r.table)
	if current != nil {
		if current.Code == code {
			return nil
		}

		batch.UpdateIf(r.defaultKey(), kv.Patch{"code": current.Code}, kv.Patch{"code": code})

		// The previous default may have been removed out of band; only clear
		// its flag if it is still there.
		previous, err := r.GetByCode(ctx, current.Code)
		if err != nil {
			return err
		}
		if previous != nil {
			batch.Update(r.localeKey(current.Code), kv.Patch{"default": false})
		}
	} else {
		batch.Create(r.defaultKey(), DefaultPointer{Code: code})
	}

	batch.Update(r.localeKey(code), kv.Patch{"default": true})

	if err := batch.Execute(ctx); err != nil {
		switch {
		case apperror.IsConcurrentModification(err), apperror.IsDuplicate(err):
			return apperror.NewConcurrentModification("default locale", r.scope.TenantID).WithCause(err)
		case apperror.IsNotFound(err):
			if missing, ok := kv.MissingSortKey(err); ok && missing != code {
				// The previous default was deleted after it was read.
				return apperror.NewConcurrentModification("default locale", r.scope.TenantID).
					WithDetail("code", missing).
					WithCause(err)
			}
			return apperror.NewNotFound("locale", code).WithCause(err)
		default:
			return fmt.Errorf("update default locale to %q: %w", code, err)
		}
	}
	return nil
}

func decodeLocale(item kv.Item) (*Locale, error) {
	var l Locale
	if err := item.Decode(&l); err != nil {
		return nil, err
	}
	if l.Code == "" {
		l.Code = item.SK
	}
	l.CreatedAt = item.CreatedAt
	l.UpdatedAt = item.UpdatedAt
	return &l, nil
}
