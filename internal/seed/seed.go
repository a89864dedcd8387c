// Package seed loads locale catalogs from a YAML file and applies them to a store.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"lingua/internal/core/apperror"
	appctx "lingua/internal/core/context"
	"lingua/internal/core/kv"
	"lingua/internal/core/tx"
	"lingua/internal/domain/locale"
	"lingua/pkg/logger"
)

// File is the seed document.
type File struct {
	// Table overrides the configured table when set.
	Table   string   `yaml:"table"`
	Tenants []Tenant `yaml:"tenants"`
}

// Tenant is the catalog of one tenant.
type Tenant struct {
	ID            string   `yaml:"id"`
	ContentLocale string   `yaml:"contentLocale"`
	Locales       []string `yaml:"locales"`
	Default       string   `yaml:"default"`
}

// Result counts what Apply did.
type Result struct {
	Created     int
	Existing    int
	DefaultsSet int
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document, rejecting unknown fields, and normalizes
// every locale code.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.normalize(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) normalize() error {
	if f.Table != "" {
		if err := kv.ValidateTable(f.Table); err != nil {
			return fmt.Errorf("seed table: %w", err)
		}
	}

	seen := make(map[string]bool, len(f.Tenants))
	for i := range f.Tenants {
		t := &f.Tenants[i]
		if t.ID == "" {
			return fmt.Errorf("tenant #%d: id is required", i+1)
		}
		if seen[t.ID] {
			return fmt.Errorf("tenant %s: listed twice", t.ID)
		}
		seen[t.ID] = true

		if t.ContentLocale != "" {
			code, err := locale.NormalizeCode(t.ContentLocale)
			if err != nil {
				return fmt.Errorf("tenant %s content locale: %w", t.ID, err)
			}
			t.ContentLocale = code
		}

		codes := make([]string, 0, len(t.Locales))
		for _, raw := range t.Locales {
			code, err := locale.NormalizeCode(raw)
			if err != nil {
				return fmt.Errorf("tenant %s: %w", t.ID, err)
			}
			if !slices.Contains(codes, code) {
				codes = append(codes, code)
			}
		}
		t.Locales = codes

		if t.Default != "" {
			code, err := locale.NormalizeCode(t.Default)
			if err != nil {
				return fmt.Errorf("tenant %s default: %w", t.ID, err)
			}
			if !slices.Contains(t.Locales, code) {
				return fmt.Errorf("tenant %s: default %s is not among its locales", t.ID, code)
			}
			t.Default = code
		}
	}
	return nil
}

// TableOr returns the table the file overrides, or fallback.
func (f *File) TableOr(fallback string) string {
	if f.Table != "" {
		return f.Table
	}
	return fallback
}

// RequireTable fails when the file overrides the table with one other than table.
func (f *File) RequireTable(table string) error {
	if f.Table != "" && f.Table != table {
		return apperror.NewValidation(fmt.Sprintf("seed table %q differs from the served table %q", f.Table, table)).
			WithDetail("table", f.Table)
	}
	return nil
}

// Apply creates the missing locales of every tenant and sets their defaults.
// Each tenant is applied in its own transaction. Existing locales are left
// alone, so applying a file twice is harmless.
func Apply(ctx context.Context, store kv.Store, txm tx.Manager, table string, scheme locale.KeyScheme, f *File) (Result, error) {
	var res Result
	table = f.TableOr(table)

	for _, t := range f.Tenants {
		scope := locale.Scope{TenantID: t.ID, ContentLocale: t.ContentLocale, Scheme: scheme}
		registry, err := locale.NewRegistry(store, table, scope)
		if err != nil {
			return res, fmt.Errorf("tenant %s: %w", t.ID, err)
		}

		tctx := appctx.WithScope(ctx, &appctx.RequestScope{TenantID: t.ID, ContentLocale: t.ContentLocale})

		var step Result
		err = txm.RunInTransaction(tctx, func(ctx context.Context) error {
			var applyErr error
			step, applyErr = applyTenant(ctx, registry, t)
			return applyErr
		})
		if err != nil {
			return res, fmt.Errorf("tenant %s: %w", t.ID, err)
		}
		res.Created += step.Created
		res.Existing += step.Existing
		res.DefaultsSet += step.DefaultsSet
	}

	logger.Info(ctx, "seed applied",
		"table", table,
		"tenants", len(f.Tenants),
		"created", res.Created,
		"existing", res.Existing,
		"defaults_set", res.DefaultsSet,
	)
	return res, nil
}

// applyTenant checks for existing locales before creating them: a failed
// insert would abort the surrounding postgres transaction.
func applyTenant(ctx context.Context, registry *locale.Registry, t Tenant) (Result, error) {
	var res Result
	svc := locale.NewService(registry)

	for _, code := range t.Locales {
		existing, err := registry.GetByCode(ctx, code)
		if err != nil {
			return res, err
		}
		if existing != nil {
			res.Existing++
			continue
		}
		if _, err := svc.Create(ctx, locale.CreateInput{Code: code}); err != nil {
			return res, fmt.Errorf("locale %s: %w", code, err)
		}
		res.Created++
	}

	if t.Default == "" {
		return res, nil
	}
	current, err := registry.GetDefault(ctx)
	if err != nil {
		return res, err
	}
	if current != nil && current.Code == t.Default {
		return res, nil
	}
	if _, err := svc.SetDefault(ctx, t.Default); err != nil {
		return res, fmt.Errorf("default %s: %w", t.Default, err)
	}
	res.DefaultsSet++
	return res, nil
}
