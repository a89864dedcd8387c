package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry provides access to tenant records.
type Registry interface {
	// GetByID retrieves tenant by UUID string.
	GetByID(ctx context.Context, tenantID string) (*Tenant, error)

	// ListAll returns all tenants ordered by slug.
	ListAll(ctx context.Context) ([]*Tenant, error)

	// Create inserts a new tenant.
	Create(ctx context.Context, in CreateTenantInput) (*Tenant, error)

	// UpdateStatusByID updates tenant status by UUID string.
	UpdateStatusByID(ctx context.Context, tenantID string, status Status) error
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS tenants (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	slug         text NOT NULL UNIQUE,
	display_name text NOT NULL,
	status       text NOT NULL DEFAULT 'active',
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now()
)`

const selectColumns = `id, slug, display_name, status, created_at, updated_at`

// PostgresRegistry implements Registry using PostgreSQL.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

// EnsureSchema creates the tenants table if it does not exist.
func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("create tenants table: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) GetByID(ctx context.Context, tenantID string) (*Tenant, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, ErrTenantNotFound
	}

	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		SELECT `+selectColumns+`
		FROM tenants
		WHERE id = $1
	`, tenantID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) ListAll(ctx context.Context) ([]*Tenant, error) {
	var tenants []*Tenant
	err := pgxscan.Select(ctx, r.pool, &tenants, `
		SELECT `+selectColumns+`
		FROM tenants
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, in CreateTenantInput) (*Tenant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var t Tenant
	err := pgxscan.Get(ctx, r.pool, &t, `
		INSERT INTO tenants (slug, display_name, status)
		VALUES ($1, $2, $3)
		RETURNING `+selectColumns,
		in.Slug, in.DisplayName, StatusActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return &t, nil
}

func (r *PostgresRegistry) UpdateStatusByID(ctx context.Context, tenantID string, status Status) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return ErrTenantNotFound
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, tenantID, status)
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)
