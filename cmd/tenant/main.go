// Package main provides CLI for tenant management.
// Usage: tenant create --slug acme --name "ACME Corp" [--locale en-US]
//
//	tenant list
//	tenant suspend <tenant-id>
//	tenant activate <tenant-id>
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"lingua/internal/config"
	appctx "lingua/internal/core/context"
	"lingua/internal/core/tenant"
	"lingua/internal/domain/locale"
	"lingua/internal/infrastructure/storage/postgres"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		createTenant(ctx)
	case "list":
		listTenants(ctx)
	case "suspend":
		setStatus(ctx, tenant.StatusSuspended)
	case "activate":
		setStatus(ctx, tenant.StatusActive)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Lingua Tenant Management CLI

Usage:
  tenant <command> [options]

Commands:
  create    Create a new tenant
  list      List all tenants
  suspend   Suspend a tenant
  activate  Activate a suspended tenant
  help      Show this help

Environment Variables:
  DATABASE_URL       Connection string (required)
  DB_TABLE_I18N      Locale table used by --locale (default i18n)

Examples:
  tenant create --slug acme --name "ACME Corporation" --locale en-US
  tenant list
  tenant suspend <tenant-uuid>
  tenant activate <tenant-uuid>`)
}

func mustConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.StoreDriver != config.DriverPostgres {
		fmt.Println("Error: tenant management requires STORE_DRIVER=postgres")
		os.Exit(1)
	}
	return cfg
}

func openPool(ctx context.Context, cfg config.Config) *postgres.Pool {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 0

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	return pool
}

func openRegistry(ctx context.Context, pool *postgres.Pool) *tenant.PostgresRegistry {
	registry := tenant.NewPostgresRegistry(pool.Pool)
	if err := registry.EnsureSchema(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return registry
}

func createTenant(ctx context.Context) {
	var in tenant.CreateTenantInput
	var defaultLocale string

	// Parse arguments
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--slug":
			if i+1 < len(os.Args) {
				in.Slug = os.Args[i+1]
				i++
			}
		case "--name":
			if i+1 < len(os.Args) {
				in.DisplayName = os.Args[i+1]
				i++
			}
		case "--locale":
			if i+1 < len(os.Args) {
				defaultLocale = os.Args[i+1]
				i++
			}
		}
	}

	if err := in.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Usage: tenant create --slug <slug> --name <name> [--locale <tag>]")
		os.Exit(1)
	}

	cfg := mustConfig()
	pool := openPool(ctx, cfg)
	defer pool.Close()

	fmt.Printf("Creating tenant '%s'...\n", in.Slug)

	t, err := openRegistry(ctx, pool).Create(ctx, in)
	if err != nil {
		fmt.Printf("Error registering tenant: %v\n", err)
		os.Exit(1)
	}

	if defaultLocale != "" {
		fmt.Printf("  Adding default locale %s...\n", defaultLocale)
		if err := addDefaultLocale(ctx, cfg, pool, t.ID, defaultLocale); err != nil {
			fmt.Printf("  Warning: %v\n", err)
			fmt.Println("  Add the locale through the API or a seed file.")
		}
	}

	fmt.Printf("\n✓ Tenant '%s' created successfully!\n", t.Slug)
	fmt.Printf("  Tenant ID: %s\n", t.ID)
	fmt.Printf("  Status: %s\n", t.Status)
}

func addDefaultLocale(ctx context.Context, cfg config.Config, pool *postgres.Pool, tenantID, code string) error {
	store := postgres.NewKVStore(postgres.NewTxManager(pool))
	if err := store.EnsureTable(ctx, cfg.Table); err != nil {
		return err
	}

	registry, err := locale.NewRegistry(store, cfg.Table, locale.Scope{TenantID: tenantID, Scheme: cfg.Scheme()})
	if err != nil {
		return err
	}

	ctx = appctx.WithScope(ctx, &appctx.RequestScope{TenantID: tenantID})
	_, err = locale.NewService(registry).Create(ctx, locale.CreateInput{Code: code, Default: true})
	return err
}

func listTenants(ctx context.Context) {
	pool := openPool(ctx, mustConfig())
	defer pool.Close()

	tenants, err := openRegistry(ctx, pool).ListAll(ctx)
	if err != nil {
		fmt.Printf("Error listing tenants: %v\n", err)
		os.Exit(1)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found")
		return
	}

	fmt.Printf("%-36s %-20s %-30s %-10s\n", "TENANT_ID", "SLUG", "NAME", "STATUS")
	fmt.Println(strings.Repeat("-", 99))

	for _, t := range tenants {
		fmt.Printf("%-36s %-20s %-30s %-10s\n",
			truncate(t.ID, 36),
			truncate(t.Slug, 20),
			truncate(t.DisplayName, 30),
			t.Status,
		)
	}
}

func setStatus(ctx context.Context, status tenant.Status) {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: tenant %s <tenant-uuid>\n", os.Args[1])
		os.Exit(1)
	}

	tenantID := os.Args[2]

	pool := openPool(ctx, mustConfig())
	defer pool.Close()

	if err := openRegistry(ctx, pool).UpdateStatusByID(ctx, tenantID, status); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Tenant '%s' is now %s\n", tenantID, status)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
