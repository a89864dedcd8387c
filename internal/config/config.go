// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"lingua/internal/core/kv"
	"lingua/internal/domain/locale"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the shared configuration of the lingua commands.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Port     string `env:"APP_PORT" envDefault:"8080"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	MaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	MinConns    int32  `env:"DB_MIN_CONNS" envDefault:"2"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/lingua.db"`

	Table     string `env:"DB_TABLE_I18N" envDefault:"i18n"`
	KeyScheme string `env:"LOCALE_KEY_SCHEME" envDefault:"tenant"`

	// TenantRegistryEnabled makes the API look tenants up in the tenants
	// table instead of trusting the X-Tenant-ID header. Postgres only.
	TenantRegistryEnabled bool `env:"TENANT_REGISTRY_ENABLED" envDefault:"false"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	SeedFile        string        `env:"SEED_FILE"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Development reports whether the process runs in development mode.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Scheme returns the parsed locale key scheme.
func (c Config) Scheme() locale.KeyScheme {
	scheme, _ := locale.ParseKeyScheme(c.KeyScheme)
	return scheme
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
		if c.MinConns > c.MaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.MinConns, c.MaxConns)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s driver", DriverSQLite)
		}
		if c.TenantRegistryEnabled {
			return fmt.Errorf("TENANT_REGISTRY_ENABLED requires the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if err := kv.ValidateTable(c.Table); err != nil {
		return fmt.Errorf("DB_TABLE_I18N: %w", err)
	}
	if _, err := locale.ParseKeyScheme(c.KeyScheme); err != nil {
		return fmt.Errorf("LOCALE_KEY_SCHEME: %w", err)
	}
	return nil
}
