// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"lingua/internal/core/kv"
	"lingua/internal/domain/locale"
	"lingua/internal/infrastructure/http/v1/handlers"
	"lingua/internal/infrastructure/http/v1/middleware"
	"lingua/internal/infrastructure/storage/postgres"
	"lingua/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Store holds every tenant's locale catalog
	Store kv.Store

	// Table is the store table of the catalogs
	Table string

	// KeyScheme selects how catalog partition keys are derived
	KeyScheme locale.KeyScheme

	// Tenants verifies X-Tenant-ID; nil trusts the header
	Tenants middleware.TenantResolver

	// Health is pinged by the readiness probe
	Health handlers.Pinger

	// Driver and Pool are reported by /health/info; Pool is nil for sqlite
	Driver string
	Pool   *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// Version is reported by /health/info
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Health, cfg.Driver, cfg.Version, cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Tenant, then content locale, then the registry built from both.
		scoped := v1.Group("")
		scoped.Use(middleware.Tenant(cfg.Tenants))
		scoped.Use(middleware.ContentLocale())
		scoped.Use(middleware.Locales(cfg.Store, cfg.Table, cfg.KeyScheme))

		registerLocaleRoutes(scoped)
	}

	return router
}
