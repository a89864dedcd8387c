// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"lingua/internal/infrastructure/storage/postgres"
)

// Pinger checks a backend's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Pinger
	driver  string
	version string

	// pool is nil for the sqlite driver.
	pool *postgres.Pool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, driver, version string, pool *postgres.Pool) *HealthHandler {
	return &HealthHandler{db: db, driver: driver, version: version, pool: pool}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	database := gin.H{"driver": h.driver}
	if h.pool != nil {
		database["pool"] = h.pool.Stats()
	}

	c.JSON(http.StatusOK, gin.H{
		"app":      "lingua",
		"version":  h.version,
		"database": database,
	})
}
