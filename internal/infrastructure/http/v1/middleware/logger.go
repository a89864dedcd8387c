package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lingua/internal/core/tenant"
	"lingua/pkg/logger"
)

// Logger middleware logs HTTP requests with timing and status.
// 5xx responses are logged at error level, 4xx at warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"query", query,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if t := tenant.GetTenant(c.Request.Context()); t != nil && t.Slug != "" {
			fields = append(fields, "tenant_slug", t.Slug)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		// The request context carries the trace and scope set by later middleware.
		l := log.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			l.Errorw("http request", fields...)
		case status >= http.StatusBadRequest:
			l.Warnw("http request", fields...)
		default:
			l.Infow("http request", fields...)
		}
	}
}
