package middleware

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"lingua/internal/core/apperror"
	appctx "lingua/internal/core/context"
	"lingua/internal/core/tenant"
	"lingua/pkg/logger"
)

const (
	// TenantHeader is the HTTP header for tenant identification.
	TenantHeader = "X-Tenant-ID"
)

// TenantResolver looks a tenant up by id. tenant.PostgresRegistry implements it.
type TenantResolver interface {
	GetByID(ctx context.Context, tenantID string) (*tenant.Tenant, error)
}

// Tenant middleware resolves the tenant from the X-Tenant-ID header and puts
// it into the request scope.
//
// With a nil resolver the header value is trusted as is; otherwise unknown
// tenants get 404 and suspended ones 403.
func Tenant(resolver TenantResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			_ = c.Error(apperror.NewPrecondition("tenant missing").WithDetail("header", TenantHeader))
			c.Abort()
			return
		}

		t := &tenant.Tenant{ID: tenantID, Status: tenant.StatusActive}
		if resolver != nil {
			found, err := resolver.GetByID(ctx, tenantID)
			if err != nil {
				logger.Warn(ctx, "tenant lookup failed", "tenant_id", tenantID, "error", err)

				switch {
				case errors.Is(err, tenant.ErrTenantNotFound):
					_ = c.Error(apperror.NewNotFound("tenant", tenantID))
				default:
					_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", tenantID))
				}
				c.Abort()
				return
			}
			if !found.IsActive() {
				_ = c.Error(apperror.NewForbidden("tenant is not active").WithDetail("tenant_id", tenantID))
				c.Abort()
				return
			}
			t = found
		}

		ctx = tenant.WithTenant(ctx, t)
		ctx = appctx.WithScope(ctx, &appctx.RequestScope{TenantID: t.ID})
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", t.ID)

		c.Next()
	}
}
