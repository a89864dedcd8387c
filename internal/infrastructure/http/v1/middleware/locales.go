package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "lingua/internal/core/context"
	"lingua/internal/core/kv"
	"lingua/internal/domain/locale"
)

// Locales middleware builds the locale registry of the request's scope and
// installs it into the request context. Must run after Tenant and ContentLocale.
func Locales(store kv.Store, table string, scheme locale.KeyScheme) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		registry, err := locale.NewRegistry(store, table, locale.Scope{
			TenantID:      appctx.GetTenantID(ctx),
			ContentLocale: appctx.GetContentLocale(ctx),
			Scheme:        scheme,
		})
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(locale.WithRegistry(ctx, registry))
		c.Next()
	}
}
