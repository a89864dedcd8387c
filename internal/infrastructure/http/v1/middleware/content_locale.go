package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	appctx "lingua/internal/core/context"
	"lingua/internal/domain/locale"
)

const (
	// ContentLocaleHeader names the locale the request's content is authored in.
	ContentLocaleHeader = "X-Content-Locale"

	acceptLanguageHeader = "Accept-Language"
)

// ContentLocale middleware resolves the request's content locale from
// X-Content-Locale, falling back to the preferred Accept-Language tag.
// An invalid X-Content-Locale is rejected; an unusable Accept-Language is ignored.
// Must run after Tenant.
func ContentLocale() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := ""
		if raw := c.GetHeader(ContentLocaleHeader); raw != "" {
			normalized, err := locale.NormalizeCode(raw)
			if err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
			code = normalized
		} else {
			code = preferredLanguage(c.GetHeader(acceptLanguageHeader))
		}

		ctx := c.Request.Context()
		scope := appctx.RequestScope{TenantID: appctx.GetTenantID(ctx), ContentLocale: code}
		c.Request = c.Request.WithContext(appctx.WithScope(ctx, &scope))

		c.Next()
	}
}

// preferredLanguage returns the highest weighted tag of an Accept-Language
// value, or "" when there is none.
func preferredLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		if tag != language.Und {
			return tag.String()
		}
	}
	return ""
}
