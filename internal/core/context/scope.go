// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// RequestScope identifies whose data a request operates on.
type RequestScope struct {
	TenantID string

	// ContentLocale is the locale the request's content is authored in,
	// resolved from X-Content-Locale or Accept-Language. May be empty.
	ContentLocale string
}

type requestScopeKey struct{}

// WithScope adds RequestScope to context.
func WithScope(ctx context.Context, scope *RequestScope) context.Context {
	return context.WithValue(ctx, requestScopeKey{}, scope)
}

// GetScope returns RequestScope from context.
func GetScope(ctx context.Context) *RequestScope {
	if v, ok := ctx.Value(requestScopeKey{}).(*RequestScope); ok {
		return v
	}
	return nil
}

// GetTenantID returns tenant ID from context or empty string.
func GetTenantID(ctx context.Context) string {
	if s := GetScope(ctx); s != nil {
		return s.TenantID
	}
	return ""
}

// GetContentLocale returns the content locale from context or empty string.
func GetContentLocale(ctx context.Context) string {
	if s := GetScope(ctx); s != nil {
		return s.ContentLocale
	}
	return ""
}
