package locale

import (
	"fmt"
	"strings"

	"lingua/internal/core/apperror"
)

// KeyScheme selects how the locale partition key is derived.
type KeyScheme string

const (
	// TenantScoped keys a tenant's locale catalog by tenant alone: T#<tenant>#L.
	TenantScoped KeyScheme = "tenant"

	// ContentLocaleScoped additionally keys it by the request's content locale:
	// T#<tenant>#L#<contentLocale>#L. Kept for data written with that layout.
	ContentLocaleScoped KeyScheme = "content-locale"
)

// ParseKeyScheme parses a configured scheme name. Empty means TenantScoped.
func ParseKeyScheme(s string) (KeyScheme, error) {
	switch KeyScheme(strings.TrimSpace(s)) {
	case "", TenantScoped:
		return TenantScoped, nil
	case ContentLocaleScoped:
		return ContentLocaleScoped, nil
	default:
		return "", fmt.Errorf("unknown locale key scheme %q", s)
	}
}

const (
	keySeparator   = "#"
	defaultSuffix  = "#D"
	defaultSortKey = "default"

	// listFloor is the exclusive lower bound of a full partition scan.
	listFloor = " "
)

// Scope identifies whose locale catalog a Registry operates on.
type Scope struct {
	TenantID      string
	ContentLocale string
	Scheme        KeyScheme
}

func (s Scope) scheme() KeyScheme {
	if s.Scheme == "" {
		return TenantScoped
	}
	return s.Scheme
}

// Validate reports a precondition error when a required scope value is missing.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.TenantID) == "" {
		return apperror.NewPrecondition("tenant missing")
	}
	if strings.Contains(s.TenantID, keySeparator) {
		return apperror.NewValidation("invalid tenant id").WithDetail("tenant_id", s.TenantID)
	}

	switch s.scheme() {
	case TenantScoped:
		return nil
	case ContentLocaleScoped:
		if strings.TrimSpace(s.ContentLocale) == "" {
			return apperror.NewPrecondition("locale missing")
		}
		if strings.Contains(s.ContentLocale, keySeparator) {
			return apperror.NewValidation("invalid content locale").WithDetail("locale", s.ContentLocale)
		}
		return nil
	default:
		return apperror.NewValidation("unknown key scheme").WithDetail("scheme", string(s.Scheme))
	}
}

// Keys are the partition keys of one scope.
type Keys struct {
	// Locale holds one item per locale, sort key = code.
	Locale string

	// Default holds the default pointer, sort key = "default".
	Default string
}

// Keys derives the partition keys. Call Validate first.
func (s Scope) Keys() Keys {
	pk := "T#" + s.TenantID + "#L"
	if s.scheme() == ContentLocaleScoped {
		pk += keySeparator + s.ContentLocale + "#L"
	}
	return Keys{
		Locale:  pk,
		Default: pk + defaultSuffix,
	}
}
