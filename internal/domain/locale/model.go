// Package locale manages the per-tenant catalog of locales and the
// designation of exactly one of them as the tenant's default.
package locale

import (
	"strings"
	"time"

	"golang.org/x/text/language"

	"lingua/internal/core/apperror"
)

// Locale is a locale record.
type Locale struct {
	Code    string `json:"code"`
	Default bool   `json:"default"`

	// Maintained by the store; not part of the stored document.
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DefaultPointer names the tenant's default locale.
type DefaultPointer struct {
	Code string `json:"code"`
}

// CreateInput holds the attributes of a new locale.
type CreateInput struct {
	Code    string
	Default bool
}

// UpdateInput holds the mutable attributes of a locale.
type UpdateInput struct {
	Default bool
}

// ListParams narrows List.
type ListParams struct {
	// Limit caps the result size; 0 means no limit.
	Limit int

	// After is an exclusive cursor: the code of the last item of the previous page.
	After string

	// Reverse lists in descending code order.
	Reverse bool
}

// NormalizeCode validates a BCP 47 language tag and returns its canonical form
// ("en-us" becomes "en-US").
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", apperror.NewValidation("locale code is required")
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", apperror.NewValidation("invalid locale code").
			WithDetail("code", code).
			WithCause(err)
	}
	if tag == language.Und {
		return "", apperror.NewValidation("invalid locale code").WithDetail("code", code)
	}
	return tag.String(), nil
}
