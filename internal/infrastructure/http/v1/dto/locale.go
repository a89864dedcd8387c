package dto

import (
	"time"

	"lingua/internal/domain/locale"
)

// LocaleResponse is a locale of the tenant's catalog.
type LocaleResponse struct {
	Code      string    `json:"code"`
	Default   bool      `json:"default"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromLocale creates LocaleResponse from locale.Locale.
func FromLocale(l locale.Locale) LocaleResponse {
	return LocaleResponse{
		Code:      l.Code,
		Default:   l.Default,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// FromLocales converts a page of locales. The cursor is the last code of a full page.
func FromLocales(locales []locale.Locale, limit int) CursorResponse[LocaleResponse] {
	resp := CursorResponse[LocaleResponse]{Items: make([]LocaleResponse, 0, len(locales))}
	for _, l := range locales {
		resp.Items = append(resp.Items, FromLocale(l))
	}
	if limit > 0 && len(locales) == limit {
		resp.NextCursor = locales[len(locales)-1].Code
	}
	return resp
}

// CreateLocaleRequest for POST /locales.
type CreateLocaleRequest struct {
	Code    string `json:"code" binding:"required"`
	Default bool   `json:"default"`
}

// ToInput converts the request to the domain input.
func (r CreateLocaleRequest) ToInput() locale.CreateInput {
	return locale.CreateInput{Code: r.Code, Default: r.Default}
}

// UpdateLocaleRequest for PATCH /locales/:code.
type UpdateLocaleRequest struct {
	Default *bool `json:"default" binding:"required"`
}

// ToInput converts the request to the domain input.
func (r UpdateLocaleRequest) ToInput() locale.UpdateInput {
	return locale.UpdateInput{Default: *r.Default}
}

// SetDefaultLocaleRequest for PUT /locales/default.
type SetDefaultLocaleRequest struct {
	Code string `json:"code" binding:"required"`
}

// DefaultLocaleResponse names the tenant's default locale.
type DefaultLocaleResponse struct {
	Code string `json:"code"`
}
