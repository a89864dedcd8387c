package locale

import (
	"context"
	"strings"

	"lingua/internal/core/apperror"
	"lingua/pkg/logger"
)

// Service applies the catalog's business rules on top of a Registry:
// codes are canonical BCP 47 tags, and the default locale can only be
// replaced, never unset or deleted.
type Service struct {
	registry *Registry
}

// NewService creates a new locale service.
func NewService(registry *Registry) *Service {
	return &Service{registry: registry}
}

// Get returns a locale or NOT_FOUND.
func (s *Service) Get(ctx context.Context, code string) (*Locale, error) {
	l, code, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperror.NewNotFound("locale", code)
	}
	return l, nil
}

// GetDefault returns the default pointer or NOT_FOUND when none is set.
func (s *Service) GetDefault(ctx context.Context) (*DefaultPointer, error) {
	ptr, err := s.registry.GetDefault(ctx)
	if err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, apperror.NewNotFound("default locale", s.registry.Scope().TenantID)
	}
	return ptr, nil
}

// List returns a page of locales.
func (s *Service) List(ctx context.Context, params ListParams) ([]Locale, error) {
	if params.Limit < 0 {
		return nil, apperror.NewValidation("limit must not be negative")
	}
	return s.registry.List(ctx, params)
}

// Create adds a locale. A locale created as default becomes the default
// through UpdateDefault so the pointer and flags stay in step.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Locale, error) {
	code, err := NormalizeCode(in.Code)
	if err != nil {
		return nil, err
	}

	l, err := s.registry.Create(ctx, CreateInput{Code: code})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "locale created", "code", code)

	if in.Default {
		if _, err := s.SetDefault(ctx, code); err != nil {
			return nil, err
		}
		l.Default = true
	}
	return l, nil
}

// Update changes a locale's Default flag. Setting it makes the locale the
// default; clearing it on the current default is rejected.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (*Locale, error) {
	existing, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if in.Default {
		if existing.Default {
			return existing, nil
		}
		if _, err := s.SetDefault(ctx, existing.Code); err != nil {
			return nil, err
		}
		return s.Get(ctx, existing.Code)
	}

	if err := s.ensureNotDefault(ctx, existing.Code, "default locale cannot be unset; make another locale the default instead"); err != nil {
		return nil, err
	}
	return s.registry.Update(ctx, existing.Code, in)
}

// Delete removes a locale other than the default.
func (s *Service) Delete(ctx context.Context, code string) error {
	_, code, err := s.find(ctx, code)
	if err != nil {
		return err
	}
	if err := s.ensureNotDefault(ctx, code, "default locale cannot be deleted"); err != nil {
		return err
	}

	if err := s.registry.Delete(ctx, code); err != nil {
		return err
	}
	logger.Info(ctx, "locale deleted", "code", code)
	return nil
}

// SetDefault makes an existing locale the default.
func (s *Service) SetDefault(ctx context.Context, code string) (*DefaultPointer, error) {
	target, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	previous, err := s.registry.GetDefault(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.registry.UpdateDefault(ctx, target.Code); err != nil {
		return nil, err
	}

	if previous == nil || previous.Code != target.Code {
		from := ""
		if previous != nil {
			from = previous.Code
		}
		logger.Info(ctx, "default locale changed", "from", from, "to", target.Code)
	}
	return &DefaultPointer{Code: target.Code}, nil
}

// find looks a locale up by its canonical code, then by the code as given.
// Catalogs written with the content-locale key layout may hold
// non-canonical tags such as "en-us". The returned code is the stored one,
// or the canonical code when there is no match.
func (s *Service) find(ctx context.Context, raw string) (*Locale, string, error) {
	code, err := NormalizeCode(raw)
	if err != nil {
		return nil, "", err
	}

	l, err := s.registry.GetByCode(ctx, code)
	if err != nil || l != nil {
		return l, code, err
	}

	if raw = strings.TrimSpace(raw); raw != code {
		l, err = s.registry.GetByCode(ctx, raw)
		if err != nil {
			return nil, "", err
		}
		if l != nil {
			return l, raw, nil
		}
	}
	return nil, code, nil
}

func (s *Service) ensureNotDefault(ctx context.Context, code, message string) error {
	ptr, err := s.registry.GetDefault(ctx)
	if err != nil {
		return err
	}
	if ptr != nil && ptr.Code == code {
		return apperror.NewBusinessRule(apperror.CodeDefaultLocaleRequired, message).
			WithDetail("code", code)
	}
	return nil
}
