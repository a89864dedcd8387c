package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when the tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotActive is returned when tenant exists but is not active.
	ErrTenantNotActive = errors.New("tenant is not active")

	// ErrSlugTaken is returned by Create when the slug is already registered.
	ErrSlugTaken = errors.New("tenant slug already taken")
)
