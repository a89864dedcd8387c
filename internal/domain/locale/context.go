package locale

import (
	"context"

	"lingua/internal/core/apperror"
)

type registryKey struct{}

// WithRegistry installs the request's registry into ctx.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFromContext returns the registry installed by WithRegistry.
func RegistryFromContext(ctx context.Context) (*Registry, error) {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	if !ok || r == nil {
		return nil, apperror.NewPrecondition("locale registry not resolved")
	}
	return r, nil
}
