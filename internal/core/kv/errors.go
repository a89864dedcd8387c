package kv

import "lingua/internal/core/apperror"

// Error constructors shared by store implementations.

func DuplicateKey(key Key) *apperror.AppError {
	return apperror.NewDuplicate("item", "key", key.String())
}

func MissingKey(key Key) *apperror.AppError {
	return apperror.NewNotFound("item", key.String()).
		WithDetail("pk", key.PK).
		WithDetail("sk", key.SK)
}

// MissingSortKey returns the sort key of the item a MissingKey error names.
func MissingSortKey(err error) (string, bool) {
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeNotFound {
		return "", false
	}
	sk, ok := appErr.Details["sk"].(string)
	return sk, ok
}

func ExpectationFailed(key Key) *apperror.AppError {
	return apperror.NewConcurrentModification("item", key.String())
}
