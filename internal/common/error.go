// Package common defines shared constants and sentinel errors used across
// ArchiveKeeper components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStoreUnavailable    = errors.New("store unavailable")

	// Service-level errors.
	ErrInternal         = errors.New("internal error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation error")

	// Tree-traversal limits.
	ErrTreeTooDeep  = errors.New("folder tree too deep")
	ErrTreeTooLarge = errors.New("folder tree too large")
)
