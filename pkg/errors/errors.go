package registry_errors

import (
	"errors"
)

// Upload record errors
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateIdentity   = errors.New("upload with this identity already exists")
	ErrValidation          = errors.New("validation failed")
	ErrResidenceUnresolved = errors.New("unable to resolve storage residence")
	ErrVersionConflict     = errors.New("upload was modified concurrently")
)

// Transport errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrServiceUnavailable = errors.New("service unavailable")
)
