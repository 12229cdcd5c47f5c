package services

import (
	"errors"
	"net/http"

	registry_errors "upload-registry/pkg/errors"
)

// HTTPStatus maps a service error to a status code and an error code for the
// response envelope.
func HTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, registry_errors.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, registry_errors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, registry_errors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, registry_errors.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, registry_errors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, registry_errors.ErrDuplicateIdentity):
		return http.StatusConflict, "DUPLICATE_IDENTITY"
	case errors.Is(err, registry_errors.ErrVersionConflict):
		return http.StatusConflict, "VERSION_CONFLICT"
	case errors.Is(err, registry_errors.ErrResidenceUnresolved):
		return http.StatusUnprocessableEntity, "RESIDENCE_UNRESOLVED"
	case errors.Is(err, registry_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
