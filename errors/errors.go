package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = fmt.Errorf("validation error")
	ErrInvalidPassword = fmt.Errorf("invalid password")
	ErrMissingToken    = fmt.Errorf("authentication token is missing")
	ErrInvalidToken    = fmt.Errorf("invalid or expired token")
	ErrNotFound        = fmt.Errorf("not found")
	ErrConflict        = fmt.Errorf("already exists")
	ErrStore           = fmt.Errorf("store failure")
	ErrTokenGeneration = fmt.Errorf("token generation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrSinkClosed  = fmt.Errorf("sink is closed")
)

// HTTPStatus maps an error of the taxonomy to the status code returned by the API.
// Unknown errors are treated as store failures.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrValidation), stderrors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrMissingToken):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrInvalidToken):
		return http.StatusForbidden
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Store wraps a backend failure so that it maps to ErrStore while keeping the cause.
func Store(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
