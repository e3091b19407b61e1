package correspondence

import (
	"errors"
	"net/http"
)

// Domain errors for correspondence operations.
var (
	ErrNotFound          = errors.New("correspondence record not found")
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrInvalidQuery      = errors.New("invalid search query")
	ErrConflict          = errors.New("record modified concurrently")
	ErrValidation        = errors.New("validation failed")
)

// MapHTTPStatus maps correspondence domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidTransition) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidQuery) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
