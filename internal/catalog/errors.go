package catalog

import (
	"errors"
	"net/http"
)

// Domain errors for catalog operations.
var (
	ErrNotFound   = errors.New("catalog entry not found")
	ErrDuplicate  = errors.New("catalog entry already exists")
	ErrValidation = errors.New("catalog validation failed")
)

// MapHTTPStatus maps catalog domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrValidation) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
