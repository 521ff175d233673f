// Package server provides the HTTP API for scoring and ranking community profiles.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/context-matcher/internal/matching"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrInvalidBody indicates the request body could not be decoded
type ErrInvalidBody struct {
	Cause error
}

func (e *ErrInvalidBody) Error() string {
	return fmt.Sprintf("invalid request body: %v", e.Cause)
}

func (e *ErrInvalidBody) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var bodyErr *ErrInvalidBody

	switch {
	case errors.As(err, &validationErr), errors.As(err, &bodyErr):
		return http.StatusBadRequest
	case errors.Is(err, matching.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
