// Package workflow implements the rule lifecycle workflows for Refinery.
// It provides foundational types, prompt composition, and the state graphs
// for generating, executing, and improving process rules.
package workflow

import (
	"errors"
	"net/http"
)

// Sentinel errors for workflow operations. Every failure inside a workflow
// graph wraps exactly one of these so callers can classify the outcome.
var (
	ErrValidation = errors.New("validation failed")
	ErrFetch      = errors.New("failed to fetch file content")
	ErrTransform  = errors.New("model transform failed")
	ErrPersist    = errors.New("failed to persist results")
)

// MapHTTPStatus maps workflow errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrFetch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTransform):
		return http.StatusBadGateway
	case errors.Is(err, ErrPersist):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
