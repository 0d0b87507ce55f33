package runs

import (
	"errors"
	"net/http"

	"github.com/refinelab/refinery/internal/workflow"
)

// Domain errors for run operations.
var (
	ErrNotFound        = errors.New("run not found")
	ErrDuplicate       = errors.New("run already exists")
	ErrInvalidStatus   = errors.New("status must be running, completed, or failed")
	ErrProcessNotFound = errors.New("process not found")
	ErrProcessNotReady = errors.New("process has no rules to execute")
	ErrMissingInput    = errors.New("input file name and key required")
)

// MapHTTPStatus maps run domain and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrProcessNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrProcessNotReady) || errors.Is(err, ErrMissingInput) {
		return http.StatusBadRequest
	}
	if status := workflow.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusInternalServerError
}
