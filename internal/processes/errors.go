package processes

import (
	"errors"
	"net/http"

	"github.com/refinelab/refinery/internal/workflow"
)

// Domain errors for process operations.
var (
	ErrNotFound        = errors.New("process not found")
	ErrDuplicate       = errors.New("process name already exists")
	ErrInvalidFileType = errors.New("file type must be csv, txt, or json")
)

// MapHTTPStatus maps process domain and workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidFileType) {
		return http.StatusBadRequest
	}
	if status := workflow.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusInternalServerError
}
