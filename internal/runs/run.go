// Package runs implements the process run domain for Refinery.
// It provides types, data access, and business logic for executing process
// rules against uploaded input files and recording run outcomes.
package runs

import (
	"time"

	"github.com/google/uuid"
)

// Run represents a single execution of a process against an input file.
// A run is written in two phases: a running record before the workflow
// starts, settled to completed or failed when it ends. Terminal records
// never change.
type Run struct {
	ID               uuid.UUID `json:"id"`
	ProcessID        uuid.UUID `json:"process_id"`
	InputFileName    string    `json:"input_file_name"`
	InputFileKey     string    `json:"input_file_key"`
	OutputFileKey    *string   `json:"output_file_key"`
	OutputContent    *string   `json:"output_content"`
	Status           Status    `json:"status"`
	ErrorMessage     *string   `json:"error_message"`
	ExecutionSeconds *float64  `json:"execution_seconds"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ExecuteCommand carries the data needed to execute a process run.
// InputFileKey references a previously uploaded blob.
type ExecuteCommand struct {
	ProcessID     uuid.UUID `json:"process_id"`
	InputFileName string    `json:"input_file_name"`
	InputFileKey  string    `json:"input_file_key"`
}
