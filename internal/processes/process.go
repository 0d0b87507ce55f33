// Package processes implements the process definition domain for Refinery.
// It provides types, data access, and business logic for creating processes
// with generated rules, saving manual rule edits, and feedback-driven
// rule improvement via the workflow engine.
package processes

import (
	"time"

	"github.com/google/uuid"
)

// Process represents a stored file transformation process definition.
// Rules hold the model-generated or manually edited automation rule set.
type Process struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	InputFileType    FileType       `json:"input_file_type"`
	OutputFileType   FileType       `json:"output_file_type"`
	TrainingFiles    []TrainingFile `json:"training_files"`
	ExampleInputKey  *string        `json:"example_input_key"`
	ExampleOutputKey *string        `json:"example_output_key"`
	Rules            string         `json:"rules"`
	Status           Status         `json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TrainingFile references an uploaded training document. Source is a blob
// storage key or an http(s) URL.
type TrainingFile struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// CreateCommand carries the data needed to create a process. Rule generation
// runs synchronously as part of creation when training files are provided.
type CreateCommand struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	InputFileType    FileType       `json:"input_file_type"`
	OutputFileType   FileType       `json:"output_file_type"`
	TrainingFiles    []TrainingFile `json:"training_files"`
	ExampleInputKey  *string        `json:"example_input_key"`
	ExampleOutputKey *string        `json:"example_output_key"`
}

// UpdateCommand carries the data needed to update process metadata.
// Rules are changed through SaveRules or Improve, not here.
type UpdateCommand struct {
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	InputFileType    FileType       `json:"input_file_type"`
	OutputFileType   FileType       `json:"output_file_type"`
	TrainingFiles    []TrainingFile `json:"training_files"`
	ExampleInputKey  *string        `json:"example_input_key"`
	ExampleOutputKey *string        `json:"example_output_key"`
}

// SaveRulesCommand carries a manual rule edit. The rules replace the
// current rule set verbatim.
type SaveRulesCommand struct {
	Rules string `json:"rules"`
}

// ImproveCommand carries user feedback for model-driven rule revision.
type ImproveCommand struct {
	Feedback string `json:"feedback"`
}
