package runs

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/refinelab/refinery/pkg/query"
	"github.com/refinelab/refinery/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "process_runs", "r").
	Project("id", "ID").
	Project("process_id", "ProcessID").
	Project("input_file_name", "InputFileName").
	Project("input_file_key", "InputFileKey").
	Project("output_file_key", "OutputFileKey").
	Project("output_content", "OutputContent").
	Project("status", "Status").
	Project("error_message", "ErrorMessage").
	Project("execution_seconds", "ExecutionSeconds").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for run queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	ProcessID *uuid.UUID `json:"process_id,omitempty"`
	Status    *Status    `json:"status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ProcessID", f.ProcessID).
		WhereEquals("Status", f.Status)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("process_id"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.ProcessID = &id
		}
	}

	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}

	return f
}

func scanRun(s repository.Scanner) (Run, error) {
	var r Run
	err := s.Scan(
		&r.ID,
		&r.ProcessID,
		&r.InputFileName,
		&r.InputFileKey,
		&r.OutputFileKey,
		&r.OutputContent,
		&r.Status,
		&r.ErrorMessage,
		&r.ExecutionSeconds,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
