package processes

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/refinelab/refinery/pkg/query"
	"github.com/refinelab/refinery/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "processes", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("input_file_type", "InputFileType").
	Project("output_file_type", "OutputFileType").
	Project("training_files", "TrainingFiles").
	Project("example_input_key", "ExampleInputKey").
	Project("example_output_key", "ExampleOutputKey").
	Project("rules", "Rules").
	Project("status", "Status").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for process queries.
// Nil fields are ignored. Name uses case-insensitive contains matching;
// the rest use exact matching.
type Filters struct {
	Name           *string   `json:"name,omitempty"`
	Status         *Status   `json:"status,omitempty"`
	InputFileType  *FileType `json:"input_file_type,omitempty"`
	OutputFileType *FileType `json:"output_file_type,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereEquals("Status", f.Status).
		WhereEquals("InputFileType", f.InputFileType).
		WhereEquals("OutputFileType", f.OutputFileType)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}

	if t := values.Get("input_file_type"); t != "" {
		if ft, err := ParseFileType(t); err == nil {
			f.InputFileType = &ft
		}
	}

	if t := values.Get("output_file_type"); t != "" {
		if ft, err := ParseFileType(t); err == nil {
			f.OutputFileType = &ft
		}
	}

	return f
}

func scanProcess(s repository.Scanner) (Process, error) {
	var p Process
	var trainingRaw []byte

	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.InputFileType,
		&p.OutputFileType,
		&trainingRaw,
		&p.ExampleInputKey,
		&p.ExampleOutputKey,
		&p.Rules,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		return p, err
	}

	if len(trainingRaw) > 0 {
		if err := json.Unmarshal(trainingRaw, &p.TrainingFiles); err != nil {
			return p, fmt.Errorf("unmarshal training_files: %w", err)
		}
	}

	if p.TrainingFiles == nil {
		p.TrainingFiles = []TrainingFile{}
	}

	return p, nil
}
