package processes_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/refinelab/refinery/internal/processes"
	"github.com/refinelab/refinery/internal/workflow"
)

func TestParseFileType(t *testing.T) {
	t.Run("valid types", func(t *testing.T) {
		for _, input := range []string{"csv", "txt", "json"} {
			ft, err := processes.ParseFileType(input)
			if err != nil {
				t.Errorf("ParseFileType(%q) error = %v", input, err)
			}
			if string(ft) != input {
				t.Errorf("ParseFileType(%q) = %q", input, ft)
			}
		}
	})

	t.Run("invalid type", func(t *testing.T) {
		if _, err := processes.ParseFileType("xml"); !errors.Is(err, processes.ErrInvalidFileType) {
			t.Errorf("ParseFileType(xml) error = %v, want ErrInvalidFileType", err)
		}
	})
}

func TestFileTypeUnmarshalJSON(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var ft processes.FileType
		if err := json.Unmarshal([]byte(`"csv"`), &ft); err != nil {
			t.Fatalf("Unmarshal error = %v", err)
		}
		if ft != processes.FileTypeCSV {
			t.Errorf("file type = %q, want csv", ft)
		}
	})

	t.Run("unsupported format rejected", func(t *testing.T) {
		var ft processes.FileType
		err := json.Unmarshal([]byte(`"pdf"`), &ft)
		if !errors.Is(err, processes.ErrInvalidFileType) {
			t.Errorf("Unmarshal error = %v, want ErrInvalidFileType", err)
		}
	})
}

func TestStatusForRules(t *testing.T) {
	if got := processes.StatusForRules(""); got != processes.StatusDraft {
		t.Errorf("StatusForRules(\"\") = %q, want draft", got)
	}
	if got := processes.StatusForRules("1. Validate headers."); got != processes.StatusReady {
		t.Errorf("StatusForRules(rules) = %q, want ready", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", processes.ErrNotFound, http.StatusNotFound},
		{"duplicate", processes.ErrDuplicate, http.StatusConflict},
		{"invalid file type", processes.ErrInvalidFileType, http.StatusBadRequest},
		{"workflow validation", workflow.ErrValidation, http.StatusBadRequest},
		{"workflow fetch", workflow.ErrFetch, http.StatusUnprocessableEntity},
		{"workflow transform", workflow.ErrTransform, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := processes.MapHTTPStatus(tt.err); got != tt.expected {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}
