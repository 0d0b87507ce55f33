package processes

import (
	"encoding/json"
	"slices"
)

// FileType represents a supported process file format.
type FileType string

// Supported file formats.
const (
	FileTypeCSV  FileType = "csv"
	FileTypeTXT  FileType = "txt"
	FileTypeJSON FileType = "json"
)

var fileTypes = []FileType{
	FileTypeCSV,
	FileTypeTXT,
	FileTypeJSON,
}

// FileTypes returns the list of supported file formats.
func FileTypes() []FileType {
	return fileTypes
}

// UnmarshalJSON validates that the decoded string is a supported file format.
func (t *FileType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := FileType(raw)
	if !slices.Contains(fileTypes, v) {
		return ErrInvalidFileType
	}
	*t = v
	return nil
}

// ParseFileType validates a string as a supported file format.
// Returns ErrInvalidFileType if the value is not recognized.
func ParseFileType(s string) (FileType, error) {
	v := FileType(s)
	if !slices.Contains(fileTypes, v) {
		return "", ErrInvalidFileType
	}
	return v, nil
}

// Status represents the lifecycle state of a process definition.
type Status string

// Process statuses. A process is draft until it has a rule set.
const (
	StatusDraft Status = "draft"
	StatusReady Status = "ready"
)

// StatusForRules derives the process status from its rule set.
func StatusForRules(rules string) Status {
	if rules == "" {
		return StatusDraft
	}
	return StatusReady
}
