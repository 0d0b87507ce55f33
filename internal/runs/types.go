package runs

import (
	"encoding/json"
	"slices"
)

// Status represents the lifecycle state of a process run.
type Status string

// Run statuses. Completed and failed are terminal.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var statuses = []Status{
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

// Statuses returns the list of valid run statuses.
func Statuses() []Status {
	return statuses
}

// UnmarshalJSON validates that the decoded string is a known status value.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Status(raw)
	if !slices.Contains(statuses, v) {
		return ErrInvalidStatus
	}
	*s = v
	return nil
}
