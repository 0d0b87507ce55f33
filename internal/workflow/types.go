package workflow

import "time"

// State bag keys shared across workflow graphs.
const (
	KeyGenerateRequest = "generate_request"
	KeyExecuteRequest  = "execute_request"
	KeyImproveRequest  = "improve_request"
	KeyTrainingContent = "training_content"
	KeyInputContent    = "input_content"
	KeyRules           = "rules"
	KeyOutput          = "output"
)

// Progress stage names reported to ProgressFunc observers.
const (
	ProgressValidating   = "validating"
	ProgressGathering    = "gathering"
	ProgressTransforming = "transforming"
	ProgressDelivering   = "delivering"
	ProgressComplete     = "complete"
)

// ProgressFunc receives coarse stage transitions during a workflow run.
// Implementations must be safe to call from the workflow goroutine.
type ProgressFunc func(stage string, percent int)

// TrainingFile pairs a display name with a content source. Source is either
// a blob storage key or an http(s) URL.
type TrainingFile struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// GenerateRequest carries the inputs for rule generation.
type GenerateRequest struct {
	Name          string
	Description   string
	InputFormat   string
	OutputFormat  string
	TrainingFiles []TrainingFile
	OnProgress    ProgressFunc
}

// GenerateResult is the output of a rule generation workflow.
type GenerateResult struct {
	Rules       string    `json:"rules"`
	CompletedAt time.Time `json:"completed_at"`
}

// ExecuteRequest carries the inputs for executing process rules against
// a single input file. InputSource is a blob storage key or http(s) URL;
// OutputKey is the blob storage key the output is delivered to.
type ExecuteRequest struct {
	ProcessName  string
	Rules        string
	InputFormat  string
	OutputFormat string
	InputSource  string
	OutputKey    string
	OnProgress   ProgressFunc
}

// ExecuteResult is the output of a rule execution workflow.
type ExecuteResult struct {
	Output      string    `json:"output"`
	OutputKey   string    `json:"output_key"`
	CompletedAt time.Time `json:"completed_at"`
}

// ImproveRequest carries the inputs for feedback-driven rule revision.
type ImproveRequest struct {
	Name         string
	Description  string
	InputFormat  string
	OutputFormat string
	CurrentRules string
	Feedback     string
	OnProgress   ProgressFunc
}

// ImproveResult is the output of a rule improvement workflow. Rules is the
// complete replacement rule set.
type ImproveResult struct {
	Rules       string    `json:"rules"`
	CompletedAt time.Time `json:"completed_at"`
}

func report(fn ProgressFunc, stage string, percent int) {
	if fn != nil {
		fn(stage, percent)
	}
}
