package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/refinelab/refinery/internal/prompts"
)

// ComposePrompt builds a model prompt by combining tunable instructions,
// the immutable output specification, and the stage-specific task body.
func ComposePrompt(
	ctx context.Context,
	ps prompts.System,
	stage prompts.Stage,
	body string,
) (string, error) {
	instructions, err := ps.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := ps.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	sb.WriteString("\n\n")
	sb.WriteString(body)

	return sb.String(), nil
}

func generateBody(req GenerateRequest, trainingContent string) string {
	var sb strings.Builder

	sb.WriteString("Create detailed automation rules for the following process:\n\n")
	fmt.Fprintf(&sb, "Process Name: %s\n", req.Name)
	fmt.Fprintf(&sb, "Description: %s\n", req.Description)
	fmt.Fprintf(&sb, "Input Format: %s\n", req.InputFormat)
	fmt.Fprintf(&sb, "Output Format: %s\n", req.OutputFormat)
	sb.WriteString("\nHere is the content of the training materials:\n")
	sb.WriteString(trainingContent)
	fmt.Fprintf(
		&sb,
		"\nThe rules must be detailed enough that an automated system can follow them to process %s files and generate %s outputs.\n",
		req.InputFormat, req.OutputFormat,
	)

	return sb.String()
}

func trainingSection(name, content string) string {
	return fmt.Sprintf(
		"\n\n--- Training File: %s ---\n%s\n--- End of Training File: %s ---",
		name, content, name,
	)
}

func executeBody(req ExecuteRequest, input string) string {
	var sb strings.Builder

	sb.WriteString("Execute the following process rules on the provided input data:\n\n")
	fmt.Fprintf(&sb, "Process: %s\n", req.ProcessName)
	fmt.Fprintf(&sb, "Rules: %s\n\n", req.Rules)
	fmt.Fprintf(&sb, "Input file format: %s\n", req.InputFormat)
	fmt.Fprintf(&sb, "Expected output format: %s\n\n", req.OutputFormat)
	sb.WriteString("--- INPUT DATA ---\n")
	sb.WriteString(input)
	sb.WriteString("\n--- END OF INPUT DATA ---\n\n")
	fmt.Fprintf(
		&sb,
		"Process the input data according to the rules and return only the processed output content, properly formatted as %s.\n",
		req.OutputFormat,
	)

	return sb.String()
}

func improveBody(req ImproveRequest) string {
	var sb strings.Builder

	sb.WriteString("Improve the following process rules based on the user feedback:\n\n")
	sb.WriteString("Current Rules:\n")
	sb.WriteString(req.CurrentRules)
	sb.WriteString("\n\nUser Feedback:\n")
	sb.WriteString(req.Feedback)
	sb.WriteString("\n\nModify the rules to address the feedback and return the complete updated rule set.\n\n")
	sb.WriteString("Process Context:\n")
	fmt.Fprintf(&sb, "- Name: %s\n", req.Name)
	fmt.Fprintf(&sb, "- Input: %s\n", req.InputFormat)
	fmt.Fprintf(&sb, "- Output: %s\n", req.OutputFormat)
	fmt.Fprintf(&sb, "- Description: %s\n", req.Description)

	return sb.String()
}
