package prompts

const generateSpec = `Respond with the complete rule set as plain text.

Output constraints:
- Organize the rules under five numbered sections: input validation steps,
  processing logic, output formatting requirements, error handling
  procedures, and quality checks.
- Write each rule as an imperative step that an automated system can
  follow without human judgment.
- Reference concrete patterns from the training materials (column names,
  field structures, value formats) rather than generic advice.
- Do not wrap the response in markdown code fencing.
- Do not include any preamble or closing commentary; the response body is
  stored verbatim as the process rules.`

const executeSpec = `Respond with only the processed output content.

Output constraints:
- The response must be valid content in the process's declared output
  format (csv, txt, or json), ready to be written to a file as-is.
- Do not wrap the response in markdown code fencing.
- Do not include explanations, summaries, or any text that is not part
  of the output data.
- If the rules define error handling for malformed input rows or fields,
  apply it as written rather than halting or describing the problem.`

const improveSpec = `Respond with the complete updated rule set as plain text.

Output constraints:
- Return the full rule set, not a diff or a description of changes; the
  response replaces the current rules entirely.
- Preserve the five-section structure of the existing rules (input
  validation, processing logic, output formatting, error handling,
  quality checks) unless the feedback explicitly asks to restructure.
- Do not wrap the response in markdown code fencing.
- Do not include any preamble or closing commentary.`

var specs = map[Stage]string{
	StageGenerate: generateSpec,
	StageExecute:  executeSpec,
	StageImprove:  improveSpec,
}

// Spec returns the hardcoded specification for a workflow stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
