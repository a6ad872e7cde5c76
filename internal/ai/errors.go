package ai

import "fmt"

// GenerationError indicates the completion service returned output that
// could not be validated as a plan, after structured-output retries
// were exhausted.
type GenerationError struct {
	Op  string // which generation call failed (outline, subtopic name)
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("plan generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// FormattingError indicates the formatter's response did not preserve
// the structure of its input. The run must treat this as fatal; the
// formatter never truncates or pads to force a fit.
type FormattingError struct {
	Reason string
	Err    error
}

func (e *FormattingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("markdown formatting failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("markdown formatting failed: %s", e.Reason)
}

func (e *FormattingError) Unwrap() error { return e.Err }
