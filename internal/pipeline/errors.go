package pipeline

import (
	"fmt"
	"strings"

	"github.com/atharvmunot004/kalanaya/internal/schema"
)

// LowConfidenceError means the classifier was not sure enough to act.
// The caller should ask the user to rephrase, not treat this as a crash.
type LowConfidenceError struct {
	Intent    schema.Intent
	Threshold float64
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("intent %s confidence %.2f below threshold %.2f",
		e.Intent.Action, e.Intent.Confidence, e.Threshold)
}

// ValidationError carries every rule the extracted fields violated.
type ValidationError struct {
	Action schema.Action
	Errors []schema.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return fmt.Sprintf("%s validation failed: %s", e.Action, strings.Join(parts, "; "))
}
