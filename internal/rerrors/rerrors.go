// Package rerrors is the engine's domain error taxonomy, grounded on
// pramudityad/golang-reconciliation-service's pkg/errors
// (errors.ValidationError/.ReconciliationError + .WithSuggestion
// chaining). It covers spec.md §7's "Configuration error" category: the
// one case where the engine refuses to run at all, as opposed to the
// field-level parse misses that the engine absorbs silently.
package rerrors

import "fmt"

// Code classifies the failure.
type Code string

const (
	CodeMissingField   Code = "MISSING_FIELD"
	CodeInvalidValue   Code = "INVALID_VALUE"
	CodeProcessingError Code = "PROCESSING_ERROR"
)

// Category distinguishes a bad caller input from a failure mid-run.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryReconciliation Category = "reconciliation"
)

// Error is the engine's structured error type.
type Error struct {
	Category   Category
	Code       Code
	Field      string
	Value      interface{}
	Cause      error
	Suggestion string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Category, e.Code)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// WithSuggestion attaches actionable guidance for the caller and returns
// the same error for chaining.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// ValidationError reports a bad or missing caller input (a Settings
// field, a required column) discovered before any matching runs.
func ValidationError(code Code, field string, value interface{}, cause error) *Error {
	return &Error{Category: CategoryValidation, Code: code, Field: field, Value: value, Cause: cause}
}

// ReconciliationError reports a failure encountered while a phase was
// running, wrapping the underlying cause.
func ReconciliationError(code Code, field string, cause error) *Error {
	return &Error{Category: CategoryReconciliation, Code: code, Field: field, Cause: cause}
}
