package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the engine and its collaborators. Validation
// failures are final; external service and schema violations are retryable at
// the call site.

// ValidationError reports malformed or unsupported input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExternalServiceError wraps a failed LLM or vector-search call.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// SchemaViolationError reports structured model output that does not match
// the expected shape. The raw output is kept for diagnostics; it is never
// coerced into a default value.
type SchemaViolationError struct {
	Raw string
	Err error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("structured output violates schema: %v", e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

// Retryable reports whether the error is worth retrying with backoff.
func Retryable(err error) bool {
	var ext *ExternalServiceError
	var schema *SchemaViolationError
	return errors.As(err, &ext) || errors.As(err, &schema)
}
