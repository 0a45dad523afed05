// Package errs defines the error taxonomy shared across the runtime:
// agent loop, workflow executor, tool dispatch, and retrieval.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a runtime failure so callers can decide how to react
// (retry, surface to the model as an observation, or terminate the run).
type Kind string

const (
	LLMError        Kind = "LLM_ERROR"
	ToolError       Kind = "TOOL_ERROR"
	ValidationError Kind = "VALIDATION_ERROR"
	Aborted         Kind = "ABORTED"
	Timeout         Kind = "TIMEOUT"
	ConfigError     Kind = "CONFIG_ERROR"
	RetrievalError  Kind = "RETRIEVAL_ERROR"
	GuardrailBlock  Kind = "GUARDRAIL_BLOCK"
	Unknown         Kind = "UNKNOWN"
)

// Error wraps an underlying error with a Kind and optional context fields.
type Error struct {
	Kind   Kind
	Op     string // operation that failed, e.g. tool name or node name
	Err    error
	Fields map[string]any
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind and an operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf wraps a formatted error with kind and an operation label.
func Wrapf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, defaulting to Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
