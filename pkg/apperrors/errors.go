// Package apperrors defines the error taxonomy shared by the model
// builder and its tool surface. Every failing precondition check
// returns one of these typed errors rather than proceeding with
// partial state.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing required input:
// a bad project name, missing table specs or samples, an unknown
// model type string, and so on.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidation creates a ValidationError with a formatted reason.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// SessionError reports an operation attempted with no active session.
type SessionError struct {
	Reason string
}

func (e *SessionError) Error() string {
	return e.Reason
}

// NewSession creates a SessionError with a formatted reason.
func NewSession(format string, args ...any) *SessionError {
	return &SessionError{Reason: fmt.Sprintf(format, args...)}
}

// WorkflowError reports an operation attempted out of the required
// state order: build without a model type, approve without a build,
// revert to a future stage, export without an approved stage.
type WorkflowError struct {
	Reason string
}

func (e *WorkflowError) Error() string {
	return e.Reason
}

// NewWorkflow creates a WorkflowError with a formatted reason.
func NewWorkflow(format string, args ...any) *WorkflowError {
	return &WorkflowError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSession reports whether err is (or wraps) a SessionError.
func IsSession(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}

// IsWorkflow reports whether err is (or wraps) a WorkflowError.
func IsWorkflow(err error) bool {
	var we *WorkflowError
	return errors.As(err, &we)
}
