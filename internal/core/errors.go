package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatSetup      ErrorCategory = "setup"      // Tool discovery or environment preparation failed
	ErrCatArtifact   ErrorCategory = "artifact"   // Dump production failed
	ErrCatDebugger   ErrorCategory = "debugger"   // Debugger invocation failed
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the harness.
type DomainError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrSetup creates a setup error. Setup errors abort the run before any
// scenario executes.
func ErrSetup(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatSetup,
		Code:     code,
		Message:  message,
	}
}

// ErrArtifact creates an artifact-production error.
func ErrArtifact(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatArtifact,
		Code:     code,
		Message:  message,
	}
}

// ErrDebugger creates a debugger-invocation error.
func ErrDebugger(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatDebugger,
		Code:     code,
		Message:  message,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatTimeout,
		Code:     code,
		Message:  message,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category: ErrCatValidation,
		Code:     code,
		Message:  message,
	}
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeCdbNotFound          = "CDB_NOT_FOUND"
	CodeDatabaseInitFailed   = "DATABASE_INIT_FAILED"
	CodeNoArtifactFound      = "NO_ARTIFACT_FOUND"
	CodeReadinessTimeout     = "READINESS_TIMEOUT"
	CodeToolInvocationFailed = "TOOL_INVOCATION_FAILED"
	CodeSpawnFailed          = "SPAWN_FAILED"
	CodeInvalidConfig        = "INVALID_CONFIG"
	CodeMissingBinDir        = "MISSING_BIN_DIR"
	CodePreflightFailed      = "PREFLIGHT_FAILED"
)
