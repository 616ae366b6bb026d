package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeDeclaration marks a malformed or conflicting source tree declaration.
	ErrorTypeDeclaration ErrorType = "declaration"
	// ErrorTypeContent marks user data that could not be used (translations, JSON).
	ErrorTypeContent  ErrorType = "content"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeTypeMismatch      = "ERR_TYPE_MISMATCH"
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodeDuplicate         = "ERR_DUPLICATE"
	ErrCodeMissingFile       = "ERR_MISSING_FILE"
	ErrCodeInvalidName       = "ERR_INVALID_NAME"
	ErrCodeInvalidPriority   = "ERR_INVALID_PRIORITY"
	ErrCodeInvalidCondition  = "ERR_INVALID_CONDITION"
	ErrCodeInvalidFeature    = "ERR_INVALID_FEATURE"
	ErrCodeUnknownType       = "ERR_UNKNOWN_TYPE"
	ErrCodeInvalidDataSource = "ERR_INVALID_DATASOURCE"
	ErrCodeInvalidContent    = "ERR_INVALID_CONTENT"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeIO                = "ERR_IO"
	ErrCodeInternalError     = "ERR_INTERNAL"
)

// LinkerError is a structured error type with context.
type LinkerError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	// Path is the offending file or directory, project relative.
	Path string
	// Related lists other declarations involved in a conflict.
	Related []string
}

// Error implements the error interface.
func (e *LinkerError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if len(e.Related) > 0 {
		result += " (see also: " + strings.Join(e.Related, ", ") + ")"
	}

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *LinkerError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *LinkerError) Is(target error) bool {
	var t *LinkerError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath sets the offending location.
func (e *LinkerError) WithPath(path string) *LinkerError {
	e.Path = path

	return e
}

// WithRelated records other declarations involved in the error.
func (e *LinkerError) WithRelated(paths ...string) *LinkerError {
	e.Related = append(e.Related, paths...)

	return e
}

// WithCause attaches an underlying error.
func (e *LinkerError) WithCause(cause error) *LinkerError {
	e.Cause = cause

	return e
}

// NewDeclarationError creates an error about the declaration found at path.
func NewDeclarationError(code, message, path string) *LinkerError {
	return &LinkerError{
		Type:    ErrorTypeDeclaration,
		Code:    code,
		Message: message,
		Path:    path,
	}
}

// NewContentWarning creates a non fatal error about user content.
func NewContentWarning(message, path string) *LinkerError {
	return &LinkerError{
		Type:    ErrorTypeContent,
		Code:    ErrCodeInvalidContent,
		Message: message,
		Path:    path,
	}
}

// NewIOError creates an I/O error.
func NewIOError(message, path string, cause error) *LinkerError {
	return &LinkerError{
		Type:    ErrorTypeIO,
		Code:    ErrCodeIO,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *LinkerError {
	return &LinkerError{
		Type:    ErrorTypeConfig,
		Code:    ErrCodeConfigInvalid,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(message string, cause error) *LinkerError {
	return &LinkerError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

// Helper functions for common errors

// ErrTypeMismatch reports two declarations of incompatible kinds.
func ErrTypeMismatch(message, path string, related ...string) *LinkerError {
	return NewDeclarationError(ErrCodeTypeMismatch, message, path).WithRelated(related...)
}

// ErrNotFound reports a reference to an undeclared registry key.
func ErrNotFound(key, fromPath string) *LinkerError {
	return NewDeclarationError(ErrCodeNotFound, "item not found: "+key, fromPath)
}

// ErrDuplicate reports a key declared twice without merge semantics.
func ErrDuplicate(key, path string, related ...string) *LinkerError {
	return NewDeclarationError(ErrCodeDuplicate, "item already declared: "+key, path).
		WithRelated(related...)
}

// IsDeclarationError checks if an error is a declaration error.
func IsDeclarationError(err error) bool {
	return hasType(err, ErrorTypeDeclaration)
}

// IsContentWarning checks if an error only concerns user content.
func IsContentWarning(err error) bool {
	return hasType(err, ErrorTypeContent)
}

// HasCode checks if err carries the given code.
func HasCode(err error, code string) bool {
	var le *LinkerError
	if errors.As(err, &le) {
		return le.Code == code
	}

	return false
}

func hasType(err error, errorType ErrorType) bool {
	var le *LinkerError
	if errors.As(err, &le) {
		return le.Type == errorType
	}

	return false
}
