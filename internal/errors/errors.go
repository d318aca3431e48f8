// Package errors provides structured error types for the maintenance backend.
// All errors include a category, code and message so the HTTP layer can map
// them to a status code without inspecting strings.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by how a caller should react to them.
type ErrorCategory string

const (
	ErrCategoryValidation  ErrorCategory = "VALIDATION"
	ErrCategoryNotFound    ErrorCategory = "NOT_FOUND"
	ErrCategoryConflict    ErrorCategory = "CONFLICT"
	ErrCategoryTooLarge    ErrorCategory = "TOO_LARGE"
	ErrCategoryDatabase    ErrorCategory = "DATABASE"
	ErrCategoryUnavailable ErrorCategory = "UNAVAILABLE"
	ErrCategoryInternal    ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeRequiredField    = "REQUIRED_FIELD"
	CodeUnknownField     = "UNKNOWN_FIELD"
	CodePlanEmpty        = "PLAN_EMPTY"
	CodeInvalidBody      = "INVALID_BODY"
	CodeInvalidID        = "INVALID_ID"

	// Too large codes
	CodeBodyTooLarge = "BODY_TOO_LARGE"

	// Not found codes
	CodeNotFound = "NOT_FOUND"

	// Conflict codes
	CodeDuplicateID = "DUPLICATE_ID"

	// Database codes
	CodeQueryFailed   = "QUERY_FAILED"
	CodeDBUnavailable = "DB_UNAVAILABLE"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// FieldIssue describes a problem with one field of a request payload.
type FieldIssue struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Error is the structured error type used throughout the system.
type Error struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  string
	Fields   []FieldIssue
	Cause    error
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new Error.
func New(category ErrorCategory, code, message string) *Error {
	return &Error{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new Error wrapping an existing error. The cause's message
// becomes the error details.
func Wrap(category ErrorCategory, code, message string, cause error) *Error {
	e := &Error{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// WithFields returns a copy of the error carrying per-field issues.
func (e *Error) WithFields(fields []FieldIssue) *Error {
	cp := *e
	cp.Fields = fields
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not an *Error.
func GetCategory(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not an *Error.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsClientError reports whether err should be answered with a 4xx status.
func IsClientError(err error) bool {
	switch GetCategory(err) {
	case ErrCategoryValidation, ErrCategoryNotFound, ErrCategoryConflict, ErrCategoryTooLarge:
		return true
	}
	return false
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *Error {
	return New(ErrCategoryValidation, code, message)
}

// NewNotFoundError builds the "<Entity> not found" error.
func NewNotFoundError(entity string) *Error {
	return New(ErrCategoryNotFound, CodeNotFound, entity+" not found")
}

func NewConflictError(code, message string) *Error {
	return New(ErrCategoryConflict, code, message)
}

// NewTooLargeError reports a request body over limit bytes.
func NewTooLargeError(limit int64) *Error {
	return New(ErrCategoryTooLarge, CodeBodyTooLarge,
		fmt.Sprintf("Request body exceeds maximum size of %d bytes", limit))
}

func NewDatabaseError(message string, cause error) *Error {
	return Wrap(ErrCategoryDatabase, CodeQueryFailed, message, cause)
}

func NewUnavailableError(message string) *Error {
	return New(ErrCategoryUnavailable, CodeDBUnavailable, message)
}

func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
