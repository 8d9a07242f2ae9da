// Package errors provides structured error types for the key definition
// exchange. All errors include a category, code, message, and retryable flag
// for consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryEncoding   ErrorCategory = "ENCODING"
	ErrCategoryTransport  ErrorCategory = "TRANSPORT"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidSchema   = "INVALID_SCHEMA"
	CodeUnknownColumn   = "UNKNOWN_COLUMN"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeKeyTypeMismatch = "KEY_TYPE_MISMATCH"
	CodeKeyCount        = "KEY_COUNT_MISMATCH"

	// Encoding codes
	CodeTruncatedInput   = "TRUNCATED_INPUT"
	CodeTrailingBytes    = "TRAILING_BYTES"
	CodeUnknownSortOrder = "UNKNOWN_SORT_ORDER"
	CodeOrderUnset       = "ORDER_UNSET"
	CodeMalformedFrame   = "MALFORMED_FRAME"

	// Transport codes
	CodeUnavailable   = "UNAVAILABLE"
	CodeIndexNotFound = "INDEX_NOT_FOUND"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// ArkilianError is the structured error type used throughout the system.
type ArkilianError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *ArkilianError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ArkilianError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *ArkilianError) Is(target error) bool {
	var t *ArkilianError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new ArkilianError.
func New(category ErrorCategory, code, message string) *ArkilianError {
	return &ArkilianError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new ArkilianError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *ArkilianError {
	return &ArkilianError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *ArkilianError) WithDetails(details map[string]interface{}) *ArkilianError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var ae *ArkilianError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not an ArkilianError.
func GetCategory(err error) ErrorCategory {
	var ae *ArkilianError
	if errors.As(err, &ae) {
		return ae.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not an ArkilianError.
func GetCode(err error) string {
	var ae *ArkilianError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsEncoding reports whether err is a wire format error.
func IsEncoding(err error) bool {
	return GetCategory(err) == ErrCategoryEncoding
}

// isRetryable decides retryability per category and code. Format and
// validation errors are deterministic, so only transport failures retry.
func isRetryable(category ErrorCategory, code string) bool {
	return category == ErrCategoryTransport && code == CodeUnavailable
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *ArkilianError {
	return New(ErrCategoryValidation, code, message)
}

func NewEncodingError(code, message string) *ArkilianError {
	return New(ErrCategoryEncoding, code, message)
}

func WrapEncodingError(code, message string, cause error) *ArkilianError {
	return Wrap(ErrCategoryEncoding, code, message, cause)
}

func NewTransportError(code, message string, cause error) *ArkilianError {
	return Wrap(ErrCategoryTransport, code, message, cause)
}

func NewInternalError(message string, cause error) *ArkilianError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
