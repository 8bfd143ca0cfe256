package errors

import (
	"fmt"
)

// Error is the structured error type for codescope.
// It provides the context needed for logging, classification, and user
// presentation without leaking internal state into user-facing messages.
type Error struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_QUERY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, Retrieval, etc.).
	Category Category

	// Details contains additional context as key-value pairs
	// (which call, which backend) for operational triage.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, enabling errors.Is() with sentinel values.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// The category is derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// Returns nil when err is nil.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Validation creates a validation error. Validation errors are local,
// never retried, and returned immediately to the caller.
func Validation(message string) *Error {
	return New(ErrCodeInvalidQuery, message, nil)
}

// Retrieval creates a retrieval error wrapping an external dependency
// failure. The user-visible message stays generic; the cause carries detail.
func Retrieval(call string, cause error) *Error {
	e := New(ErrCodeRetrievalFailed, "search temporarily unavailable", cause)
	return e.WithDetail("call", call)
}

// Embedding creates an embedding provider error.
func Embedding(cause error) *Error {
	return New(ErrCodeEmbeddingFailed, "embedding provider failure", cause)
}

// Index creates a vector index error.
func Index(cause error) *Error {
	return New(ErrCodeIndexFailed, "vector index failure", cause)
}

// Cache creates a cache backend error. Cache errors are logged and
// treated as a miss; they must never propagate to callers.
func Cache(op string, cause error) *Error {
	e := New(ErrCodeCacheUnavailable, "cache backend failure", cause)
	return e.WithDetail("op", op)
}

// Indexing creates an indexing pipeline error.
func Indexing(message string, cause error) *Error {
	return New(ErrCodeIndexingFailed, message, cause)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return GetCategory(err) == CategoryValidation
}

// IsRetrieval reports whether err is an external retrieval failure.
func IsRetrieval(err error) bool {
	return GetCategory(err) == CategoryRetrieval
}

// GetCode extracts the error code from an Error.
// Returns empty string if err is not an Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetCategory extracts the category from an Error.
// Returns empty string if err is not an Error.
func GetCategory(err error) Category {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ""
}
