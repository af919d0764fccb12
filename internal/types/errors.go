package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for teakb errors.
type ErrorCode string

// Initialization error codes
const (
	ErrCodeInitGraphFailed ErrorCode = "INIT_GRAPH_FAILED"
	ErrCodeInitLLMFailed   ErrorCode = "INIT_LLM_FAILED"
)

// KBError represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type KBError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *KBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *KBError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *KBError) Is(target error) bool {
	var kbErr *KBError
	if errors.As(target, &kbErr) {
		return e.Code == kbErr.Code
	}
	return false
}

// NewError creates a new non-retryable KBError with the given code and message.
func NewError(code ErrorCode, message string) *KBError {
	return &KBError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable KBError with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., lock contention).
func NewRetryableError(code ErrorCode, message string) *KBError {
	return &KBError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable KBError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *KBError {
	return &KBError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a retryable KBError that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *KBError {
	return &KBError{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err carries a retryable KBError anywhere in its chain.
func IsRetryable(err error) bool {
	var kbErr *KBError
	if errors.As(err, &kbErr) {
		return kbErr.Retryable
	}
	return false
}

// CodeOf returns the error code of err, or the empty code if err is not a KBError.
func CodeOf(err error) ErrorCode {
	var kbErr *KBError
	if errors.As(err, &kbErr) {
		return kbErr.Code
	}
	return ""
}
