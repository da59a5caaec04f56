// Package errors defines the stable error taxonomy emitted by the query engine.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies engine failures. The set is closed: callers map each code
// to a user-facing message.
type Code string

const (
	// CodeValidation is malformed input, detected before any I/O.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeAuth is missing or rejected ERP credentials.
	CodeAuth Code = "AUTH_ERROR"

	// CodeConnection is a network-level failure after retries were exhausted.
	CodeConnection Code = "CONNECTION_ERROR"

	// CodeAPI is an HTTP or business-logic error returned by the ERP.
	CodeAPI Code = "API_ERROR"

	// CodeReadOnlyViolation is an attempt to dispatch a mutating ERP method.
	CodeReadOnlyViolation Code = "READ_ONLY_VIOLATION"

	// CodeUnknownSkill is a skill name missing from the registry.
	CodeUnknownSkill Code = "UNKNOWN_SKILL"
)

// Codes lists every code the engine can emit.
func Codes() []Code {
	return []Code{
		CodeValidation,
		CodeAuth,
		CodeConnection,
		CodeAPI,
		CodeReadOnlyViolation,
		CodeUnknownSkill,
	}
}

// QueryError is a typed engine error carrying diagnostic context.
// It can be unwrapped with errors.As.
type QueryError struct {
	Code      Code
	Message   string
	Err       error
	Context   map[string]any
	Retryable bool
}

// New creates a QueryError with the given code, message and cause.
func New(code Code, msg string, cause error) *QueryError {
	return &QueryError{
		Code:    code,
		Message: msg,
		Err:     cause,
		Context: make(map[string]any),
	}
}

// Newf creates a QueryError without a cause using a format string.
func Newf(code Code, format string, args ...any) *QueryError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// WithContext adds a key-value pair to the error context.
func (e *QueryError) WithContext(key string, value any) *QueryError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRetryable marks whether the transport may retry the failed call.
func (e *QueryError) WithRetryable(retryable bool) *QueryError {
	e.Retryable = retryable
	return e
}

// As returns the first QueryError in err's chain.
func As(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// CodeOf returns the code of the first QueryError in err's chain, or
// CodeAPI for any other non-nil error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if qe, ok := As(err); ok {
		return qe.Code
	}
	return CodeAPI
}

// Normalize converts any error into a QueryError. Foreign errors are wrapped
// as CodeAPI.
func Normalize(err error) *QueryError {
	if err == nil {
		return nil
	}
	if qe, ok := As(err); ok {
		return qe
	}
	return New(CodeAPI, "unexpected error", err)
}

// IsRetryable reports whether err is a QueryError marked retryable.
func IsRetryable(err error) bool {
	qe, ok := As(err)
	return ok && qe.Retryable
}
