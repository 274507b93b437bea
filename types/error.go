package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the gateway.
type ErrorCode string

// Session and registry error codes
const (
	ErrInvalidSecret  ErrorCode = "INVALID_SECRET"
	ErrMissingSecret  ErrorCode = "MISSING_SECRET"
	ErrUnknownSession ErrorCode = "UNKNOWN_SESSION"
	ErrSessionClosed  ErrorCode = "SESSION_CLOSED"
)

// Protocol and quota error codes
const (
	ErrMalformedEvent    ErrorCode = "MALFORMED_EVENT"
	ErrRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrInvalidAudioFrame ErrorCode = "INVALID_AUDIO_FRAME"
)

// Function-call error codes
const (
	ErrFunctionNotFound ErrorCode = "FUNCTION_NOT_FOUND"
	ErrMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrUnknownParameter ErrorCode = "UNKNOWN_PARAMETER"
)

// Downstream collaborator error codes
const (
	ErrDownstreamTimeout ErrorCode = "DOWNSTREAM_TIMEOUT"
	ErrDownstreamFailure ErrorCode = "DOWNSTREAM_FAILURE"
)

// Internal error codes
const (
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Param      string    `json:"param,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithParam names the offending field or parameter.
func (e *Error) WithParam(param string) *Error {
	e.Param = param
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WrapError wraps err into an *Error with the given code and message.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Cause: err}
}

// AsError extracts an *Error from err's chain, if present.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if e, ok := AsError(err); ok {
		return e.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// NewInvalidSecretError returns the canonical invalid-secret error.
// Unknown, expired, and already-redeemed secrets are deliberately
// indistinguishable to the caller.
func NewInvalidSecretError() *Error {
	return &Error{
		Code:       ErrInvalidSecret,
		Message:    "invalid client secret",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewUnknownSessionError returns an error for an unknown session id.
func NewUnknownSessionError(sessionID string) *Error {
	return &Error{
		Code:       ErrUnknownSession,
		Message:    fmt.Sprintf("unknown session: %s", sessionID),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewRateLimitError returns a quota-exceeded error with reset metadata.
func NewRateLimitError(resetSeconds float64) *Error {
	return &Error{
		Code:       ErrRateLimitExceeded,
		Message:    fmt.Sprintf("rate limit exceeded, resets in %.0fs", resetSeconds),
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

// NewMalformedEventError returns a protocol shape-validation error.
func NewMalformedEventError(param, message string) *Error {
	return &Error{
		Code:       ErrMalformedEvent,
		Message:    message,
		Param:      param,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidAudioFrameError returns an audio frame validation error.
func NewInvalidAudioFrameError(message string) *Error {
	return &Error{
		Code:       ErrInvalidAudioFrame,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}
