package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a categorized error type
type ErrorCode string

const (
	// Configuration errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"

	// Gateway errors
	ErrCodeAuthRequired        ErrorCode = "AUTH_REQUIRED"
	ErrCodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"

	// Local errors
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidLogin  ErrorCode = "INVALID_LOGIN"
	ErrCodeDatabase      ErrorCode = "DATABASE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// GatewayError is the closed error taxonomy returned by the forwarding
// operation and its callers. StatusCode is the HTTP status the boundary
// translates it to; for upstream rejections it equals the upstream's
// own status code.
type GatewayError struct {
	Code       ErrorCode `json:"code"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
	Cause      error     `json:"-"`
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// New creates a new GatewayError
func New(code ErrorCode, statusCode int, message string) *GatewayError {
	return &GatewayError{
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
	}
}

// Wrap wraps an existing error with a code and status
func Wrap(err error, code ErrorCode, statusCode int, message string) *GatewayError {
	return &GatewayError{
		Code:       code,
		StatusCode: statusCode,
		Message:    message,
		Cause:      err,
	}
}

// NewAuthRequired reports that an authenticated endpoint was called
// without a forwarded token and with no admin key configured.
func NewAuthRequired() *GatewayError {
	return New(ErrCodeAuthRequired, http.StatusUnauthorized, "Authentication required. Please login first.")
}

// NewUpstreamRejected surfaces a non-2xx upstream response. The raw
// upstream body is embedded in the message, never reinterpreted.
func NewUpstreamRejected(statusCode int, body string) *GatewayError {
	return New(ErrCodeUpstreamRejected, statusCode, fmt.Sprintf("WhatsApp service error: %s", body))
}

// NewUpstreamUnavailable surfaces a transport-level failure (connection
// refused, timeout, DNS failure, malformed response) as a 503.
func NewUpstreamUnavailable(err error) *GatewayError {
	return Wrap(err, ErrCodeUpstreamUnavailable, http.StatusServiceUnavailable,
		fmt.Sprintf("WhatsApp service unavailable: %v", err))
}

// StatusCode extracts the HTTP status for an error, defaulting to 500.
func StatusCode(err error) int {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Code
	}
	return ErrCodeInternalError
}

// Message extracts the caller-facing message from an error
func Message(err error) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return "An internal error occurred"
}
