package posthog

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a category of error for metrics and logging.
type ErrorCode string

// Error codes for categorization.
const (
	ErrCodeConfig     ErrorCode = "CONFIG"     // Configuration errors
	ErrCodeValidation ErrorCode = "VALIDATION" // Event validation errors
	ErrCodeNetwork    ErrorCode = "NETWORK"    // Network/connection errors
	ErrCodeAPI        ErrorCode = "API"        // API response errors
	ErrCodeAuth       ErrorCode = "AUTH"       // Authentication errors
	ErrCodeRateLimit  ErrorCode = "RATE_LIMIT" // Rate limiting errors
	ErrCodeShutdown   ErrorCode = "SHUTDOWN"   // Shutdown-related errors
)

// PostHogError is the common interface for SDK errors that carry a category.
//
//	var phErr posthog.PostHogError
//	if errors.As(err, &phErr) && phErr.IsRetryable() {
//	    // try again later
//	}
type PostHogError interface {
	error

	// Code returns a machine-readable error code for categorization.
	Code() ErrorCode

	// IsRetryable returns true if the operation can be retried.
	IsRetryable() bool
}

// Sentinel errors.
var (
	ErrMissingAPIKey  = errors.New("posthog: api key is required")
	ErrMissingAPIHost = errors.New("posthog: api host is required")
	ErrClientClosed   = errors.New("posthog: client is closed")
	ErrEmptyEvent     = errors.New("posthog: event name is required")
	ErrNilConfig      = errors.New("posthog: config cannot be nil")
)

// Sentinel APIError values for use with errors.Is().
// These match on status code only.
var (
	ErrUnauthorized = &APIError{StatusCode: 401}
	ErrRateLimited  = &APIError{StatusCode: 429}
)

// IsRetryable returns true if the error represents a retryable condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var phErr PostHogError
	if errors.As(err, &phErr) {
		return phErr.IsRetryable()
	}

	return false
}

// AsAPIError extracts an APIError from the error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// APIError represents an error response from the PostHog API.
type APIError struct {
	StatusCode int           `json:"-"`
	Type       string        `json:"type"`
	ErrCode    string        `json:"code"`
	Detail     string        `json:"detail"`
	Message    string        `json:"error"`
	RetryAfter time.Duration `json:"-"`
	Err        error         `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if msg != "" {
		return fmt.Sprintf("posthog: API error (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("posthog: API error (status %d)", e.StatusCode)
}

// Unwrap returns the underlying error for error chain support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches on status code, allowing comparisons like:
//
//	if errors.Is(err, posthog.ErrRateLimited) { ... }
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// IsRateLimited returns true if the error is a 429 Too Many Requests error.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true if the error is a 5xx server error.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// Code implements PostHogError.
func (e *APIError) Code() ErrorCode {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return ErrCodeAuth
	case e.IsRateLimited():
		return ErrCodeRateLimit
	default:
		return ErrCodeAPI
	}
}

var _ PostHogError = (*APIError)(nil)

// NetworkError wraps a transport failure. It is always retryable.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("posthog: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Code implements PostHogError.
func (e *NetworkError) Code() ErrorCode {
	return ErrCodeNetwork
}

// IsRetryable implements PostHogError.
func (e *NetworkError) IsRetryable() bool {
	return true
}

var _ PostHogError = (*NetworkError)(nil)

// ValidationError represents a rejected event or option.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("posthog: validation error for field %q: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Code implements PostHogError.
func (e *ValidationError) Code() ErrorCode {
	return ErrCodeValidation
}

// IsRetryable returns false; validation errors should be fixed, not retried.
func (e *ValidationError) IsRetryable() bool {
	return false
}

var _ PostHogError = (*ValidationError)(nil)

// ShutdownError is returned when Shutdown could not drain every event in time.
type ShutdownError struct {
	Cause         error
	PendingEvents int
	Message       string
}

// Error implements the error interface.
func (e *ShutdownError) Error() string {
	return fmt.Sprintf("posthog: shutdown: %s (%d events may be lost): %v", e.Message, e.PendingEvents, e.Cause)
}

// Unwrap returns the cause.
func (e *ShutdownError) Unwrap() error {
	return e.Cause
}

// Code implements PostHogError.
func (e *ShutdownError) Code() ErrorCode {
	return ErrCodeShutdown
}

// IsRetryable implements PostHogError.
func (e *ShutdownError) IsRetryable() bool {
	return false
}

var _ PostHogError = (*ShutdownError)(nil)
