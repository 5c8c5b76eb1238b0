package posthog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{"detail", &APIError{StatusCode: 400, Detail: "invalid payload"}, "posthog: API error (status 400): invalid payload"},
		{"message fallback", &APIError{StatusCode: 500, Message: "boom"}, "posthog: API error (status 500): boom"},
		{"status only", &APIError{StatusCode: 502}, "posthog: API error (status 502)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	wrapped := fmt.Errorf("send batch: %w", &APIError{StatusCode: 401, Detail: "bad key"})

	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Error("expected match on status 401")
	}
	if errors.Is(wrapped, ErrRateLimited) {
		t.Error("401 should not match ErrRateLimited")
	}
	if (&APIError{StatusCode: 401}).Is(io.EOF) {
		t.Error("non-APIError targets never match")
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{StatusCode: 500, Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected underlying error to unwrap")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"context", context.Canceled, false},
		{"429", &APIError{StatusCode: 429}, true},
		{"500", &APIError{StatusCode: 500}, true},
		{"503 wrapped", fmt.Errorf("wrap: %w", &APIError{StatusCode: 503}), true},
		{"400", &APIError{StatusCode: 400}, false},
		{"401", &APIError{StatusCode: 401}, false},
		{"network", &NetworkError{Op: "request failed", Err: io.EOF}, true},
		{"validation", &ValidationError{Field: "event"}, false},
		{"shutdown", &ShutdownError{Cause: context.DeadlineExceeded}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Code(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{401, ErrCodeAuth},
		{403, ErrCodeAuth},
		{429, ErrCodeRateLimit},
		{400, ErrCodeAPI},
		{500, ErrCodeAPI},
	}
	for _, tt := range tests {
		if got := (&APIError{StatusCode: tt.status}).Code(); got != tt.want {
			t.Errorf("status %d: Code() = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestAsAPIError(t *testing.T) {
	if _, ok := AsAPIError(errors.New("x")); ok {
		t.Error("plain errors are not APIErrors")
	}
	apiErr, ok := AsAPIError(fmt.Errorf("wrap: %w", &APIError{StatusCode: 418}))
	if !ok || apiErr.StatusCode != 418 {
		t.Errorf("AsAPIError = %v, %v", apiErr, ok)
	}
}

func TestNetworkError(t *testing.T) {
	err := &NetworkError{Op: "request failed", Err: io.EOF}
	if err.Error() != "posthog: request failed: EOF" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, io.EOF) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "event", Message: "event name is required", Err: ErrEmptyEvent}
	if err.Error() != `posthog: validation error for field "event": event name is required` {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, ErrEmptyEvent) {
		t.Error("expected ErrEmptyEvent in chain")
	}
	if err.Code() != ErrCodeValidation {
		t.Errorf("Code() = %s", err.Code())
	}
}

func TestShutdownError(t *testing.T) {
	err := &ShutdownError{Cause: context.DeadlineExceeded, PendingEvents: 100, Message: "timeout waiting for background goroutines"}
	want := "posthog: shutdown: timeout waiting for background goroutines (100 events may be lost): context deadline exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected cause to unwrap")
	}
	if err.Code() != ErrCodeShutdown {
		t.Errorf("Code() = %s", err.Code())
	}

	var phErr PostHogError
	if !errors.As(fmt.Errorf("close: %w", err), &phErr) {
		t.Error("ShutdownError should satisfy PostHogError")
	}
}
