package bootstrap

import (
	"errors"
	"fmt"
)

// Phase names the step of initialization that failed.
type Phase string

const (
	// PhaseLoad is acquisition of the SDK through the Loader.
	PhaseLoad Phase = "load"
	// PhaseInit is the SDK's Init call.
	PhaseInit Phase = "init"
	// PhaseWait is the wait for the loaded callback.
	PhaseWait Phase = "wait"
)

var (
	// ErrNilSDK is returned when a Loader returns neither an SDK nor an error.
	ErrNilSDK = errors.New("bootstrap: loader returned nil SDK")

	// ErrNoClient is returned when the SDK reports loaded without a client.
	ErrNoClient = errors.New("bootstrap: sdk loaded without a client")
)

// InitError reports a failed initialization attempt.
type InitError struct {
	Phase Phase
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("bootstrap: %s: %v", e.Phase, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// panicError converts a recovered panic value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}
