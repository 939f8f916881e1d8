package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error reported by the engine's command surface.
//
// Runtime errors include:
//   - Invalid signal: SubmitInput called with an index outside [0, N)
//   - Invalid config: a game constructed with no signals
//   - Engine stopped: a command enqueued after Stop
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Signal is the offending signal index, when relevant.
	Signal int

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidSignal indicates a signal index outside [0, N).
	ErrCodeInvalidSignal RuntimeErrorCode = "INVALID_SIGNAL"

	// ErrCodeInvalidConfig indicates the engine cannot be built as requested.
	ErrCodeInvalidConfig RuntimeErrorCode = "INVALID_CONFIG"

	// ErrCodeEngineStopped indicates the event loop no longer accepts commands.
	ErrCodeEngineStopped RuntimeErrorCode = "ENGINE_STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Code == ErrCodeInvalidSignal {
		return fmt.Sprintf("%s: %s (signal=%d)", e.Code, e.Message, e.Signal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidSignalError returns true if err is (or wraps) an invalid signal error.
func IsInvalidSignalError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidSignal
	}
	return false
}

// IsStoppedError returns true if err is (or wraps) an engine stopped error.
func IsStoppedError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeEngineStopped
	}
	return false
}

// NewInvalidSignalError creates a RuntimeError for an out-of-range index.
func NewInvalidSignalError(signal, signals int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidSignal,
		Message: fmt.Sprintf("signal index out of range [0, %d)", signals),
		Signal:  signal,
		Details: map[string]string{
			"signals": fmt.Sprintf("%d", signals),
		},
	}
}

// NewInvalidConfigError creates a RuntimeError for a bad construction argument.
func NewInvalidConfigError(message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidConfig,
		Message: message,
	}
}

// NewStoppedError creates a RuntimeError for a command sent after Stop.
func NewStoppedError() *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeEngineStopped,
		Message: "engine is stopped",
	}
}
