package playback

import (
	"errors"
	"fmt"
)

// Error represents a playback failure with a stable category code.
//
// Categories:
//   - BackendUnavailable: no usable sink executable on this system
//   - ProcessCrash: sink process exited while intended to play
//   - WriteFailure: writing PCM to the sink's stdin failed
//
// WriteFailure and ProcessCrash are handled identically by the
// supervisor (retry, then fatal); the distinct codes survive into logs
// and crash reasons.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the playback session, when one exists.
	Session string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes playback errors.
type ErrorCode string

const (
	// ErrCodeBackendUnavailable indicates no sink executable was found.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"

	// ErrCodeProcessCrash indicates the sink died while intended to play.
	ErrCodeProcessCrash ErrorCode = "PROCESS_CRASH"

	// ErrCodeWriteFailure indicates a failed PCM write to the sink.
	ErrCodeWriteFailure ErrorCode = "WRITE_FAILURE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.Session)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsBackendUnavailable returns true for missing-sink errors.
// Uses errors.As to handle wrapped errors.
func IsBackendUnavailable(err error) bool {
	return hasCode(err, ErrCodeBackendUnavailable)
}

// IsProcessCrash returns true for sink-death errors.
// Uses errors.As to handle wrapped errors.
func IsProcessCrash(err error) bool {
	return hasCode(err, ErrCodeProcessCrash)
}

// IsWriteFailure returns true for failed sink writes.
// Uses errors.As to handle wrapped errors.
func IsWriteFailure(err error) bool {
	return hasCode(err, ErrCodeWriteFailure)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
