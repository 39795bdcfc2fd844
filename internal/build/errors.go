package build

import (
	"errors"
	"fmt"
)

// Error is a failed or unserviceable build. It wraps the render or I/O
// cause when one exists.
type Error struct {
	JobID   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.JobID != "" {
		msg = fmt.Sprintf("build %s: %s", e.JobID, e.Message)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsBuildFailure reports whether err is (or wraps) a build error.
func IsBuildFailure(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
