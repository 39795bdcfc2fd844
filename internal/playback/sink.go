package playback

import (
	"io"
	"time"
)

// Proc is a live sink process handle.
//
// Done is closed exactly once, when the process has exited for any
// reason. After Done, Err reports how it ended: nil for a clean exit,
// otherwise an error carrying the exit status and a stderr tail.
type Proc interface {
	Done() <-chan struct{}
	Err() error
	// Stop terminates the process: graceful signal first, forced kill
	// once grace has elapsed. Safe to call on an exited process.
	Stop(grace time.Duration)
}

// StreamProc is a sink process consuming raw PCM on stdin.
type StreamProc interface {
	Proc
	io.Writer
}

// Sink launches sink processes. The production implementation wraps a
// probed Backend; the test harness substitutes a recorder.
type Sink interface {
	StartStream(f Format) (StreamProc, error)
	StartFile(path string) (Proc, error)
}

// NoSink stands in when probing found no backend: every start is
// refused, so the engine runs its menus normally and surfaces the
// missing backend on the first play attempt.
type NoSink struct {
	Reason error // the probe failure; nil gets a generic refusal
}

func (n NoSink) StartStream(Format) (StreamProc, error) { return nil, n.refuse() }

func (n NoSink) StartFile(string) (Proc, error) { return nil, n.refuse() }

func (n NoSink) refuse() error {
	if n.Reason != nil {
		return n.Reason
	}
	return &Error{Code: ErrCodeBackendUnavailable, Message: "no audio player found"}
}
