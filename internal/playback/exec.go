package playback

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// writeTimeout bounds a single PCM write. The pipe buffer absorbs many
// blocks, so hitting this means the sink stopped reading; the write is
// failed and handled as a crash rather than wedging the control loop.
const writeTimeout = 250 * time.Millisecond

// stderrTailLimit matches the display budget for crash reasons.
const stderrTailLimit = 220

// ExecSink launches the probed backend as a real subprocess.
//
// Each child runs in its own process group so Stop can signal the
// whole group: aplay and friends sometimes fork helpers, and an
// orphaned helper keeps the ALSA device busy.
type ExecSink struct {
	backend    Backend
	stderrPath string
	log        *slog.Logger
}

// NewExecSink wraps a probed backend. stderrPath receives the sink's
// stderr, truncated at each process start; pass "" to discard.
func NewExecSink(backend Backend, stderrPath string, log *slog.Logger) *ExecSink {
	if log == nil {
		log = slog.Default()
	}
	return &ExecSink{backend: backend, stderrPath: stderrPath, log: log}
}

// StartStream launches a raw-PCM stdin session.
func (s *ExecSink) StartStream(f Format) (StreamProc, error) {
	if !s.backend.CanStream {
		return nil, &Error{
			Code:    ErrCodeBackendUnavailable,
			Message: fmt.Sprintf("backend %s cannot stream raw PCM", s.backend.Name),
		}
	}
	return s.start(s.backend.streamArgs(f), true)
}

// StartFile launches a single play of the given WAV.
func (s *ExecSink) StartFile(path string) (Proc, error) {
	return s.start(s.backend.playArgs(path), false)
}

func (s *ExecSink) start(args []string, wantStdin bool) (*execProc, error) {
	cmd := exec.Command(s.backend.Path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = nil // /dev/null; stdout belongs to the protocol

	var stderrFile *os.File
	if s.stderrPath != "" {
		f, err := os.Create(s.stderrPath)
		if err == nil {
			cmd.Stderr = f
			stderrFile = f
		} else {
			s.log.Warn("sink stderr capture unavailable", "path", s.stderrPath, "error", err)
		}
	}

	p := &execProc{
		cmd:        cmd,
		done:       make(chan struct{}),
		stderrPath: s.stderrPath,
	}

	// A hand-built pipe instead of cmd.StdinPipe: the write end must be
	// an *os.File so Write can carry a deadline.
	var readEnd *os.File
	if wantStdin {
		pr, pw, err := os.Pipe()
		if err != nil {
			closeQuiet(stderrFile)
			return nil, &Error{Code: ErrCodeProcessCrash, Message: "open sink stdin", Err: err}
		}
		cmd.Stdin = pr
		readEnd = pr
		p.stdin = pw
	}

	if err := cmd.Start(); err != nil {
		closeQuiet(stderrFile)
		closeQuiet(readEnd)
		closeQuiet(p.stdin)
		return nil, &Error{
			Code:    ErrCodeProcessCrash,
			Message: fmt.Sprintf("start %s", s.backend.Name),
			Err:     err,
		}
	}
	// The child owns its copy of the read end now.
	closeQuiet(readEnd)

	s.log.Debug("sink started", "backend", s.backend.Name, "pid", cmd.Process.Pid, "args", args)

	go func() {
		p.waitErr = cmd.Wait()
		closeQuiet(stderrFile)
		close(p.done)
	}()

	return p, nil
}

func closeQuiet(f *os.File) {
	if f != nil {
		f.Close()
	}
}

// execProc is the live subprocess handle behind Proc/StreamProc.
type execProc struct {
	cmd        *exec.Cmd
	stdin      *os.File
	done       chan struct{}
	waitErr    error // written once by the wait goroutine before done closes
	stderrPath string
}

func (p *execProc) Done() <-chan struct{} {
	return p.done
}

// Err reports how the process ended. Callers must observe Done first;
// before that the exit status is not yet known and Err returns nil.
func (p *execProc) Err() error {
	select {
	case <-p.done:
	default:
		return nil
	}
	if p.waitErr == nil {
		return nil
	}

	reason := fmt.Sprintf("rc=%d", exitCode(p.waitErr))
	if tail := stderrTail(p.stderrPath); tail != "" {
		reason += " " + tail
	}
	return &Error{Code: ErrCodeProcessCrash, Message: reason, Err: p.waitErr}
}

// Write sends one PCM block to the sink. A deadline keeps a wedged sink
// from blocking the control loop; a timed-out or failed write surfaces
// as WriteFailure.
func (p *execProc) Write(b []byte) (int, error) {
	if p.stdin == nil {
		return 0, &Error{Code: ErrCodeWriteFailure, Message: "sink has no stdin"}
	}
	p.stdin.SetWriteDeadline(time.Now().Add(writeTimeout))
	n, err := p.stdin.Write(b)
	if err != nil {
		return n, &Error{Code: ErrCodeWriteFailure, Message: "write to sink", Err: err}
	}
	return n, nil
}

// Stop terminates the process group: TERM, bounded wait, then KILL.
// Closing stdin first lets a healthy player drain and exit on its own.
func (p *execProc) Stop(grace time.Duration) {
	if p.stdin != nil {
		p.stdin.Close()
	}

	select {
	case <-p.done:
		return
	default:
	}

	pgid := p.cmd.Process.Pid
	unix.Kill(-pgid, unix.SIGTERM)

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
		return
	case <-timer.C:
	}

	unix.Kill(-pgid, unix.SIGKILL)
	<-p.done
}

// exitCode extracts the numeric exit status; -1 for signal deaths, in
// line with os/exec.
func exitCode(err error) int {
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}
	return -1
}

// stderrTail returns the last few lines of the sink's stderr capture,
// flattened and clipped to the display budget.
func stderrTail(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}
	if len(data) > 1024 {
		data = data[len(data)-1024:]
	}
	tail := strings.TrimSpace(strings.ReplaceAll(string(data), "\n", " "))
	if len(tail) > stderrTailLimit {
		tail = tail[len(tail)-stderrTailLimit:]
	}
	return tail
}
