package playback

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GhostGeeks/UAP-Generator/internal/synth"
	"github.com/GhostGeeks/UAP-Generator/internal/wavio"
)

// Supervision defaults: three retries at 150 ms spacing before giving
// up, 20 ms streaming blocks, half a second of stop grace before the
// forced kill.
const (
	DefaultRetryBudget = 3
	DefaultBackoff     = 150 * time.Millisecond
	DefaultBlock       = 20 * time.Millisecond
	StopGrace          = 500 * time.Millisecond
)

// SessionState is the lifecycle position of the playback session.
type SessionState int

const (
	// StateIdle: no session exists yet, or an explicit Reset happened.
	StateIdle SessionState = iota
	// StateStarting: a sink launch is in progress.
	StateStarting
	// StateRunning: the sink is alive and playing.
	StateRunning
	// StateRetrying: the sink died unexpectedly; a restart is pending.
	StateRetrying
	// StateFatal: the retry budget is spent. Sticky until Reset.
	StateFatal
	// StateStopped: the session ended by explicit stop or clean finish.
	StateStopped
)

var stateNames = [...]string{"idle", "starting", "running", "retrying", "fatal", "stopped"}

func (s SessionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// EventKind classifies supervision transitions surfaced by Advance.
type EventKind int

const (
	// EventCrashed: the sink died while intended to play; a retry is
	// scheduled.
	EventCrashed EventKind = iota
	// EventRecovered: a retry start succeeded.
	EventRecovered
	// EventFatal: the retry budget is spent; the session is Fatal.
	EventFatal
	// EventLooped: a file-loop session relaunched after a clean play.
	EventLooped
	// EventFinished: a non-loop file session played to completion.
	EventFinished
)

var eventNames = [...]string{"crashed", "recovered", "fatal", "looped", "finished"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is one supervision transition, in occurrence order.
type Event struct {
	Kind    EventKind
	Code    ErrorCode // crash classification, set for Crashed/Fatal
	Reason  string    // crash reason (exit status, stderr tail)
	Attempt int       // retry ordinal for Crashed/Recovered, loop count for Looped
}

type topology int

const (
	topoNone topology = iota
	topoStream
	topoFile
)

// Supervisor owns the single playback session.
//
// It is deliberately passive: nothing happens between calls. The
// control loop calls Advance once per tick with its clock, and every
// supervision decision (crash detection, backoff, restart, block
// writes) happens inside that call. The Supervisor is therefore not
// goroutine-safe; it belongs to the control loop alone.
type Supervisor struct {
	sink  Sink
	log   *slog.Logger
	newID func() string

	retryBudget int
	backoff     time.Duration
	block       time.Duration

	state     SessionState
	fatalErr  error
	sessionID string

	topology topology
	proc     Proc
	sproc    StreamProc

	// streaming session
	gen     synth.Generator
	gain    float64
	format  Format
	scratch []float64
	pcm     []byte

	// file session
	filePath string
	loop     bool
	loops    int

	retries   int
	retryAt   time.Time
	lastCrash string
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithRetryBudget overrides the crash-retry budget.
func WithRetryBudget(n int) Option {
	return func(s *Supervisor) { s.retryBudget = n }
}

// WithBackoff overrides the delay before a crash retry.
func WithBackoff(d time.Duration) Option {
	return func(s *Supervisor) { s.backoff = d }
}

// WithBlock overrides the streaming block duration. It must equal the
// control loop's tick for writes to pace to real time.
func WithBlock(d time.Duration) Option {
	return func(s *Supervisor) { s.block = d }
}

// WithLogger routes supervision logs.
func WithLogger(log *slog.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

// WithIDGenerator overrides session ID generation, for deterministic
// tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Supervisor) { s.newID = f }
}

// New builds a Supervisor around a sink.
func New(sink Sink, opts ...Option) *Supervisor {
	s := &Supervisor{
		sink:        sink,
		log:         slog.Default(),
		retryBudget: DefaultRetryBudget,
		backoff:     DefaultBackoff,
		block:       DefaultBlock,
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current session state.
func (s *Supervisor) State() SessionState { return s.state }

// SessionID identifies the current session in logs; empty before the
// first play.
func (s *Supervisor) SessionID() string { return s.sessionID }

// Retries reports spent retry attempts for the current session.
func (s *Supervisor) Retries() int { return s.retries }

// RetryBudget reports the configured crash-retry budget.
func (s *Supervisor) RetryBudget() int { return s.retryBudget }

// Loops reports completed relaunches of a file-loop session.
func (s *Supervisor) Loops() int { return s.loops }

// LastCrash is the most recent crash reason, for diagnostics.
func (s *Supervisor) LastCrash() string { return s.lastCrash }

// Playing reports whether the session intends to produce audio: it
// stays true through crash recovery, false once Stopped or Fatal.
func (s *Supervisor) Playing() bool {
	switch s.state {
	case StateStarting, StateRunning, StateRetrying:
		return true
	}
	return false
}

// FatalError returns the sticky error once the session is Fatal.
func (s *Supervisor) FatalError() error { return s.fatalErr }

// PlayStream begins a continuous streaming session: the sink is started
// once, and each Advance generates gain-scaled PCM from gen and writes
// one block.
//
// Any existing session is stopped first. In Fatal state the request is
// refused with the sticky error.
func (s *Supervisor) PlayStream(gen synth.Generator, gain float64, f Format) error {
	if s.state == StateFatal {
		return s.fatalErr
	}
	s.Stop(StopGrace)
	s.beginSession()

	s.topology = topoStream
	s.gen = gen
	s.gain = gain
	s.format = f
	frames := int(time.Duration(f.Rate) * s.block / time.Second)
	s.scratch = make([]float64, frames)
	s.pcm = make([]byte, frames*f.Channels*2)

	s.state = StateStarting
	sp, err := s.sink.StartStream(f)
	if err != nil {
		s.abandonSession()
		return err
	}
	s.proc = sp
	s.sproc = sp
	s.state = StateRunning
	s.log.Info("stream session started",
		"session", s.sessionID, "rate", f.Rate, "channels", f.Channels)
	return nil
}

// PlayFile begins a file session against a rendered WAV artifact. With
// loop set, the sink is relaunched after every clean play until
// stopped.
func (s *Supervisor) PlayFile(path string, loop bool) error {
	if s.state == StateFatal {
		return s.fatalErr
	}
	s.Stop(StopGrace)
	s.beginSession()

	s.topology = topoFile
	s.filePath = path
	s.loop = loop

	s.state = StateStarting
	p, err := s.sink.StartFile(path)
	if err != nil {
		s.abandonSession()
		return err
	}
	s.proc = p
	s.state = StateRunning
	s.log.Info("file session started",
		"session", s.sessionID, "path", path, "loop", loop)
	return nil
}

func (s *Supervisor) beginSession() {
	s.sessionID = s.newID()
	s.retries = 0
	s.loops = 0
	s.lastCrash = ""
}

func (s *Supervisor) abandonSession() {
	s.topology = topoNone
	s.gen = nil
	s.sproc = nil
	s.state = StateStopped
}

// SetGain adjusts the streaming level without restarting the session.
// Takes effect from the next block.
func (s *Supervisor) SetGain(gain float64) {
	s.gain = gain
}

// Stop terminates the session: graceful signal, bounded wait, forced
// kill. Idempotent; a Fatal session stays Fatal.
func (s *Supervisor) Stop(grace time.Duration) {
	if s.proc != nil {
		s.proc.Stop(grace)
		s.proc = nil
		s.sproc = nil
	}
	s.gen = nil
	s.topology = topoNone
	if s.state != StateFatal && s.state != StateIdle {
		s.state = StateStopped
	}
}

// Reset clears a Fatal session so playback may be requested again.
// This is the only way out of Fatal.
func (s *Supervisor) Reset() {
	s.Stop(StopGrace)
	s.state = StateIdle
	s.fatalErr = nil
	s.retries = 0
	s.lastCrash = ""
}

// Advance performs one supervision step at the given time: detect sink
// death, schedule and perform retries, relaunch file loops, and write
// one streaming block. Transitions are returned in occurrence order for
// the caller to surface.
func (s *Supervisor) Advance(now time.Time) []Event {
	switch s.state {
	case StateRunning, StateStarting:
		return s.advanceLive(now)
	case StateRetrying:
		if now.Before(s.retryAt) {
			return nil
		}
		return s.attemptRestart(now, nil)
	}
	return nil
}

func (s *Supervisor) advanceLive(now time.Time) []Event {
	if s.proc == nil {
		return nil
	}
	select {
	case <-s.proc.Done():
		return s.onExit(now)
	default:
	}
	if s.topology == topoStream {
		return s.writeBlock(now)
	}
	return nil
}

// onExit handles a sink that exited on its own.
func (s *Supervisor) onExit(now time.Time) []Event {
	err := s.proc.Err()
	s.proc = nil
	s.sproc = nil

	if s.topology == topoFile && err == nil {
		if !s.loop {
			s.log.Info("file session finished", "session", s.sessionID)
			s.topology = topoNone
			s.state = StateStopped
			return []Event{{Kind: EventFinished}}
		}
		p, startErr := s.sink.StartFile(s.filePath)
		if startErr != nil {
			return s.crash(now, ErrCodeProcessCrash,
				"loop relaunch failed: "+startErr.Error(), nil)
		}
		s.proc = p
		s.loops++
		s.log.Debug("file loop relaunched", "session", s.sessionID, "loops", s.loops)
		return []Event{{Kind: EventLooped, Attempt: s.loops}}
	}

	reason := "exited unexpectedly (rc=0)"
	if err != nil {
		reason = crashReason(err)
	}
	return s.crash(now, ErrCodeProcessCrash, reason, nil)
}

// writeBlock generates and writes one block of the streaming session.
// A failed write is a crash: the sink is torn down and the retry path
// engages.
func (s *Supervisor) writeBlock(now time.Time) []Event {
	s.gen.Fill(s.scratch)
	for i, x := range s.scratch {
		v := uint16(wavio.SampleToInt16(x * s.gain))
		for c := 0; c < s.format.Channels; c++ {
			binary.LittleEndian.PutUint16(s.pcm[(i*s.format.Channels+c)*2:], v)
		}
	}
	if _, err := s.sproc.Write(s.pcm); err != nil {
		s.proc.Stop(0)
		s.proc = nil
		s.sproc = nil
		return s.crash(now, ErrCodeWriteFailure, crashReason(err), nil)
	}
	return nil
}

// crash routes a dead sink into retry or fatal, per the budget.
func (s *Supervisor) crash(now time.Time, code ErrorCode, reason string, events []Event) []Event {
	s.lastCrash = reason

	if s.retries >= s.retryBudget {
		s.state = StateFatal
		s.fatalErr = &Error{Code: code, Message: reason, Session: s.sessionID}
		s.topology = topoNone
		s.gen = nil
		s.log.Error("retry budget spent, session fatal",
			"session", s.sessionID, "reason", reason)
		return append(events, Event{Kind: EventFatal, Code: code, Reason: reason})
	}

	s.retries++
	s.state = StateRetrying
	s.retryAt = now.Add(s.backoff)
	s.log.Warn("sink died, retry scheduled",
		"session", s.sessionID, "attempt", s.retries, "reason", reason)
	return append(events, Event{Kind: EventCrashed, Code: code, Reason: reason, Attempt: s.retries})
}

// attemptRestart performs the pending retry.
func (s *Supervisor) attemptRestart(now time.Time, events []Event) []Event {
	s.state = StateStarting
	var err error
	if s.topology == topoStream {
		var sp StreamProc
		sp, err = s.sink.StartStream(s.format)
		if err == nil {
			s.proc = sp
			s.sproc = sp
		}
	} else {
		var p Proc
		p, err = s.sink.StartFile(s.filePath)
		if err == nil {
			s.proc = p
		}
	}
	if err != nil {
		return s.crash(now, ErrCodeProcessCrash, "restart failed: "+err.Error(), events)
	}

	s.state = StateRunning
	s.log.Info("sink recovered", "session", s.sessionID, "attempt", s.retries)
	return append(events, Event{Kind: EventRecovered, Attempt: s.retries})
}

// crashReason flattens an error into the short reason string carried by
// events and toasts.
func crashReason(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
