package proto

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Display limits. The OLED app renders toasts and fatal banners into
// fixed slots, so messages are truncated at the source.
const (
	maxToastLen = 160
	maxFatalLen = 200
)

// State is the heartbeat snapshot. Core fields are always present;
// mode-specific fields appear only when the active mode reads them.
type State struct {
	Ready   bool   `json:"ready"`
	Playing bool   `json:"playing"`
	Mode    string `json:"mode"`
	Volume  int    `json:"volume"`
	Page    string `json:"page"`
	Cursor  string `json:"cursor"`
	Backend string `json:"backend,omitempty"`

	Wave    string  `json:"wave,omitempty"`
	FreqHz  float64 `json:"freq_hz,omitempty"`
	StartHz float64 `json:"start_hz,omitempty"`
	EndHz   float64 `json:"end_hz,omitempty"`
	Dir     string  `json:"direction,omitempty"`
	PulseMs int     `json:"pulse_ms,omitempty"`
	DutyPct int     `json:"duty,omitempty"`
	OnMs    int     `json:"on_ms,omitempty"`
	OffMs   int     `json:"off_ms,omitempty"`
	Motif   string  `json:"motif,omitempty"`

	DurationS float64 `json:"duration_s,omitempty"`
	Loop      bool    `json:"loop,omitempty"`
}

type helloEvent struct {
	Type    string `json:"type"`
	Module  string `json:"module"`
	Version string `json:"version"`
}

type pageEvent struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type stateEvent struct {
	Type string `json:"type"`
	State
}

type toastEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type buildEvent struct {
	Type     string  `json:"type"`
	Pct      float64 `json:"pct"`
	Step     string  `json:"step"`
	ElapsedS int     `json:"elapsed_s"`
}

type fatalEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type exitEvent struct {
	Type string `json:"type"`
}

// Emitter serializes events onto one writer. A mutex guarantees whole
// lines: events from the control loop and late build goroutines never
// interleave.
//
// Write errors are sticky. Once stdout is gone the parent app is gone,
// so the engine polls Err and shuts down instead of spamming a dead
// pipe.
type Emitter struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewEmitter wraps w, normally stdout.
func NewEmitter(w io.Writer) *Emitter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Emitter{enc: enc}
}

// Err reports the first write failure, if any.
func (e *Emitter) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Emitter) emit(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return
	}
	if err := e.enc.Encode(v); err != nil {
		e.err = fmt.Errorf("emit event: %w", err)
	}
}

// Hello announces the module on startup.
func (e *Emitter) Hello(module, version string) {
	e.emit(helloEvent{Type: "hello", Module: module, Version: version})
}

// Page reports a page transition.
func (e *Emitter) Page(name string) {
	e.emit(pageEvent{Type: "page", Name: name})
}

// State emits a heartbeat snapshot.
func (e *Emitter) State(s State) {
	e.emit(stateEvent{Type: "state", State: s})
}

// Toast emits a short transient message, truncated to the display
// budget.
func (e *Emitter) Toast(msg string) {
	e.emit(toastEvent{Type: "toast", Message: truncate(msg, maxToastLen)})
}

// Build reports async render progress. pct is a fraction in [0,1];
// renderers track whole percents internally, so the wire value stays to
// two decimals.
func (e *Emitter) Build(pct float64, step string, elapsedS int) {
	e.emit(buildEvent{Type: "build", Pct: pct, Step: step, ElapsedS: elapsedS})
}

// Fatal reports the terminal error banner.
func (e *Emitter) Fatal(msg string) {
	e.emit(fatalEvent{Type: "fatal", Message: truncate(msg, maxFatalLen)})
}

// Exit is the final event before the process ends.
func (e *Emitter) Exit() {
	e.emit(exitEvent{Type: "exit"})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// RawEvent is one decoded protocol line, used by the test harness and
// by anything tailing a transcript.
type RawEvent struct {
	Type   string
	Fields map[string]any
}

// DecodeLines parses a protocol transcript back into events.
func DecodeLines(data []byte) ([]RawEvent, error) {
	var out []RawEvent
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("bad event line %q: %w", line, err)
		}
		t, _ := m["type"].(string)
		if t == "" {
			return nil, fmt.Errorf("event line missing type: %s", line)
		}
		out = append(out, RawEvent{Type: t, Fields: m})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript: %w", err)
	}
	return out, nil
}
