package harness

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GhostGeeks/UAP-Generator/internal/build"
	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/engine"
	"github.com/GhostGeeks/UAP-Generator/internal/motif"
	"github.com/GhostGeeks/UAP-Generator/internal/playback"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
	"github.com/GhostGeeks/UAP-Generator/internal/store"
	"github.com/GhostGeeks/UAP-Generator/internal/testutil"
)

// Epoch anchors every scenario clock. Transcripts carry no wall time,
// but a fixed origin keeps retry and heartbeat arithmetic identical
// across runs.
var Epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Result carries everything a test can assert on after a run.
type Result struct {
	Events []proto.RawEvent // decoded transcript, wire order
	Raw    []byte           // transcript bytes
	Sink   *RecorderSink
	Done   bool // loop ended via back or EOF during the script

	CacheDir   string
	ScratchDir string
	ConfigPath string
	Params     *config.Params // final in-memory parameters
}

// Run executes one scenario against a fully wired engine and returns
// the recorded outcome. Wiring failures fail the test immediately;
// protocol-level outcomes land in the Result for the caller to judge.
func Run(t *testing.T, sc *Scenario) *Result {
	t.Helper()

	dir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	lib, err := motif.LoadLibrary()
	require.NoError(t, err)

	cache := filepath.Join(dir, "cache")
	builder, err := build.NewManager(st, lib, cache,
		build.WithLogger(log), build.WithIDGenerator(testutil.SeqIDs("job")))
	require.NoError(t, err)

	sink := NewRecorderSink()
	if sc.Backend == BackendNone {
		sink.Refuse(&playback.Error{
			Code:    playback.ErrCodeBackendUnavailable,
			Message: "no sink executable found",
		})
	}
	sup := playback.New(sink,
		playback.WithLogger(log), playback.WithIDGenerator(testutil.SeqIDs("session")))

	cfgFile := config.NewFile(filepath.Join(dir, "uapgen.json"), log)
	params := sc.Params.Clone()

	out := &bytes.Buffer{}
	cmds := make(chan proto.Command, 64)
	clock := testutil.NewClock(Epoch)
	scratch := filepath.Join(dir, "scratch")

	eng := engine.New(engine.Deps{
		Params:     params,
		Save:       cfgFile.Save,
		Library:    lib,
		Sup:        sup,
		Builder:    builder,
		Emitter:    proto.NewEmitter(out),
		Commands:   cmds,
		Backend:    backendFor(sc.Backend),
		ScratchDir: scratch,
		Log:        log,
		Now:        clock.Now,
	})

	eng.Start(clock.Now())

	done := false
	tick := func() {
		clock.Advance(engine.TickInterval)
		done = eng.Tick(clock.Now())
	}

	for _, step := range sc.Steps {
		if done {
			break
		}
		switch {
		case step.Command != "":
			cmd, perr := proto.ParseCommand(step.Command)
			require.NoError(t, perr)
			n := step.Repeat
			if n == 0 {
				n = 1
			}
			for i := 0; i < n && !done; i++ {
				cmds <- cmd
				tick()
			}
		case step.AdvanceMs > 0:
			for ms := 0; ms < step.AdvanceMs && !done; ms += int(engine.TickInterval / time.Millisecond) {
				tick()
			}
		case step.CrashSink != "":
			sink.Kill(step.CrashSink)
		}
	}

	eng.Close()

	evs, err := proto.DecodeLines(out.Bytes())
	require.NoError(t, err)

	return &Result{
		Events:     evs,
		Raw:        out.Bytes(),
		Sink:       sink,
		Done:       done,
		CacheDir:   cache,
		ScratchDir: scratch,
		ConfigPath: cfgFile.Path(),
		Params:     params,
	}
}

func backendFor(kind string) playback.Backend {
	switch kind {
	case BackendFileOnly:
		return playback.Backend{Name: "paplay", Path: "/usr/bin/paplay"}
	case BackendNone:
		return playback.Backend{}
	default:
		return playback.Backend{Name: "pw-cat", Path: "/usr/bin/pw-cat", CanStream: true}
	}
}

// EventsOf filters the transcript by event type.
func EventsOf(evs []proto.RawEvent, typ string) []proto.RawEvent {
	var out []proto.RawEvent
	for _, ev := range evs {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Toasts lists toast messages in wire order.
func Toasts(evs []proto.RawEvent) []string {
	var out []string
	for _, ev := range EventsOf(evs, "toast") {
		if msg, ok := ev.Fields["message"].(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// LastState returns the final state snapshot's fields.
func LastState(t *testing.T, evs []proto.RawEvent) map[string]any {
	t.Helper()
	states := EventsOf(evs, "state")
	require.NotEmpty(t, states, "transcript has no state events")
	return states[len(states)-1].Fields
}
