package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/GhostGeeks/UAP-Generator/internal/build"
	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/motif"
	"github.com/GhostGeeks/UAP-Generator/internal/playback"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
	"github.com/GhostGeeks/UAP-Generator/internal/synth"
	"github.com/GhostGeeks/UAP-Generator/internal/wavio"
)

// Module identity announced in the hello event.
const (
	ModuleName = "uapgen"
	Version    = "2.0.0"
)

// Loop timing.
const (
	// TickInterval paces Run. It must match the supervisor's streaming
	// block so writes pace to real time.
	TickInterval = 20 * time.Millisecond
	// heartbeatEvery bounds the silence between state snapshots.
	heartbeatEvery = 250 * time.Millisecond
	// toastEvery rate-limits toasts; within a burst the newest wins.
	toastEvery = 100 * time.Millisecond
)

// page is the engine's position in the page machine.
type page int

const (
	pageMain   page = iota
	pageSub         // fine adjustment of one numeric field
	pagePicker      // scroll list for the motif catalog
	pageFatal       // absorbing; only back leaves it, and it exits
)

// sessionTopo records which playback shape the engine last started, so
// parameter changes know whether a live adjustment is possible.
type sessionTopo int

const (
	topoNone sessionTopo = iota
	topoStream
	topoFile
)

// MotifLibrary is the catalog view the engine needs: names for cycling
// and definitions for validation. *motif.Library satisfies it.
type MotifLibrary interface {
	Names() []string
	Get(name string) (motif.Definition, bool)
}

// Deps carries everything the engine drives. All fields are required
// unless noted otherwise.
type Deps struct {
	Params   *config.Params             // working parameters, already normalized
	Save     func(*config.Params) error // persists accepted changes; nil disables persistence
	Library  MotifLibrary
	Sup      *playback.Supervisor
	Builder  *build.Manager
	Emitter  *proto.Emitter
	Commands <-chan proto.Command
	Backend  playback.Backend

	ScratchDir string           // inline render artifacts; removed by Close
	Log        *slog.Logger     // nil means slog.Default
	Now        func() time.Time // nil means time.Now; only Run reads it
}

// Engine is the control loop. See the package documentation for the
// tick flow; every method is single-goroutine.
type Engine struct {
	cfg     *config.Params
	save    func(*config.Params) error
	lib     MotifLibrary
	sup     *playback.Supervisor
	builder *build.Manager
	emit    *proto.Emitter
	in      <-chan proto.Command
	backend playback.Backend
	scratch string
	log     *slog.Logger
	now     func() time.Time

	page      page
	pageField Field // focus of pageSub / pagePicker
	pickerIdx int
	cursor    int

	playIntent   bool
	pendingBuild bool
	topo         sessionTopo
	gen          synth.Generator // live streaming voice, for retuning
	lastDur      time.Duration   // duration of the looping artifact

	lastState    time.Time
	lastToast    time.Time
	pendingToast string
	havePending  bool
}

// New wires an engine. The configured motif is validated against the
// library here, so a stale name from an old card never reaches the
// build manager.
func New(d Deps) *Engine {
	e := &Engine{
		cfg:     d.Params,
		save:    d.Save,
		lib:     d.Library,
		sup:     d.Sup,
		builder: d.Builder,
		emit:    d.Emitter,
		in:      d.Commands,
		backend: d.Backend,
		scratch: d.ScratchDir,
		log:     d.Log,
		now:     d.Now,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if _, ok := e.lib.Get(e.cfg.Motif); !ok {
		e.log.Warn("configured motif missing from library, using default",
			"motif", e.cfg.Motif)
		e.cfg.Motif = motif.DefaultName
	}
	if e.scratch != "" {
		if err := os.MkdirAll(e.scratch, 0o755); err != nil {
			e.log.Warn("scratch dir unavailable", "dir", e.scratch, "error", err)
		}
	}
	return e
}

// Start announces the module, the initial page and the first state
// snapshot. Call once before the first Tick.
func (e *Engine) Start(now time.Time) {
	e.emit.Hello(ModuleName, Version)
	e.emit.Page(e.pageName())
	e.emitState(now)
}

// Run drives the loop at TickInterval until back exits it, the input
// closes, or ctx is canceled. Cancellation behaves like back on the
// main page: audio stops and the exit event goes out.
func (e *Engine) Run(ctx context.Context) error {
	e.Start(e.now())
	t := time.NewTicker(TickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			e.log.Info("context canceled, shutting down")
			e.exitNow()
			return nil
		case <-t.C:
			if e.Tick(e.now()) {
				return nil
			}
		}
	}
}

// Tick runs one control-loop pass at the given time and reports
// whether the loop is done. The harness calls it directly with a
// manual clock; Run calls it from the ticker.
func (e *Engine) Tick(now time.Time) bool {
drain:
	for {
		select {
		case cmd, ok := <-e.in:
			if !ok {
				e.log.Info("input closed, shutting down")
				e.exitNow()
				return true
			}
			if e.handleCommand(cmd, now) {
				return true
			}
		default:
			break drain
		}
	}

	for _, ev := range e.sup.Advance(now) {
		e.onPlaybackEvent(ev, now)
	}

	e.pollBuild(now)

	e.flushToast(now)
	// Fire on the last tick inside the interval, so two consecutive
	// state events are never further apart than heartbeatEvery.
	if now.Sub(e.lastState)+TickInterval > heartbeatEvery {
		e.emitState(now)
	}

	if err := e.emit.Err(); err != nil {
		e.log.Error("output pipe failed, shutting down", "error", err)
		e.sup.Stop(playback.StopGrace)
		return true
	}
	return false
}

// exitNow performs the final protocol exchange: stop audio, emit exit.
// Artifact cleanup happens in Close.
func (e *Engine) exitNow() {
	e.playIntent = false
	e.pendingBuild = false
	e.sup.Stop(playback.StopGrace)
	e.topo = topoNone
	e.gen = nil
	e.emit.Exit()
}

// Close releases everything the loop owns: the audio session, the
// build worker (undelivered fresh artifacts included) and the inline
// render scratch space. Idempotent.
func (e *Engine) Close() {
	e.sup.Stop(playback.StopGrace)
	e.builder.Close()
	if e.scratch != "" {
		if err := os.RemoveAll(e.scratch); err != nil {
			e.log.Warn("scratch cleanup failed", "dir", e.scratch, "error", err)
		}
	}
}

func (e *Engine) pageName() string {
	switch e.page {
	case pageSub:
		return "submenu:" + string(e.pageField)
	case pagePicker:
		return "picker:" + string(e.pageField)
	case pageFatal:
		return "fatal"
	default:
		return "main"
	}
}

func (e *Engine) modeKind() synth.ModeKind {
	k, err := synth.ParseModeKind(e.cfg.Mode)
	if err != nil {
		return synth.ModeWhite
	}
	return k
}

// cursorField resolves the focused row, clamping a cursor stranded by
// a mode change back onto the list.
func (e *Engine) cursorField() Field {
	fields := fieldsFor(e.modeKind())
	if e.cursor < 0 || e.cursor >= len(fields) {
		e.cursor = 0
	}
	return fields[e.cursor]
}

// emitState snapshots the full UI state onto the wire and resets the
// heartbeat timer. Mode-specific fields ride along only for the active
// mode.
func (e *Engine) emitState(now time.Time) {
	s := proto.State{
		Ready:   e.page != pageFatal,
		Playing: e.sup.Playing(),
		Mode:    e.cfg.Mode,
		Volume:  e.cfg.Volume,
		Page:    e.pageName(),
		Cursor:  string(e.cursorField()),
		Backend: e.backend.Name,
	}
	switch e.modeKind() {
	case synth.ModeTone:
		s.Wave = e.cfg.Wave
		s.FreqHz = e.cfg.FreqHz
	case synth.ModeSweep:
		s.StartHz = e.cfg.StartHz
		s.EndHz = e.cfg.EndHz
		s.Dir = e.cfg.Dir
		s.PulseMs = e.cfg.PulseMs
	case synth.ModeShepard:
		s.Dir = e.cfg.Dir
	case synth.ModePulse:
		s.OnMs = e.cfg.OnMs
		s.OffMs = e.cfg.OffMs
		s.DutyPct = derivedDuty(e.cfg.OnMs, e.cfg.OffMs)
	case synth.ModeMotif:
		s.Motif = e.cfg.Motif
	}
	if e.topo == topoFile && e.sup.Playing() {
		s.DurationS = e.lastDur.Seconds()
		s.Loop = true
	}
	e.emit.State(s)
	e.lastState = now
}

// derivedDuty reports the audible pulse duty in percent, matching the
// gate's own rounding and clamping.
func derivedDuty(onMs, offMs int) int {
	period := onMs + offMs
	if period <= 0 {
		return 0
	}
	d := (onMs*100 + period/2) / period
	return clampInt(d, synth.MinDutyPct, synth.MaxDutyPct)
}

// toast queues a transient message. At most one toast per toastEvery
// reaches the wire; within the window the newest message wins.
func (e *Engine) toast(now time.Time, msg string) {
	if now.Sub(e.lastToast) >= toastEvery {
		e.emit.Toast(msg)
		e.lastToast = now
		e.pendingToast = ""
		e.havePending = false
		return
	}
	e.pendingToast = msg
	e.havePending = true
}

// flushToast releases a throttled toast once its window opens.
func (e *Engine) flushToast(now time.Time) {
	if e.havePending && now.Sub(e.lastToast) >= toastEvery {
		e.emit.Toast(e.pendingToast)
		e.lastToast = now
		e.pendingToast = ""
		e.havePending = false
	}
}

// saveConfig persists the parameters after an accepted change.
// Failures degrade to a log line; the in-memory settings stay
// authoritative.
func (e *Engine) saveConfig() {
	if e.save == nil {
		return
	}
	if err := e.save(e.cfg); err != nil {
		e.log.Warn("config save failed", "error", err)
	}
}

// startPlayback realizes the play intent for the current parameters:
// live streaming when the mode and backend support it, an
// inline-rendered loop file otherwise, and the build worker for
// expensive patterns.
func (e *Engine) startPlayback(now time.Time) {
	mode := e.cfg.ToMode()
	e.gen = nil

	if mode.Buildable() {
		e.sup.Stop(playback.StopGrace)
		e.topo = topoNone
		id, err := e.builder.Request(build.Request{Mode: mode, Volume: e.cfg.Volume})
		if err != nil {
			e.enterFatal(now, fmt.Sprintf("Build failed (%s)", err))
			return
		}
		e.pendingBuild = true
		e.log.Info("build requested", "job", id, "mode", e.cfg.Mode)
		return
	}
	e.pendingBuild = false

	if mode.Streams() && e.backend.CanStream {
		gen, err := synth.NewGenerator(mode, e.cfg.Volume, synth.StreamRate)
		if err != nil {
			e.enterFatal(now, fmt.Sprintf("Audio setup failed (%s)", err))
			return
		}
		f := playback.Format{Rate: synth.StreamRate, Channels: synth.StreamChannels}
		if err := e.sup.PlayStream(gen, synth.Gain(e.cfg.Volume), f); err != nil {
			e.playbackRefused(now, err)
			return
		}
		e.topo = topoStream
		e.gen = gen
		return
	}

	pat, err := e.renderInline(mode)
	if err != nil {
		e.enterFatal(now, fmt.Sprintf("Render failed (%s)", err))
		return
	}
	path := filepath.Join(e.scratch, "live.wav")
	if err := wavio.Write(path, pat); err != nil {
		e.enterFatal(now, fmt.Sprintf("Artifact write failed (%s)", err))
		return
	}
	if err := e.sup.PlayFile(path, true); err != nil {
		e.playbackRefused(now, err)
		return
	}
	e.topo = topoFile
	e.lastDur = pat.Duration()
}

// renderInline produces the loop pattern for the cheap non-streaming
// paths: scan patterns always, and the streaming modes when the
// backend can only play files.
func (e *Engine) renderInline(mode synth.Mode) (*synth.Pattern, error) {
	if mode.Kind == synth.ModeSweep {
		return synth.RenderStaticScan(context.Background(), synth.ScanParams{
			StartHz: mode.StartHz,
			EndHz:   mode.EndHz,
			Dir:     mode.Dir,
			PulseMs: e.cfg.PulseMs,
			Volume:  e.cfg.Volume,
		})
	}
	return synth.RenderNoiseLoop(mode, e.cfg.Volume)
}

// playbackRefused maps a session start failure onto the fatal page. No
// backend and a sink that dies on launch both leave nothing to play
// through, and the gadget treats that as terminal.
func (e *Engine) playbackRefused(now time.Time, err error) {
	if playback.IsBackendUnavailable(err) {
		e.enterFatal(now, "Audio backend not available (need pw-cat, paplay, pw-play or aplay)")
		return
	}
	e.enterFatal(now, fmt.Sprintf("Audio start failed (%s)", err))
}

// enterFatal switches to the absorbing fatal page: the banner goes
// out, audio stops, and only back (which exits) has any effect from
// here.
func (e *Engine) enterFatal(now time.Time, msg string) {
	e.log.Error("fatal", "message", msg)
	e.playIntent = false
	e.pendingBuild = false
	e.sup.Stop(playback.StopGrace)
	e.topo = topoNone
	e.gen = nil
	e.page = pageFatal
	e.emit.Fatal(msg)
	e.emit.Page(e.pageName())
	e.emitState(now)
}

// onPlaybackEvent surfaces supervisor transitions onto the protocol.
func (e *Engine) onPlaybackEvent(ev playback.Event, now time.Time) {
	switch ev.Kind {
	case playback.EventCrashed:
		e.toast(now, fmt.Sprintf("Audio restart %d/%d", ev.Attempt, e.sup.RetryBudget()))
	case playback.EventRecovered:
		e.toast(now, "Audio recovered")
	case playback.EventFatal:
		e.enterFatal(now, fmt.Sprintf("Audio playback stopped (%s)", ev.Reason))
	case playback.EventLooped:
		// relaunch chatter stays in the logs
	case playback.EventFinished:
		e.playIntent = false
		e.topo = topoNone
		e.emitState(now)
	}
}

// pollBuild forwards build progress and realizes finished artifacts.
// A result arriving after the play intent was withdrawn is dropped;
// the artifact stays cached for the next request.
func (e *Engine) pollBuild(now time.Time) {
	res, prog := e.builder.Poll()
	if e.pendingBuild {
		for _, p := range prog {
			e.emit.Build(float64(p.Pct)/100, p.Step, p.ElapsedS)
		}
	}
	if res == nil || !e.pendingBuild {
		return
	}
	e.pendingBuild = false
	if res.Err != nil {
		e.enterFatal(now, fmt.Sprintf("Build failed (%s)", res.Err))
		return
	}
	if err := e.sup.PlayFile(res.Path, true); err != nil {
		e.playbackRefused(now, err)
		return
	}
	e.topo = topoFile
	e.lastDur = res.Duration
	e.emitState(now)
}
