package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/GhostGeeks/UAP-Generator/internal/playback"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
	"github.com/GhostGeeks/UAP-Generator/internal/synth"
)

// handleCommand applies one input command to the focused page. The
// return value reports that back requested process exit.
func (e *Engine) handleCommand(cmd proto.Command, now time.Time) bool {
	e.log.Debug("command", "cmd", cmd.String(), "page", e.pageName())

	if cmd == proto.CmdBack {
		switch e.page {
		case pageMain, pageFatal:
			e.exitNow()
			return true
		default:
			e.closeSubPage(now)
			return false
		}
	}
	switch e.page {
	case pageFatal:
		// absorbing: nothing but back works
	case pageMain:
		e.handleMain(cmd, now)
	case pageSub:
		e.handleSubMenu(cmd, now)
	case pagePicker:
		e.handlePicker(cmd, now)
	}
	return false
}

func (e *Engine) handleMain(cmd proto.Command, now time.Time) {
	switch cmd {
	case proto.CmdUp:
		e.moveCursor(-1, now)
	case proto.CmdDown:
		e.moveCursor(+1, now)
	case proto.CmdSelect:
		if e.cursorField() == FieldPlay {
			e.togglePlay(now)
			return
		}
		e.adjustField(e.cursorField(), +1, now)
	case proto.CmdSelectHold:
		e.alternate(now)
	}
}

// moveCursor walks the field list, wrapping at both ends.
func (e *Engine) moveCursor(delta int, now time.Time) {
	n := len(fieldsFor(e.modeKind()))
	e.cursor = ((e.cursor+delta)%n + n) % n
	e.emitState(now)
}

// alternate is select-hold on the main page: the inverse or alternate
// action of the focused field. Value fields step backward, numeric
// fields open their fine-adjust page, the motif field opens the
// catalog picker, and play force-stops.
func (e *Engine) alternate(now time.Time) {
	f := e.cursorField()
	switch {
	case f == FieldPlay:
		if e.playIntent {
			e.stopPlayback(now)
		}
	case f == FieldMotif:
		e.openPicker(f, now)
	case f.opensSubMenu():
		e.openSubMenu(f, now)
	default:
		e.adjustField(f, -1, now)
	}
}

// togglePlay starts or stops audio from the play row.
func (e *Engine) togglePlay(now time.Time) {
	if e.playIntent {
		e.stopPlayback(now)
		return
	}
	e.playIntent = true
	e.startPlayback(now)
	if e.page == pageFatal {
		return
	}
	if !e.pendingBuild {
		e.toast(now, "PLAY")
	}
	e.emitState(now)
}

// stopPlayback withdraws the play intent, abandoning any pending build
// delivery.
func (e *Engine) stopPlayback(now time.Time) {
	e.playIntent = false
	e.pendingBuild = false
	e.sup.Stop(playback.StopGrace)
	e.topo = topoNone
	e.gen = nil
	e.toast(now, "STOP")
	e.emitState(now)
}

// adjustField applies one step to a field. delta is +1 for select, -1
// for the backward alternate; sub-menus reuse it for both directions.
func (e *Engine) adjustField(f Field, delta int, now time.Time) {
	switch f {
	case FieldMode:
		e.cfg.Mode = cycleString(e.cfg.Mode, modeNameCycle(), delta)
		e.cursor = 0
		e.toast(now, "Mode: "+modeLabel(e.modeKind()))
		e.applyChange(now)
	case FieldWave:
		e.cfg.Wave = cycleString(e.cfg.Wave, waveChoices(), delta)
		e.toast(now, "Wave: "+strings.ToUpper(e.cfg.Wave))
		e.applyChange(now)
	case FieldFreq:
		e.adjustFreq(now, delta)
	case FieldStart:
		e.cfg.StartHz = clampFloat(e.cfg.StartHz+float64(delta)*bandStep, minFreqHz, e.cfg.EndHz)
		e.toast(now, fmt.Sprintf("Start: %.0f Hz", e.cfg.StartHz))
		e.applyChange(now)
	case FieldEnd:
		e.cfg.EndHz = clampFloat(e.cfg.EndHz+float64(delta)*bandStep, e.cfg.StartHz, maxFreqHz)
		e.toast(now, fmt.Sprintf("End: %.0f Hz", e.cfg.EndHz))
		e.applyChange(now)
	case FieldDir:
		e.cfg.Dir = cycleString(e.cfg.Dir, directionChoices(e.modeKind()), delta)
		e.toast(now, "Direction: "+strings.ToUpper(e.cfg.Dir))
		e.applyChange(now)
	case FieldPulse:
		e.cfg.PulseMs = cycleInt(e.cfg.PulseMs, synth.PulseRates(), delta)
		e.toast(now, fmt.Sprintf("Pulse: %dms", e.cfg.PulseMs))
		e.applyChange(now)
	case FieldOn:
		e.cfg.OnMs = clampInt(e.cfg.OnMs+delta*windowStep, synth.MinWindowMs, synth.MaxWindowMs)
		e.toast(now, fmt.Sprintf("On: %dms", e.cfg.OnMs))
		e.applyChange(now)
	case FieldOff:
		e.cfg.OffMs = clampInt(e.cfg.OffMs+delta*windowStep, synth.MinWindowMs, synth.MaxWindowMs)
		e.toast(now, fmt.Sprintf("Off: %dms", e.cfg.OffMs))
		e.applyChange(now)
	case FieldMotif:
		e.cfg.Motif = cycleString(e.cfg.Motif, e.lib.Names(), delta)
		e.toast(now, "Motif: "+e.cfg.Motif)
		e.applyChange(now)
	case FieldVolume:
		e.adjustVolume(now, delta)
	}
}

// applyChange persists an accepted parameter change and restarts any
// active audio so the new value becomes audible. Live-tunable
// streaming parameters take the cheap path in their own setters
// instead.
func (e *Engine) applyChange(now time.Time) {
	e.saveConfig()
	if e.playIntent {
		e.startPlayback(now)
	}
	if e.page != pageFatal {
		e.emitState(now)
	}
}

// adjustVolume steps the volume grid. A streaming session follows the
// dial through the gain stage without a restart; loop files re-render.
func (e *Engine) adjustVolume(now time.Time, delta int) {
	v := clampInt(e.cfg.Volume+delta*volumeStep, 0, 100)
	e.toast(now, fmt.Sprintf("Volume: %d", v))
	if v == e.cfg.Volume {
		e.emitState(now)
		return
	}
	e.cfg.Volume = v
	e.saveConfig()
	if e.playIntent && e.topo == topoStream {
		e.sup.SetGain(synth.Gain(v))
		e.emitState(now)
		return
	}
	if e.playIntent {
		e.startPlayback(now)
	}
	if e.page != pageFatal {
		e.emitState(now)
	}
}

// adjustFreq walks the tone frequency by semitones. A playing tone
// stream retunes in place, keeping the oscillator phase.
func (e *Engine) adjustFreq(now time.Time, delta int) {
	f := e.cfg.FreqHz
	if delta > 0 {
		f *= semitone
	} else {
		f /= semitone
	}
	f = clampFloat(f, minFreqHz, maxFreqHz)
	e.cfg.FreqHz = f
	e.toast(now, fmt.Sprintf("Freq: %.0f Hz", f))
	e.saveConfig()
	if e.playIntent && e.topo == topoStream {
		if osc, ok := e.gen.(*synth.Osc); ok {
			osc.SetFreq(f)
			e.emitState(now)
			return
		}
	}
	if e.playIntent {
		e.startPlayback(now)
	}
	if e.page != pageFatal {
		e.emitState(now)
	}
}

// openSubMenu enters the fine-adjust page for a numeric field.
func (e *Engine) openSubMenu(f Field, now time.Time) {
	e.page = pageSub
	e.pageField = f
	e.emit.Page(e.pageName())
	e.emitState(now)
}

// handleSubMenu adjusts the bound field in both directions; select
// closes the page. Changes apply immediately, so backing out never
// reverts anything.
func (e *Engine) handleSubMenu(cmd proto.Command, now time.Time) {
	switch cmd {
	case proto.CmdUp:
		e.adjustField(e.pageField, +1, now)
	case proto.CmdDown:
		e.adjustField(e.pageField, -1, now)
	case proto.CmdSelect, proto.CmdSelectHold:
		e.closeSubPage(now)
	}
}

// openPicker enters the scroll list for the motif catalog, positioned
// on the current selection.
func (e *Engine) openPicker(f Field, now time.Time) {
	names := e.lib.Names()
	e.page = pagePicker
	e.pageField = f
	e.pickerIdx = 0
	for i, name := range names {
		if name == e.cfg.Motif {
			e.pickerIdx = i
			break
		}
	}
	e.emit.Page(e.pageName())
	if len(names) > 0 {
		e.toast(now, "Motif: "+names[e.pickerIdx])
	}
	e.emitState(now)
}

// handlePicker scrolls the candidate list, toasting the highlight;
// select commits it, back (handled upstream) abandons it.
func (e *Engine) handlePicker(cmd proto.Command, now time.Time) {
	names := e.lib.Names()
	if len(names) == 0 {
		e.closeSubPage(now)
		return
	}
	n := len(names)
	switch cmd {
	case proto.CmdUp:
		e.pickerIdx = ((e.pickerIdx-1)%n + n) % n
		e.toast(now, "Motif: "+names[e.pickerIdx])
		e.emitState(now)
	case proto.CmdDown:
		e.pickerIdx = (e.pickerIdx + 1) % n
		e.toast(now, "Motif: "+names[e.pickerIdx])
		e.emitState(now)
	case proto.CmdSelect, proto.CmdSelectHold:
		e.cfg.Motif = names[e.pickerIdx]
		e.closeSubPage(now)
		e.toast(now, "Motif: "+e.cfg.Motif)
		e.applyChange(now)
	}
}

// closeSubPage returns to the main page from a sub-menu or picker.
func (e *Engine) closeSubPage(now time.Time) {
	e.page = pageMain
	e.pageField = ""
	e.emit.Page(e.pageName())
	e.emitState(now)
}
