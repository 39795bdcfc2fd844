package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
	"github.com/GhostGeeks/UAP-Generator/internal/synth"
)

// TestFields_RowOrders pins the cursor row order per mode: selector
// first, the mode's own parameters, volume, play.
func TestFields_RowOrders(t *testing.T) {
	assert.Equal(t,
		[]Field{FieldMode, FieldVolume, FieldPlay},
		fieldsFor(synth.ModeWhite))
	assert.Equal(t,
		[]Field{FieldMode, FieldWave, FieldFreq, FieldVolume, FieldPlay},
		fieldsFor(synth.ModeTone))
	assert.Equal(t,
		[]Field{FieldMode, FieldStart, FieldEnd, FieldDir, FieldPulse, FieldVolume, FieldPlay},
		fieldsFor(synth.ModeSweep))
	assert.Equal(t,
		[]Field{FieldMode, FieldDir, FieldVolume, FieldPlay},
		fieldsFor(synth.ModeShepard))
	assert.Equal(t,
		[]Field{FieldMode, FieldOn, FieldOff, FieldVolume, FieldPlay},
		fieldsFor(synth.ModePulse))
	assert.Equal(t,
		[]Field{FieldMode, FieldMotif, FieldVolume, FieldPlay},
		fieldsFor(synth.ModeMotif))
}

// TestCursor_WrapsBothWays walks the white-noise row list off both
// ends.
func TestCursor_WrapsBothWays(t *testing.T) {
	fx := newFixture(t, config.Defaults(), true)

	fx.cmd(proto.CmdDown)
	assert.Equal(t, "volume", fx.lastState()["cursor"])
	fx.cmd(proto.CmdDown)
	assert.Equal(t, "play", fx.lastState()["cursor"])
	fx.cmd(proto.CmdDown)
	assert.Equal(t, "mode", fx.lastState()["cursor"])

	fx.cmd(proto.CmdUp)
	assert.Equal(t, "play", fx.lastState()["cursor"])
}

// TestModeCycle_EightStepsRoundTrip cycles the selector through the
// whole ring in both directions: eight presses forward and eight
// backward each return to the start.
func TestModeCycle_EightStepsRoundTrip(t *testing.T) {
	fx := newFixture(t, config.Defaults(), true)

	forward := []string{"pink", "brown", "tone", "sweep", "shepard", "pulse", "motif", "white"}
	for _, want := range forward {
		fx.cmd(proto.CmdSelect)
		assert.Equal(t, want, fx.cfg.Mode)
	}

	backward := []string{"motif", "pulse", "shepard", "sweep", "tone", "brown", "pink", "white"}
	for _, want := range backward {
		fx.cmd(proto.CmdSelectHold)
		assert.Equal(t, want, fx.cfg.Mode)
	}

	assert.Equal(t, "white", fx.lastState()["mode"])
	assert.Equal(t, "mode", fx.lastState()["cursor"])
}

// TestSubMenu_FineAdjustFrequency exercises the submenu page: open via
// select-hold, step by semitones in both directions, close via select
// or back.
func TestSubMenu_FineAdjustFrequency(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "tone"
	fx := newFixture(t, cfg, true)

	fx.cmd(proto.CmdDown)
	fx.cmd(proto.CmdDown)
	require.Equal(t, "freq_hz", fx.lastState()["cursor"])

	fx.cmd(proto.CmdSelectHold)
	assert.Equal(t, "submenu:freq_hz", fx.lastState()["page"])

	fx.cmd(proto.CmdUp)
	assert.InDelta(t, 432*semitone, fx.cfg.FreqHz, 0.01)
	fx.cmd(proto.CmdDown)
	assert.InDelta(t, 432, fx.cfg.FreqHz, 0.01)

	fx.cmd(proto.CmdSelect)
	assert.Equal(t, "main", fx.lastState()["page"])

	// back also closes, without reverting the applied steps
	fx.cmd(proto.CmdSelectHold)
	fx.cmd(proto.CmdUp)
	done := fx.cmd(proto.CmdBack)
	assert.False(t, done, "back on a sub-page must not exit")
	assert.Equal(t, "main", fx.lastState()["page"])
	assert.InDelta(t, 432*semitone, fx.cfg.FreqHz, 0.01)
}

// TestPulse_WindowStepsAndDerivedDuty steps the pulse windows and
// checks the state reports the duty the gate will actually use.
func TestPulse_WindowStepsAndDerivedDuty(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "pulse"
	fx := newFixture(t, cfg, true)

	fx.cmd(proto.CmdDown)
	require.Equal(t, "on_ms", fx.lastState()["cursor"])

	fx.cmd(proto.CmdSelect)
	assert.Equal(t, 300, fx.cfg.OnMs)
	st := fx.lastState()
	assert.Equal(t, float64(300), st["on_ms"])
	assert.Equal(t, float64(55), st["duty"], "300/550 rounds to 55 percent")

	fx.cmd(proto.CmdSelectHold)
	require.Equal(t, "submenu:on_ms", fx.lastState()["page"])
	fx.cmd(proto.CmdDown)
	assert.Equal(t, 250, fx.cfg.OnMs)
	fx.cmd(proto.CmdSelect)
	assert.Equal(t, float64(50), fx.lastState()["duty"])
}

// TestBand_EdgesClampAgainstEachOther keeps the scan band well formed:
// the floor can never pass the ceiling.
func TestBand_EdgesClampAgainstEachOther(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "sweep"
	cfg.StartHz = 4150
	fx := newFixture(t, cfg, true)

	fx.cmd(proto.CmdDown)
	require.Equal(t, "start_hz", fx.lastState()["cursor"])

	fx.cmd(proto.CmdSelect)
	assert.Equal(t, 4200.0, fx.cfg.StartHz)
	fx.cmd(proto.CmdSelect)
	assert.Equal(t, 4200.0, fx.cfg.StartHz, "floor stops at the ceiling")

	fx.cmd(proto.CmdDown)
	require.Equal(t, "end_hz", fx.lastState()["cursor"])
	fx.cmd(proto.CmdSelect)
	assert.Equal(t, 4250.0, fx.cfg.EndHz)
}

// TestPicker_CommitAndAbandon scrolls the motif catalog: select
// commits the highlight, back leaves the selection untouched.
func TestPicker_CommitAndAbandon(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "motif"
	fx := newFixture(t, cfg, true)

	fx.cmd(proto.CmdDown)
	require.Equal(t, "motif", fx.lastState()["cursor"])

	fx.cmd(proto.CmdSelectHold)
	assert.Equal(t, "picker:motif", fx.lastState()["page"])

	fx.cmd(proto.CmdDown) // uap3 -> zebra
	fx.cmd(proto.CmdSelect)
	assert.Equal(t, "zebra", fx.cfg.Motif)
	st := fx.lastState()
	assert.Equal(t, "main", st["page"])
	assert.Equal(t, "zebra", st["motif"])

	fx.cmd(proto.CmdSelectHold)
	fx.cmd(proto.CmdUp) // zebra -> uap3 highlight only
	done := fx.cmd(proto.CmdBack)
	assert.False(t, done)
	assert.Equal(t, "zebra", fx.cfg.Motif, "back abandons the highlight")
	assert.Equal(t, "main", fx.lastState()["page"])
}

// TestModeChange_RestartsActiveStream verifies an audible parameter
// change relaunches the session with the new program.
func TestModeChange_RestartsActiveStream(t *testing.T) {
	fx := newFixture(t, config.Defaults(), true)

	fx.cmd(proto.CmdUp)
	fx.cmd(proto.CmdSelect)
	require.Equal(t, 1, fx.sink.streamStarts)

	fx.cmd(proto.CmdDown) // wrap back to the selector
	require.Equal(t, "mode", fx.lastState()["cursor"])
	fx.cmd(proto.CmdSelect)
	assert.Equal(t, "pink", fx.cfg.Mode)
	assert.Equal(t, 2, fx.sink.streamStarts)
	assert.Equal(t, true, fx.lastState()["playing"])
}

// TestFreq_RetunesLiveStream verifies the tone oscillator follows the
// frequency field without a session restart, while a waveform change
// relaunches.
func TestFreq_RetunesLiveStream(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "tone"
	fx := newFixture(t, cfg, true)

	fx.cmd(proto.CmdUp)
	fx.cmd(proto.CmdSelect)
	require.Equal(t, 1, fx.sink.streamStarts)

	fx.cmd(proto.CmdUp) // volume
	fx.cmd(proto.CmdUp) // freq
	require.Equal(t, "freq_hz", fx.lastState()["cursor"])
	fx.cmd(proto.CmdSelect)
	assert.InDelta(t, 432*semitone, fx.cfg.FreqHz, 0.01)
	assert.Equal(t, 1, fx.sink.streamStarts, "retune must keep the session")

	fx.cmd(proto.CmdUp) // wave
	require.Equal(t, "wave", fx.lastState()["cursor"])
	fx.cmd(proto.CmdSelect)
	assert.Equal(t, "square", fx.cfg.Wave)
	assert.Equal(t, 2, fx.sink.streamStarts, "waveform change restarts")
}

// TestPlay_SelectHoldForceStops verifies the play row's alternate
// action: stop when playing, nothing when already stopped.
func TestPlay_SelectHoldForceStops(t *testing.T) {
	fx := newFixture(t, config.Defaults(), true)

	fx.cmd(proto.CmdUp)
	fx.cmd(proto.CmdSelect)
	require.Equal(t, true, fx.lastState()["playing"])

	fx.cmd(proto.CmdSelectHold)
	assert.Equal(t, false, fx.lastState()["playing"])
	fx.ticks(6)
	assert.Contains(t, fx.toasts(), "STOP")

	before := len(fx.toasts())
	fx.cmd(proto.CmdSelectHold)
	fx.ticks(6)
	assert.Equal(t, false, fx.lastState()["playing"])
	assert.Len(t, fx.toasts(), before, "hold while stopped is silent")
}
