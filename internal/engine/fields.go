package engine

import (
	"github.com/GhostGeeks/UAP-Generator/internal/synth"
)

// Field identifies one adjustable row on the main page. The value is
// the wire name carried in the state cursor.
type Field string

const (
	FieldMode   Field = "mode"
	FieldWave   Field = "wave"
	FieldFreq   Field = "freq_hz"
	FieldStart  Field = "start_hz"
	FieldEnd    Field = "end_hz"
	FieldDir    Field = "direction"
	FieldPulse  Field = "pulse_ms"
	FieldOn     Field = "on_ms"
	FieldOff    Field = "off_ms"
	FieldMotif  Field = "motif"
	FieldVolume Field = "volume"
	FieldPlay   Field = "play"
)

// fieldsFor returns the cursor row order for a mode: the mode selector
// first, that mode's own parameters, then volume and the play control.
func fieldsFor(kind synth.ModeKind) []Field {
	switch kind {
	case synth.ModeTone:
		return []Field{FieldMode, FieldWave, FieldFreq, FieldVolume, FieldPlay}
	case synth.ModeSweep:
		return []Field{FieldMode, FieldStart, FieldEnd, FieldDir, FieldPulse, FieldVolume, FieldPlay}
	case synth.ModeShepard:
		return []Field{FieldMode, FieldDir, FieldVolume, FieldPlay}
	case synth.ModePulse:
		return []Field{FieldMode, FieldOn, FieldOff, FieldVolume, FieldPlay}
	case synth.ModeMotif:
		return []Field{FieldMode, FieldMotif, FieldVolume, FieldPlay}
	default:
		return []Field{FieldMode, FieldVolume, FieldPlay}
	}
}

// opensSubMenu reports whether select-hold on the field opens the
// fine-adjust sub-page instead of stepping backward.
func (f Field) opensSubMenu() bool {
	switch f {
	case FieldFreq, FieldStart, FieldEnd, FieldOn, FieldOff:
		return true
	}
	return false
}

// Adjustment grids.
const (
	volumeStep = 5
	windowStep = 50 // ms, pulse on/off windows
	bandStep   = 50 // Hz, sweep band edges
	minFreqHz  = 20
	maxFreqHz  = 20000

	// semitone is one equal-temperament step. The tone field walks the
	// frequency range musically; a linear step would crawl at the top of
	// the range and leap at the bottom.
	semitone = 1.0594630943592953
)

var modeLabels = map[synth.ModeKind]string{
	synth.ModeWhite:   "White",
	synth.ModePink:    "Pink",
	synth.ModeBrown:   "Brown",
	synth.ModeTone:    "Tone",
	synth.ModeSweep:   "Sweep",
	synth.ModeShepard: "Shepard",
	synth.ModePulse:   "Pulse",
	synth.ModeMotif:   "Motif",
}

// modeLabel is the display spelling used in toasts.
func modeLabel(k synth.ModeKind) string {
	if l, ok := modeLabels[k]; ok {
		return l
	}
	return k.String()
}

// modeNameCycle lists the mode names in selector order.
func modeNameCycle() []string {
	kinds := synth.ModeKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// waveChoices lists waveform names in cycling order.
func waveChoices() []string {
	ws := synth.Waveforms()
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = string(w)
	}
	return out
}

// directionChoices lists the orientations legal for a mode: Shepard
// glides only rise or fall, scans also walk a bell.
func directionChoices(kind synth.ModeKind) []string {
	var dirs []synth.Direction
	if kind == synth.ModeShepard {
		dirs = synth.GlideDirections()
	} else {
		dirs = synth.SweepDirections()
	}
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = string(d)
	}
	return out
}

// cycleString advances v through choices by delta, wrapping at both
// ends. A value not on the list is treated as the first choice.
func cycleString(v string, choices []string, delta int) string {
	idx := 0
	for i, c := range choices {
		if c == v {
			idx = i
			break
		}
	}
	n := len(choices)
	idx = ((idx+delta)%n + n) % n
	return choices[idx]
}

// cycleInt advances v through an integer grid by delta, wrapping.
func cycleInt(v int, choices []int, delta int) int {
	idx := 0
	for i, c := range choices {
		if c == v {
			idx = i
			break
		}
	}
	n := len(choices)
	idx = ((idx+delta)%n + n) % n
	return choices[idx]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
