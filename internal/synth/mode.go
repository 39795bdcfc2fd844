package synth

import "fmt"

// ModeKind enumerates the closed set of sound programs.
type ModeKind int

const (
	ModeWhite ModeKind = iota
	ModePink
	ModeBrown
	ModeTone
	ModeSweep
	ModeShepard
	ModePulse
	ModeMotif
)

var modeNames = [...]string{
	"white", "pink", "brown", "tone", "sweep", "shepard", "pulse", "motif",
}

func (k ModeKind) String() string {
	if k < 0 || int(k) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(k))
	}
	return modeNames[k]
}

// ParseModeKind maps a config/wire name onto its kind. "static" is the
// legacy name for sweep carried by old config files.
func ParseModeKind(s string) (ModeKind, error) {
	for i, n := range modeNames {
		if s == n {
			return ModeKind(i), nil
		}
	}
	if s == "static" {
		return ModeSweep, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// ModeKinds lists every kind in UI cycling order.
func ModeKinds() []ModeKind {
	kinds := make([]ModeKind, len(modeNames))
	for i := range kinds {
		kinds[i] = ModeKind(i)
	}
	return kinds
}

// Pulse window limits and the rate-grid choices offered by the UI.
const (
	MinWindowMs = 50
	MaxWindowMs = 2000
)

// PulseRates are the period choices the rate field cycles through, in
// milliseconds.
func PulseRates() []int {
	return []int{150, 200, 250, 300}
}

// Mode is one fully parameterized sound program. Kind selects the
// variant; only the fields that variant names are meaningful, but the
// rest ride along untouched so switching kinds back and forth never
// loses settings.
type Mode struct {
	Kind ModeKind

	// Tone
	Wave   Waveform
	FreqHz float64

	// Sweep band
	StartHz float64
	EndHz   float64

	// Sweep and Shepard orientation
	Dir Direction

	// Pulse window
	OnMs  int
	OffMs int

	// Motif program name
	Motif string
}

// Streams reports whether the mode renders block-by-block into a live
// sink. The remaining kinds loop a pre-rendered pattern file.
func (m Mode) Streams() bool {
	switch m.Kind {
	case ModeSweep, ModeShepard, ModeMotif:
		return false
	}
	return true
}

// Buildable reports whether the mode's pattern is expensive enough to
// render on the build worker instead of inline. A scan pattern is a
// fraction of a second of work; Shepard cycles and motifs are not.
func (m Mode) Buildable() bool {
	return m.Kind == ModeShepard || m.Kind == ModeMotif
}

// StreamSeed derives the PRNG seed for live streaming from the audible
// parameters, so identical settings reproduce identical streams.
func StreamSeed(m Mode, volume int) uint32 {
	return 0xB10C0 + uint32(clampInt(volume, 0, 100)) + uint32(m.Kind)*1337
}

// NewGenerator builds the streaming voice for m, dispatching over the
// full closed set of kinds. Volume only feeds the seed here: the
// playback loop owns the gain stage so it can follow volume changes
// without restarting the stream. Kinds that exist only as patterns
// (sweep scans, motifs) return an error and go through RenderStaticScan
// or the motif library instead.
func NewGenerator(m Mode, volume, rate int) (Generator, error) {
	seed := StreamSeed(m, volume)
	switch m.Kind {
	case ModeWhite:
		return NewWhite(seed), nil
	case ModePink:
		return NewPink(seed), nil
	case ModeBrown:
		return NewBrown(seed), nil
	case ModeTone:
		return NewOsc(rate, m.FreqHz, m.Wave), nil
	case ModeShepard:
		return NewShepard(rate, m.Dir), nil
	case ModePulse:
		on := clampInt(m.OnMs, MinWindowMs, MaxWindowMs)
		off := clampInt(m.OffMs, MinWindowMs, MaxWindowMs)
		period := on + off
		duty := (on*100 + period/2) / period
		return NewPulseGate(NewWhite(seed), rate, period, duty, MinFadeMs), nil
	case ModeSweep:
		return nil, fmt.Errorf("sweep mode renders as a pattern")
	case ModeMotif:
		return nil, fmt.Errorf("motif %q renders via the motif library", m.Motif)
	}
	return nil, fmt.Errorf("unknown mode kind %d", int(m.Kind))
}
