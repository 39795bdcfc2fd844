package synth

// Gate and fade limits shared by pulse trains and pattern renders.
const (
	MinDutyPct = 5
	MaxDutyPct = 95
	MinFadeMs  = 2
	MaxFadeMs  = 35
)

// PulseGate multiplies a source generator by a rectangular on/off
// envelope with linear edge ramps. The gate owns the period grid; the
// source keeps running (and keeps consuming PRNG state) through the off
// window, so gating never changes the underlying stream.
//
// INVARIANT: over one full period the fraction of non-silent samples
// equals the duty setting. Ramp samples count as non-silent.
type PulseGate struct {
	src     Generator
	periodN int
	onN     int
	fadeN   int
	pos     int
}

// NewPulseGate wraps src in an on/off envelope. periodMs is the grid
// length, dutyPct the audible percentage (clamped to [MinDutyPct,
// MaxDutyPct]), fadeMs the edge ramp (clamped so both ramps fit inside
// the on window).
func NewPulseGate(src Generator, rate, periodMs, dutyPct, fadeMs int) *PulseGate {
	if periodMs < 1 {
		periodMs = 1
	}
	dutyPct = clampInt(dutyPct, MinDutyPct, MaxDutyPct)
	fadeMs = clampInt(fadeMs, MinFadeMs, MaxFadeMs)

	periodN := rate * periodMs / 1000
	if periodN < 2 {
		periodN = 2
	}
	onN := (periodN*dutyPct + 50) / 100
	if onN < 1 {
		onN = 1
	}
	fadeN := rate * fadeMs / 1000
	if fadeN > onN/2 {
		fadeN = onN / 2
	}
	return &PulseGate{src: src, periodN: periodN, onN: onN, fadeN: fadeN}
}

func (g *PulseGate) Fill(dst []float64) {
	g.src.Fill(dst)
	for i := range dst {
		dst[i] *= g.envelope(g.pos)
		g.pos++
		if g.pos >= g.periodN {
			g.pos = 0
		}
	}
}

// envelope returns the gate gain at sample pos within the period.
func (g *PulseGate) envelope(pos int) float64 {
	if pos >= g.onN {
		return 0
	}
	if g.fadeN > 0 {
		if pos < g.fadeN {
			return float64(pos+1) / float64(g.fadeN)
		}
		if tail := g.onN - pos; tail <= g.fadeN {
			return float64(tail) / float64(g.fadeN)
		}
	}
	return 1
}

// ApplyEdgeFades ramps the first and last fadeMs of buf linearly in
// place so a looped or restarted buffer never clicks. Frames fade as
// units: with interleaved stereo both channels share one ramp position.
func ApplyEdgeFades(buf []float64, rate, channels, fadeMs int) {
	if channels < 1 {
		channels = 1
	}
	frames := len(buf) / channels
	fadeN := rate * clampInt(fadeMs, MinFadeMs, MaxFadeMs) / 1000
	if fadeN > frames/2 {
		fadeN = frames / 2
	}
	for f := 0; f < fadeN; f++ {
		g := float64(f) / float64(fadeN)
		for c := 0; c < channels; c++ {
			buf[f*channels+c] *= g
			buf[(frames-1-f)*channels+c] *= g
		}
	}
}
