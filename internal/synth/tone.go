package synth

import (
	"fmt"
	"math"
)

// Waveform selects the oscillator shape for tone modes.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveSaw      Waveform = "saw"
	WaveTriangle Waveform = "triangle"
)

// Waveforms lists every shape in UI cycling order.
func Waveforms() []Waveform {
	return []Waveform{WaveSine, WaveSquare, WaveSaw, WaveTriangle}
}

// ParseWaveform maps a config/wire name onto its waveform.
func ParseWaveform(s string) (Waveform, error) {
	switch Waveform(s) {
	case WaveSine, WaveSquare, WaveSaw, WaveTriangle:
		return Waveform(s), nil
	}
	return "", fmt.Errorf("unknown waveform %q", s)
}

// Osc is a fixed-frequency oscillator. Phase is tracked in cycles
// [0, 1) and survives retuning, so nudging the frequency of a playing
// tone never discontinues the waveform.
type Osc struct {
	rate  int
	freq  float64
	wave  Waveform
	phase float64
}

// NewOsc returns an oscillator at freq Hz rendered at rate samples/sec.
func NewOsc(rate int, freq float64, wave Waveform) *Osc {
	return &Osc{rate: rate, freq: freq, wave: wave}
}

// SetFreq retunes the oscillator in place, keeping the phase
// accumulator.
func (o *Osc) SetFreq(freq float64) { o.freq = freq }

// Freq reports the current frequency in Hz.
func (o *Osc) Freq() float64 { return o.freq }

// Phase reports the accumulator in cycles, for state carry-over.
func (o *Osc) Phase() float64 { return o.phase }

// SetPhase restores a saved accumulator, normalized into [0, 1).
func (o *Osc) SetPhase(p float64) { o.phase = p - math.Floor(p) }

func (o *Osc) Fill(dst []float64) {
	step := o.freq / float64(o.rate)
	for i := range dst {
		dst[i] = sampleWave(o.wave, o.phase)
		o.phase += step
		if o.phase >= 1 {
			o.phase -= math.Floor(o.phase)
		}
	}
}

// sampleWave evaluates one waveform at phase p in [0, 1). The triangle
// is phase-aligned to start at its trough so all shapes begin a cycle
// at full slope rather than at a discontinuity.
func sampleWave(w Waveform, p float64) float64 {
	switch w {
	case WaveSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2*p - 1
	case WaveTriangle:
		if p < 0.5 {
			return 4*p - 1
		}
		return 3 - 4*p
	default:
		return math.Sin(2 * math.Pi * p)
	}
}
