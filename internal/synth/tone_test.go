package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseWaveform covers the full shape vocabulary plus rejection.
func TestParseWaveform(t *testing.T) {
	for _, w := range Waveforms() {
		got, err := ParseWaveform(string(w))
		require.NoError(t, err)
		assert.Equal(t, w, got)
	}

	_, err := ParseWaveform("noise")
	assert.Error(t, err)
}

// TestOsc_SineFrequency counts negative-going zero crossings: 480 Hz at
// 48 kHz over 1000 samples is exactly ten cycles.
func TestOsc_SineFrequency(t *testing.T) {
	o := NewOsc(48000, 480, WaveSine)
	buf := fill(o, 1000)

	crossings := 0
	for i := 1; i < len(buf); i++ {
		if buf[i-1] >= 0 && buf[i] < 0 {
			crossings++
		}
	}
	assert.Equal(t, 10, crossings)
}

// TestOsc_SquareDuty verifies the square spends exactly half of each
// period high.
func TestOsc_SquareDuty(t *testing.T) {
	o := NewOsc(48000, 480, WaveSquare)
	buf := fill(o, 1000)

	high := 0
	for _, s := range buf {
		if s > 0 {
			high++
		}
	}
	assert.Equal(t, 500, high)
}

// TestOsc_PhaseCarry checks retuning keeps the accumulator instead of
// snapping back to zero.
func TestOsc_PhaseCarry(t *testing.T) {
	o := NewOsc(48000, 480, WaveSine)
	fill(o, 25) // quarter of a 100-sample period
	before := o.Phase()
	require.InDelta(t, 0.25, before, 1e-9)

	o.SetFreq(960)
	assert.Equal(t, before, o.Phase())
	assert.Equal(t, 960.0, o.Freq())
}

// TestOsc_SetPhase normalizes restored accumulators into [0, 1).
func TestOsc_SetPhase(t *testing.T) {
	o := NewOsc(48000, 100, WaveSine)
	o.SetPhase(2.75)
	assert.InDelta(t, 0.75, o.Phase(), 1e-12)
}

// TestSampleWave pins each shape at its reference phases.
func TestSampleWave(t *testing.T) {
	tests := []struct {
		wave  Waveform
		phase float64
		want  float64
	}{
		{WaveSine, 0, 0},
		{WaveSine, 0.25, 1},
		{WaveSine, 0.75, -1},
		{WaveSquare, 0.1, 1},
		{WaveSquare, 0.6, -1},
		{WaveSaw, 0, -1},
		{WaveSaw, 0.5, 0},
		{WaveTriangle, 0, -1},
		{WaveTriangle, 0.25, 0},
		{WaveTriangle, 0.5, 1},
		{WaveTriangle, 0.75, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, sampleWave(tt.wave, tt.phase), 1e-12,
			"%s at phase %v", tt.wave, tt.phase)
	}
}
