package synth

import "math/bits"

// pinkRows is the number of octave-spaced update rows in the
// Voss-McCartney pink noise generator.
const pinkRows = 16

type whiteNoise struct {
	rng *LCG
}

// NewWhite returns a flat-spectrum noise generator.
func NewWhite(seed uint32) Generator {
	return &whiteNoise{rng: NewLCG(seed)}
}

func (w *whiteNoise) Fill(dst []float64) {
	for i := range dst {
		dst[i] = w.rng.Float()
	}
}

// pinkNoise implements Voss-McCartney: pinkRows rows refresh at halving
// rates and their running sum plus one white term approximates a
// -3 dB/octave slope. The trailing-zero count of a sample counter picks
// the row to refresh, so each sample touches exactly one row.
type pinkNoise struct {
	rng     *LCG
	rows    [pinkRows]float64
	running float64
	counter uint32
}

// NewPink returns a -3 dB/octave noise generator.
func NewPink(seed uint32) Generator {
	return &pinkNoise{rng: NewLCG(seed)}
}

func (p *pinkNoise) Fill(dst []float64) {
	for i := range dst {
		p.counter++
		row := bits.TrailingZeros32(p.counter)
		if row >= pinkRows {
			row = pinkRows - 1
		}
		p.running -= p.rows[row]
		v := p.rng.Float()
		p.rows[row] = v
		p.running += v
		white := p.rng.Float()
		dst[i] = (p.running + white) / float64(pinkRows+1)
	}
}

const (
	brownLeak = 0.999
	brownStep = 0.02
	brownGain = 3.5
)

// brownNoise integrates white noise through a leaky accumulator. The
// leak keeps the walk from drifting off-center. Streaming cannot know
// its future peak, so a fixed makeup gain plus clamp stands in for the
// whole-buffer peak normalization the pattern path applies.
type brownNoise struct {
	rng *LCG
	y   float64
}

// NewBrown returns a -6 dB/octave noise generator.
func NewBrown(seed uint32) Generator {
	return &brownNoise{rng: NewLCG(seed)}
}

func (b *brownNoise) Fill(dst []float64) {
	for i := range dst {
		b.y = brownLeak*b.y + brownStep*b.rng.Float()
		dst[i] = clampFloat(b.y*brownGain, -1, 1)
	}
}
