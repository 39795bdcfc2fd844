package synth

import "math"

// Shepard glide parameters. Eight octave-spaced partials under a
// Gaussian loudness envelope (measured in log2-frequency space) produce
// the endless rising/falling illusion: over one cycle every partial
// glides exactly one octave while the envelope hands its weight to the
// neighbor, so the end of a cycle sounds identical to its start.
const (
	shepardPartials = 8
	shepardBaseHz   = 32.7 // C1; partial k occupies [base*2^k, base*2^(k+1))
	shepardSigma    = 1.6  // envelope width in octaves

	// ShepardCycle is the length of one full octave glide in seconds.
	// A pattern render of exactly one cycle loops seamlessly.
	ShepardCycle = 10.0
)

type shepard struct {
	rate   int
	dir    Direction
	t      float64 // seconds into the current cycle
	phases [shepardPartials]float64
}

// NewShepard returns the endless glide generator. dir selects rising
// (DirUp) or falling (DirDown); any other value rises.
func NewShepard(rate int, dir Direction) Generator {
	return &shepard{rate: rate, dir: dir}
}

func (s *shepard) Fill(dst []float64) {
	dt := 1.0 / float64(s.rate)
	center := float64(shepardPartials) / 2.0
	sigma2 := 2 * shepardSigma * shepardSigma
	for i := range dst {
		u := s.t / ShepardCycle
		u -= math.Floor(u)
		if s.dir == DirDown {
			u = 1 - u
		}
		var sum, wsum float64
		for k := 0; k < shepardPartials; k++ {
			pos := float64(k) + u // octaves above base
			d := pos - center
			w := math.Exp(-(d * d) / sigma2)
			sum += w * math.Sin(2*math.Pi*s.phases[k])
			wsum += w
			freq := shepardBaseHz * math.Exp2(pos)
			s.phases[k] += freq * dt
			s.phases[k] -= math.Floor(s.phases[k])
		}
		if wsum > 0 {
			dst[i] = sum / wsum
		}
		s.t += dt
	}
}
