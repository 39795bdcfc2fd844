package synth

import (
	"context"
	"math"
)

// Static scan parameters. The pattern is a train of short resonant
// noise bursts whose center frequency walks a band, one burst per pulse
// period, padded with silence to a fixed length so the loop point is
// always on the grid.
const (
	ScanRate    = 22050
	ScanSeconds = 9.0

	scanBurstMs = 38
	scanFadeMs  = 2
	scanPole    = 0.985 // resonator pole radius
	scanScale   = 0.95
)

// ScanParams parameterize one static scan render.
type ScanParams struct {
	StartHz float64   // band floor
	EndHz   float64   // band ceiling
	Dir     Direction // walk orientation
	PulseMs int       // burst grid period
	Volume  int
}

// scanSeed mixes every audible parameter into the PRNG seed so a given
// (rate, direction, band, volume) tuple always reproduces the same
// scan.
func scanSeed(p ScanParams) uint32 {
	seed := uint32(p.PulseMs) * 1315423911
	switch p.Dir {
	case DirDown:
		seed ^= 0x9E3779B9
	case DirBell:
		seed ^= 0xABCDEF
	default:
		seed ^= 0x1234567
	}
	seed ^= 0x515745 + uint32(clampInt(p.Volume, 0, 100))*17
	seed ^= uint32(p.StartHz) ^ uint32(p.EndHz)<<8
	return seed
}

// RenderStaticScan renders the scan pattern: ScanSeconds of mono audio
// at ScanRate, one resonant burst per PulseMs. Band progress is skewed
// (u' = 0.15u + 0.85u^0.6) so the walk dwells longer near the band
// ceiling, and each burst is peak-normalized before its envelope so
// narrow resonances stay audible next to broad ones.
func RenderStaticScan(ctx context.Context, p ScanParams) (*Pattern, error) {
	start := clampFloat(p.StartHz, 20, 20000)
	end := clampFloat(p.EndHz, 20, 20000)
	if end < start {
		start, end = end, start
	}
	periodMs := p.PulseMs
	if periodMs < MinWindowMs {
		periodMs = MinWindowMs
	}

	total := int(ScanSeconds * ScanRate)
	out := make([]float64, total)
	rng := NewLCG(scanSeed(p))

	periodN := ScanRate * periodMs / 1000
	burstN := ScanRate * scanBurstMs / 1000
	fadeN := ScanRate * scanFadeMs / 1000
	amp := Gain(p.Volume) * scanScale
	burst := make([]float64, burstN)

	for off := 0; off < total; off += periodN {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		u := float64(off) / float64(total)
		pos := SweepPos(p.Dir, u)
		pos = 0.15*pos + 0.85*math.Pow(pos, 0.6)
		freq := SweepFreq(start, end, pos)

		// two-pole resonator centered on freq
		w := 2 * math.Pi * freq / ScanRate
		a1 := 2 * scanPole * math.Cos(w)
		a2 := -scanPole * scanPole
		b0 := 1 - scanPole

		n := burstN
		if off+n > total {
			n = total - off
		}
		var y1, y2 float64
		for i := 0; i < n; i++ {
			y := b0*rng.Float() + a1*y1 + a2*y2
			y2, y1 = y1, y
			burst[i] = y
		}
		normalizePeak(burst[:n], 1.0)
		for i := 0; i < n; i++ {
			env := 1.0
			if fadeN > 0 {
				if i < fadeN {
					env = float64(i) / float64(fadeN)
				} else if tail := n - i; tail <= fadeN {
					env = float64(tail) / float64(fadeN)
				}
			}
			out[off+i] = burst[i] * env * amp
		}
	}
	return &Pattern{Rate: ScanRate, Channels: 1, Samples: out}, nil
}
