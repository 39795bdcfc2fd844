package synth

import (
	"context"
	"math"
	"time"
)

// Output formats. Streaming always runs at StreamRate/StreamChannels;
// pattern renders keep the rates of the hardware profile they were
// tuned on (noise loops ship stereo at 44.1k, scan patterns mono at
// 22.05k to hold render cost down on the Pi).
const (
	StreamRate     = 48000
	StreamChannels = 2

	LoopRate     = 44100
	loopChannels = 2
	loopSeconds  = 10
	loopFadeMs   = 35

	// patternHeadroom keeps rendered peaks clear of int16 full scale.
	patternHeadroom = 0.8
)

// Pattern is a fully rendered PCM buffer with its format.
type Pattern struct {
	Rate     int
	Channels int
	Samples  []float64 // interleaved frames when Channels > 1
}

// Frames returns the per-channel sample count.
func (p *Pattern) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the play time of one pass through the pattern.
func (p *Pattern) Duration() time.Duration {
	if p.Rate == 0 {
		return 0
	}
	return time.Duration(float64(p.Frames()) / float64(p.Rate) * float64(time.Second))
}

// RenderNoiseLoop renders a seamless ten-second loop of any streaming
// mode: stereo interleave, edge fades, volume and headroom baked in.
// Brown noise is peak-normalized over the whole buffer here, which the
// streaming path can only approximate with a clamp.
//
// The loop render exists for offline export and for sinks that can only
// play files; live playback prefers the streaming path.
func RenderNoiseLoop(m Mode, volume int) (*Pattern, error) {
	return RenderNoiseLoopSeconds(m, volume, loopSeconds)
}

// RenderNoiseLoopSeconds is RenderNoiseLoop with an explicit length,
// for offline export.
func RenderNoiseLoopSeconds(m Mode, volume, seconds int) (*Pattern, error) {
	g, err := NewGenerator(m, volume, LoopRate)
	if err != nil {
		return nil, err
	}
	frames := LoopRate * seconds
	mono := make([]float64, frames)
	g.Fill(mono)
	if m.Kind == ModeBrown {
		normalizePeak(mono, 1.0)
	}

	amp := Gain(volume) * patternHeadroom
	out := make([]float64, frames*loopChannels)
	for i, s := range mono {
		v := s * amp
		out[2*i] = v
		out[2*i+1] = v
	}
	ApplyEdgeFades(out, LoopRate, loopChannels, loopFadeMs)
	return &Pattern{Rate: LoopRate, Channels: loopChannels, Samples: out}, nil
}

// RenderShepardLoop renders exactly one glide cycle so the file loops
// into an endless rise or fall. Work proceeds in one-second chunks:
// progress (nil ok) is reported as a 0-100 percentage after each chunk
// and ctx cancellation is honored between chunks.
func RenderShepardLoop(ctx context.Context, dir Direction, volume int, progress func(pct int)) (*Pattern, error) {
	const rate = LoopRate
	g := NewShepard(rate, dir)
	frames := int(ShepardCycle * rate)
	buf := make([]float64, frames)

	for off := 0; off < frames; off += rate {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := off + rate
		if end > frames {
			end = frames
		}
		g.Fill(buf[off:end])
		if progress != nil {
			progress(end * 100 / frames)
		}
	}

	amp := Gain(volume) * patternHeadroom
	for i := range buf {
		buf[i] *= amp
	}
	ApplyEdgeFades(buf, rate, 1, loopFadeMs)
	return &Pattern{Rate: rate, Channels: 1, Samples: buf}, nil
}

// normalizePeak scales buf so its absolute peak sits at target. A
// silent buffer is left untouched.
func normalizePeak(buf []float64, target float64) {
	peak := 0.0
	for _, s := range buf {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	k := target / peak
	for i := range buf {
		buf[i] *= k
	}
}
