package motif

import (
	"context"
	"fmt"
	"math"

	"github.com/GhostGeeks/UAP-Generator/internal/synth"
)

// chunkSeconds is the render granularity: normalization, progress
// reporting and cancellation checks all happen on chunk boundaries.
const chunkSeconds = 5

// chunkHeadroom caps each chunk's peak. Layer stacks are authored to
// sum below this, so normalization only kicks in when layers align
// constructively.
const chunkHeadroom = 0.95

// voice produces one layer's contribution at absolute time t.
// Voices are called once per sample in strictly increasing t order;
// stateful voices (breath) rely on that.
type voice func(t float64) float64

// Render mixes the definition into a mono pattern.
//
// Progress is reported once per chunk with pct in [0,100] and the
// current step label; labels advance every second chunk and wrap around
// on long renders. ctx is checked between chunks, so cancellation
// wastes at most one chunk of work.
func Render(ctx context.Context, def Definition, progress func(pct int, step string)) (synth.Pattern, error) {
	if err := def.Validate(); err != nil {
		return synth.Pattern{}, err
	}
	if len(def.Steps) == 0 {
		def.Steps = []string{"Rendering"}
	}

	voices := make([]voice, len(def.Layers))
	for i, l := range def.Layers {
		voices[i] = newVoice(l)
	}

	total := int(def.DurationS * float64(def.SampleRate))
	chunk := chunkSeconds * def.SampleRate
	samples := make([]float64, 0, total)

	for start := 0; start < total; start += chunk {
		if err := ctx.Err(); err != nil {
			return synth.Pattern{}, err
		}

		n := chunk
		if start+n > total {
			n = total - start
		}

		buf := make([]float64, n)
		for i := range buf {
			t := float64(start+i) / float64(def.SampleRate)
			var sum float64
			for _, v := range voices {
				sum += v(t)
			}
			buf[i] = sum
		}
		normalizeChunk(buf)
		samples = append(samples, buf...)

		if progress != nil {
			done := start + n
			pct := done * 100 / total
			c := start / chunk
			progress(pct, def.Steps[(c/2)%len(def.Steps)])
		}
	}

	return synth.Pattern{
		Rate:     def.SampleRate,
		Channels: 1,
		Samples:  samples,
	}, nil
}

// normalizeChunk rescales in place when the chunk peak exceeds the
// headroom ceiling.
func normalizeChunk(buf []float64) {
	var peak float64
	for _, s := range buf {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak > chunkHeadroom {
		scale := chunkHeadroom / peak
		for i := range buf {
			buf[i] *= scale
		}
	}
}

// newVoice compiles one layer into its sample function. Layers are
// validated before this point; an unknown kind here is a programming
// error.
func newVoice(l Layer) voice {
	switch l.Kind {
	case KindAMCarrier:
		return amCarrierVoice(l)
	case KindHarmonics:
		return harmonicsVoice(l)
	case KindPing:
		return pingVoice(l)
	case KindChirp:
		return chirpVoice(l)
	case KindPad:
		return padVoice(l)
	case KindBreath:
		return breathVoice(l)
	}
	panic(fmt.Sprintf("motif: unvalidated layer kind %q", l.Kind))
}

// amCarrierVoice is a carrier tone amplitude-modulated at ModHz. The
// modulator swings the level over [0,1], so the voice fully silences at
// the modulation trough.
func amCarrierVoice(l Layer) voice {
	return func(t float64) float64 {
		mod := 0.5 * (1.0 + math.Sin(2*math.Pi*l.ModHz*t))
		return math.Sin(2*math.Pi*l.FreqHz*t) * mod * l.Amp
	}
}

// harmonicsVoice stacks integer overtones of FreqHz with the given
// weights, slightly detuned by a slow multiplicative wobble.
func harmonicsVoice(l Layer) voice {
	return func(t float64) float64 {
		var sig float64
		for i, w := range l.Weights {
			sig += w * math.Sin(2*math.Pi*l.FreqHz*float64(i+1)*t)
		}
		wobble := 1.0 + l.WobbleDepth*math.Sin(2*math.Pi*l.WobbleHz*t)
		return sig * wobble * l.Amp
	}
}

// pingVoice emits a sin^2-enveloped burst of FreqHz at the top of every
// period. The burst phase tracks absolute time, not burst-relative
// time, so consecutive pings are not phase-aligned.
func pingVoice(l Layer) voice {
	return func(t float64) float64 {
		cycle := math.Mod(t, l.PeriodS)
		if cycle >= l.WidthS {
			return 0
		}
		env := math.Sin(math.Pi * (cycle / l.WidthS))
		env *= env
		return math.Sin(2*math.Pi*l.FreqHz*t) * env * l.Amp
	}
}

// chirpVoice emits a linear StartHz→EndHz glide at the top of every
// period, under the same sin^2 envelope as pings. Phase is the integral
// of the instantaneous frequency over the burst.
func chirpVoice(l Layer) voice {
	k := (l.EndHz - l.StartHz) / l.WidthS
	return func(t float64) float64 {
		cycle := math.Mod(t, l.PeriodS)
		if cycle >= l.WidthS {
			return 0
		}
		phase := 2 * math.Pi * (l.StartHz*cycle + 0.5*k*cycle*cycle)
		env := math.Sin(math.Pi * (cycle / l.WidthS))
		env *= env
		return math.Sin(phase) * env * l.Amp
	}
}

// padVoice sums detuned partials (FreqHz times each ratio, each with
// its own starting phase) under a slow tremolo. The tremolo level
// swings over [1-2*depth, 1], never fully muting the pad.
func padVoice(l Layer) voice {
	return func(t float64) float64 {
		var pad float64
		for i, r := range l.Ratios {
			pad += l.Weights[i] * math.Sin(2*math.Pi*l.FreqHz*r*t+l.Phases[i])
		}
		trem := (1.0 - l.TremDepth) + l.TremDepth*math.Sin(2*math.Pi*l.TremHz*t)
		return pad * trem * l.Amp
	}
}

// breathVoice is smoothed seeded noise under an inhale/exhale envelope.
// The envelope rises as sin^2 through the inhale and decays as cos^2
// through the exhale, meeting at full level on the boundary.
//
// Smoothing is a trailing moving average over the last Smooth raw
// samples, which is what makes this the only order-dependent voice.
func breathVoice(l Layer) voice {
	rng := synth.NewLCG(l.Seed)
	ring := make([]float64, l.Smooth)
	var sum float64
	var idx int

	exhale := l.PeriodS - l.InhaleS
	return func(t float64) float64 {
		raw := rng.Float()
		sum += raw - ring[idx]
		ring[idx] = raw
		idx = (idx + 1) % len(ring)
		smooth := sum / float64(len(ring))

		cycle := math.Mod(t, l.PeriodS)
		var env float64
		if cycle < l.InhaleS {
			env = math.Sin(math.Pi * cycle / (2 * l.InhaleS))
		} else {
			env = math.Cos(math.Pi * (cycle - l.InhaleS) / (2 * exhale))
		}
		env *= env
		return smooth * env * l.Amp
	}
}
