// Package synth generates PCM audio for the UAP generator.
//
// Every voice is deterministic: the same parameter tuple produces a
// byte-identical sample stream on every platform. Randomness comes
// exclusively from a 32-bit linear congruential generator (lcg.go),
// never from math/rand, so renders can be cached under a parameter hash
// and compared against golden files.
//
// Two synthesis shapes exist:
//
//   - Streaming: a Generator fills fixed-size blocks on demand while an
//     audio sink is running. Cheap per-sample modes (noise colors,
//     tones, pulse trains) use this path.
//   - Patterns: a fully rendered buffer the sink plays from a WAV file
//     in a loop (static scans, Shepard cycles, motifs). Pattern renders
//     carry short edge fades so looping is click-free.
package synth

// A Generator produces successive PCM samples in [-1, 1].
//
// Fill writes exactly len(dst) samples and advances internal state
// (PRNG position, phase accumulators). Generators are not safe for
// concurrent use; the playback loop owns one generator at a time.
type Generator interface {
	Fill(dst []float64)
}

// Gain converts a 0-100 volume setting to a linear amplitude factor.
// Out-of-range values are clamped rather than rejected: the engine
// validates on input, but a render must stay total for any stored
// config it is handed.
func Gain(volume int) float64 {
	return float64(clampInt(volume, 0, 100)) / 100.0
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
