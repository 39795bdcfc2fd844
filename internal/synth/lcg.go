package synth

// LCG is the 32-bit linear congruential generator behind every
// stochastic voice. The multiplier/increment pair is the classic
// Numerical Recipes choice; state wraps naturally at 2^32.
//
// CRITICAL: all noise must come from this generator, seeded from
// user-visible parameters. That is what makes renders reproducible
// across runs and platforms, which in turn makes params-hash caching
// and golden tests sound.
type LCG struct {
	state uint32
}

// NewLCG returns a generator seeded with seed.
func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Next advances the generator and returns the raw 32-bit state.
func (g *LCG) Next() uint32 {
	g.state = g.state*1664525 + 1013904223
	return g.state
}

// Float returns the next sample mapped onto [-1, 1).
func (g *LCG) Float() float64 {
	return float64(g.Next())/float64(1<<31) - 1.0
}
