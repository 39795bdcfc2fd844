package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLCG_KnownSequence pins the generator to its reference values so a
// constant typo can never silently re-tune every voice.
func TestLCG_KnownSequence(t *testing.T) {
	g := NewLCG(1)

	want := []uint32{1015568748, 1586005467, 2165703038, 3027450565}
	for i, w := range want {
		assert.Equal(t, w, g.Next(), "value %d", i)
	}
}

// TestLCG_FloatRange verifies the [-1, 1) mapping over a long run.
func TestLCG_FloatRange(t *testing.T) {
	g := NewLCG(7)
	for i := 0; i < 10000; i++ {
		v := g.Float()
		require.GreaterOrEqual(t, v, -1.0)
		require.Less(t, v, 1.0)
	}
}

// TestLCG_FloatKnownValues pins the float mapping for one seed.
func TestLCG_FloatKnownValues(t *testing.T) {
	g := NewLCG(42)

	assert.InDelta(t, -0.49530965043231845, g.Float(), 1e-15)
	assert.InDelta(t, -0.8237499091774225, g.Float(), 1e-15)
	assert.InDelta(t, 0.15456239646300673, g.Float(), 1e-15)
}

// TestLCG_Determinism checks equal seeds replay and distinct seeds diverge.
func TestLCG_Determinism(t *testing.T) {
	a, b := NewLCG(123), NewLCG(123)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Next(), b.Next())
	}

	c, d := NewLCG(1), NewLCG(2)
	same := true
	for i := 0; i < 16; i++ {
		if c.Next() != d.Next() {
			same = false
			break
		}
	}
	assert.False(t, same, "different seeds should diverge")
}
