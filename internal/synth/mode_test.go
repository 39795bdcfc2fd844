package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseModeKind round-trips every kind name and accepts the legacy
// "static" spelling.
func TestParseModeKind(t *testing.T) {
	for _, k := range ModeKinds() {
		got, err := ParseModeKind(k.String())
		require.NoError(t, err, k)
		assert.Equal(t, k, got)
	}

	legacy, err := ParseModeKind("static")
	require.NoError(t, err)
	assert.Equal(t, ModeSweep, legacy)

	_, err = ParseModeKind("warble")
	assert.Error(t, err)
}

// TestMode_Streams splits the kinds into streaming and pattern camps.
func TestMode_Streams(t *testing.T) {
	tests := []struct {
		kind    ModeKind
		streams bool
		builds  bool
	}{
		{ModeWhite, true, false},
		{ModePink, true, false},
		{ModeBrown, true, false},
		{ModeTone, true, false},
		{ModeSweep, false, false},
		{ModeShepard, false, true},
		{ModePulse, true, false},
		{ModeMotif, false, true},
	}
	for _, tt := range tests {
		m := Mode{Kind: tt.kind}
		assert.Equal(t, tt.streams, m.Streams(), "%s streams", tt.kind)
		assert.Equal(t, tt.builds, m.Buildable(), "%s buildable", tt.kind)
	}
}

// TestStreamSeed_Distinct checks kind and volume both move the seed.
func TestStreamSeed_Distinct(t *testing.T) {
	white := StreamSeed(Mode{Kind: ModeWhite}, 50)
	pink := StreamSeed(Mode{Kind: ModePink}, 50)
	louder := StreamSeed(Mode{Kind: ModeWhite}, 55)

	assert.NotEqual(t, white, pink)
	assert.NotEqual(t, white, louder)
	assert.Equal(t, uint32(0xB10C0+50), white)
}

// TestNewGenerator_Dispatch exercises the full kind table.
func TestNewGenerator_Dispatch(t *testing.T) {
	streaming := []Mode{
		{Kind: ModeWhite},
		{Kind: ModePink},
		{Kind: ModeBrown},
		{Kind: ModeTone, Wave: WaveSine, FreqHz: 432},
		{Kind: ModeShepard, Dir: DirUp},
		{Kind: ModePulse, OnMs: 250, OffMs: 250},
	}
	for _, m := range streaming {
		g, err := NewGenerator(m, 70, StreamRate)
		require.NoError(t, err, m.Kind)
		require.NotNil(t, g, m.Kind)
	}

	_, err := NewGenerator(Mode{Kind: ModeSweep}, 70, StreamRate)
	assert.Error(t, err)

	_, err = NewGenerator(Mode{Kind: ModeMotif, Motif: "uap3"}, 70, StreamRate)
	assert.Error(t, err)
}

// TestNewGenerator_PulseWindow checks the on/off windows translate into
// the expected silence fraction over one period.
func TestNewGenerator_PulseWindow(t *testing.T) {
	m := Mode{Kind: ModePulse, OnMs: 150, OffMs: 450}
	g, err := NewGenerator(m, 70, 48000)
	require.NoError(t, err)

	periodN := 48000 * 600 / 1000
	buf := fill(g, periodN)
	on := 0
	for _, s := range buf {
		if s != 0 {
			on++
		}
	}
	// 150/600 = 25% duty
	assert.Equal(t, (periodN*25+50)/100, on)
}
