package motif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_FullDocument checks a complete definition decodes with all
// layer parameters intact.
func TestParse_FullDocument(t *testing.T) {
	def, err := Parse([]byte(`
name: test
duration_s: 30
sample_rate: 22050
steps: [One, Two]
layers:
  - kind: am_carrier
    amp: 0.15
    freq_hz: 100.0
    mod_hz: 7.83
  - kind: chirp
    amp: 0.10
    start_hz: 2000.0
    end_hz: 3000.0
    period_s: 10.0
    width_s: 0.2
`))
	require.NoError(t, err)

	assert.Equal(t, "test", def.Name)
	assert.Equal(t, 30.0, def.DurationS)
	assert.Equal(t, 22050, def.SampleRate)
	assert.Equal(t, []string{"One", "Two"}, def.Steps)
	require.Len(t, def.Layers, 2)
	assert.Equal(t, 7.83, def.Layers[0].ModHz)
	assert.Equal(t, 3000.0, def.Layers[1].EndHz)
}

// TestParse_UnknownKeyRejected makes definition typos fail loudly
// instead of silently muting a layer.
func TestParse_UnknownKeyRejected(t *testing.T) {
	_, err := Parse([]byte(`
name: test
duration_s: 10
sample_rate: 8000
layers:
  - kind: am_carrier
    amp: 0.2
    freq_hz: 100.0
    mod_freq: 7.83
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mod_freq")
}

// TestParse_UnknownKindRejected keeps the layer vocabulary closed.
func TestParse_UnknownKindRejected(t *testing.T) {
	_, err := Parse([]byte(`
name: test
duration_s: 10
sample_rate: 8000
layers:
  - kind: theremin
    amp: 0.2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theremin")
}

// TestParse_DefaultsApplied fills breath smoothing, the inhale split,
// pad phases and the step list when a document omits them.
func TestParse_DefaultsApplied(t *testing.T) {
	def, err := Parse([]byte(`
name: test
duration_s: 10
sample_rate: 8000
layers:
  - kind: breath
    amp: 0.15
    period_s: 5.0
    seed: 1337
  - kind: pad
    amp: 0.2
    freq_hz: 432.0
    ratios: [1.0, 1.5]
    weights: [1.0, 0.5]
`))
	require.NoError(t, err)

	breath := def.Layers[0]
	assert.Equal(t, 64, breath.Smooth)
	assert.Equal(t, 2.0, breath.InhaleS)

	pad := def.Layers[1]
	assert.Equal(t, []float64{0, 0}, pad.Phases)

	assert.Equal(t, []string{"Rendering"}, def.Steps)
}

// TestValidate_BadLayers rejects documents that would render garbage.
func TestValidate_BadLayers(t *testing.T) {
	tests := []struct {
		name  string
		layer Layer
	}{
		{"zero amp", Layer{Kind: KindAMCarrier, Amp: 0, FreqHz: 100, ModHz: 7.83}},
		{"ping width beyond period", Layer{Kind: KindPing, Amp: 0.1, FreqHz: 17000, PeriodS: 1, WidthS: 2}},
		{"pad weight mismatch", Layer{Kind: KindPad, Amp: 0.2, FreqHz: 432, Ratios: []float64{1, 1.5}, Weights: []float64{1}, Phases: []float64{0, 0}}},
		{"breath inhale beyond period", Layer{Kind: KindBreath, Amp: 0.15, PeriodS: 5, InhaleS: 5, Smooth: 64}},
		{"chirp missing endpoints", Layer{Kind: KindChirp, Amp: 0.1, PeriodS: 10, WidthS: 0.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := Definition{
				Name:       "test",
				DurationS:  1,
				SampleRate: 8000,
				Layers:     []Layer{tt.layer},
			}
			assert.Error(t, def.Validate())
		})
	}
}

// TestLoadLibrary_EmbeddedDefs checks the shipped motifs parse and the
// default is present.
func TestLoadLibrary_EmbeddedDefs(t *testing.T) {
	lib, err := LoadLibrary()
	require.NoError(t, err)

	names := lib.Names()
	assert.Contains(t, names, "uap3")
	assert.Contains(t, names, "beacon")
	assert.IsIncreasing(t, names)

	def, ok := lib.Get(DefaultName)
	require.True(t, ok)
	assert.Equal(t, 600.0, def.DurationS)
	assert.Equal(t, 44100, def.SampleRate)
	assert.Len(t, def.Layers, 6)

	_, ok = lib.Get("no-such-motif")
	assert.False(t, ok)
}

// TestLibrary_NamesIsCopy keeps callers from reordering the library's
// internal state through the returned slice.
func TestLibrary_NamesIsCopy(t *testing.T) {
	lib, err := LoadLibrary()
	require.NoError(t, err)

	names := lib.Names()
	names[0] = "mutated"
	assert.NotEqual(t, names[0], lib.Names()[0])
}
