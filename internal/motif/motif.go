// Package motif renders layered signal signatures from YAML
// definitions.
//
// A motif is a stack of additive layers (AM carriers, harmonic stacks,
// periodic pings and chirps, detuned pads, breathing noise) mixed into
// one long mono pattern. Definitions are data, not code: the built-in
// library is embedded YAML, and the same schema accepts user-supplied
// documents.
//
// Rendering is deterministic for a given definition. The only stochastic
// layer, breath, runs its own seeded generator, so two renders of the
// same document are sample-identical.
package motif

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Layer kinds.
const (
	KindAMCarrier = "am_carrier"
	KindHarmonics = "harmonics"
	KindPing      = "ping"
	KindChirp     = "chirp"
	KindPad       = "pad"
	KindBreath    = "breath"
)

// Layer is one additive voice in a motif. Kind selects the synthesis
// recipe; the other fields are kind-specific and ignored elsewhere.
type Layer struct {
	Kind string  `yaml:"kind"`
	Amp  float64 `yaml:"amp"`

	// am_carrier, harmonics, ping, pad
	FreqHz float64 `yaml:"freq_hz,omitempty"`

	// am_carrier: amplitude-modulation rate
	ModHz float64 `yaml:"mod_hz,omitempty"`

	// harmonics: weight per integer overtone (index 0 = fundamental);
	// pad: weight per entry in Ratios
	Weights []float64 `yaml:"weights,omitempty"`

	// harmonics: slow pitch wobble
	WobbleHz    float64 `yaml:"wobble_hz,omitempty"`
	WobbleDepth float64 `yaml:"wobble_depth,omitempty"`

	// pad: partial frequency ratios and starting phases (radians)
	Ratios []float64 `yaml:"ratios,omitempty"`
	Phases []float64 `yaml:"phases,omitempty"`

	// pad: slow tremolo, level swings between 1-depth and 1
	TremHz    float64 `yaml:"trem_hz,omitempty"`
	TremDepth float64 `yaml:"trem_depth,omitempty"`

	// chirp: linear glide endpoints
	StartHz float64 `yaml:"start_hz,omitempty"`
	EndHz   float64 `yaml:"end_hz,omitempty"`

	// ping, chirp, breath: repetition period and event width
	PeriodS float64 `yaml:"period_s,omitempty"`
	WidthS  float64 `yaml:"width_s,omitempty"`

	// breath: inhale portion of the period, noise seed, smoothing taps
	InhaleS float64 `yaml:"inhale_s,omitempty"`
	Seed    uint32  `yaml:"seed,omitempty"`
	Smooth  int     `yaml:"smooth,omitempty"`
}

// Definition is a complete motif document.
type Definition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	DurationS   float64  `yaml:"duration_s"`
	SampleRate  int      `yaml:"sample_rate"`
	Steps       []string `yaml:"steps,omitempty"`
	Layers      []Layer  `yaml:"layers"`
}

// Parse decodes and validates one motif document. Unknown YAML keys are
// rejected so definition typos fail loudly instead of silently muting a
// layer.
func Parse(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("parse motif: %w", err)
	}
	def.applyDefaults()
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// applyDefaults fills optional fields with the values the classic
// signature uses.
func (d *Definition) applyDefaults() {
	if len(d.Steps) == 0 {
		d.Steps = []string{"Rendering"}
	}
	for i := range d.Layers {
		l := &d.Layers[i]
		if l.Kind == KindBreath {
			if l.Smooth == 0 {
				l.Smooth = 64
			}
			if l.InhaleS == 0 && l.PeriodS > 0 {
				l.InhaleS = l.PeriodS * 0.4
			}
		}
		if l.Kind == KindPad && len(l.Phases) == 0 {
			l.Phases = make([]float64, len(l.Ratios))
		}
	}
}

// Validate checks structural invariants before any rendering happens.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("motif: name is required")
	}
	if d.DurationS <= 0 {
		return fmt.Errorf("motif %s: duration_s must be positive", d.Name)
	}
	if d.SampleRate <= 0 {
		return fmt.Errorf("motif %s: sample_rate must be positive", d.Name)
	}
	if len(d.Layers) == 0 {
		return fmt.Errorf("motif %s: at least one layer required", d.Name)
	}
	for i, l := range d.Layers {
		if err := l.validate(); err != nil {
			return fmt.Errorf("motif %s: layer %d: %w", d.Name, i, err)
		}
	}
	return nil
}

func (l Layer) validate() error {
	if l.Amp <= 0 {
		return fmt.Errorf("%s: amp must be positive", l.Kind)
	}
	switch l.Kind {
	case KindAMCarrier:
		if l.FreqHz <= 0 || l.ModHz <= 0 {
			return fmt.Errorf("am_carrier: freq_hz and mod_hz must be positive")
		}
	case KindHarmonics:
		if l.FreqHz <= 0 {
			return fmt.Errorf("harmonics: freq_hz must be positive")
		}
		if len(l.Weights) == 0 {
			return fmt.Errorf("harmonics: weights must not be empty")
		}
	case KindPing:
		if l.FreqHz <= 0 {
			return fmt.Errorf("ping: freq_hz must be positive")
		}
		if err := validateEventWindow(l.PeriodS, l.WidthS); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
	case KindChirp:
		if l.StartHz <= 0 || l.EndHz <= 0 {
			return fmt.Errorf("chirp: start_hz and end_hz must be positive")
		}
		if err := validateEventWindow(l.PeriodS, l.WidthS); err != nil {
			return fmt.Errorf("chirp: %w", err)
		}
	case KindPad:
		if l.FreqHz <= 0 {
			return fmt.Errorf("pad: freq_hz must be positive")
		}
		if len(l.Ratios) == 0 {
			return fmt.Errorf("pad: ratios must not be empty")
		}
		if len(l.Weights) != len(l.Ratios) {
			return fmt.Errorf("pad: weights and ratios length mismatch")
		}
		if len(l.Phases) != len(l.Ratios) {
			return fmt.Errorf("pad: phases and ratios length mismatch")
		}
	case KindBreath:
		if l.PeriodS <= 0 {
			return fmt.Errorf("breath: period_s must be positive")
		}
		if l.InhaleS <= 0 || l.InhaleS >= l.PeriodS {
			return fmt.Errorf("breath: inhale_s must fall inside the period")
		}
		if l.Smooth < 1 {
			return fmt.Errorf("breath: smooth must be at least 1")
		}
	default:
		return fmt.Errorf("unknown layer kind %q", l.Kind)
	}
	return nil
}

func validateEventWindow(period, width float64) error {
	if period <= 0 {
		return fmt.Errorf("period_s must be positive")
	}
	if width <= 0 || width > period {
		return fmt.Errorf("width_s must fall inside the period")
	}
	return nil
}
