// Package config persists the engine parameters as a small JSON
// document and normalizes whatever it finds there.
//
// Loading is total: a missing, corrupt or partial file yields usable
// parameters every time, because the gadget has to boot with whatever
// is on the card. Unknown keys are ignored, legacy key spellings are
// migrated, and every value is clamped onto its legal grid.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/GhostGeeks/UAP-Generator/internal/synth"
)

// Params is the full persisted parameter set. All modes' fields are
// stored, not just the active mode's, so switching modes never loses
// settings.
type Params struct {
	Mode    string  `json:"mode" yaml:"mode"`
	Volume  int     `json:"volume" yaml:"volume"`
	DutyPct int     `json:"duty_pct" yaml:"duty_pct"`
	PulseMs int     `json:"pulse_ms" yaml:"pulse_ms"`
	Wave    string  `json:"wave" yaml:"wave"`
	FreqHz  float64 `json:"freq_hz" yaml:"freq_hz"`
	StartHz float64 `json:"start_hz" yaml:"start_hz"`
	EndHz   float64 `json:"end_hz" yaml:"end_hz"`
	Dir     string  `json:"direction" yaml:"direction"`
	OnMs    int     `json:"on_ms" yaml:"on_ms"`
	OffMs   int     `json:"off_ms" yaml:"off_ms"`
	Motif   string  `json:"motif" yaml:"motif"`
}

// Defaults returns the factory settings.
func Defaults() *Params {
	return &Params{
		Mode:    synth.ModeWhite.String(),
		Volume:  70,
		DutyPct: 50,
		PulseMs: 250,
		Wave:    string(synth.WaveSine),
		FreqHz:  432,
		StartHz: 250,
		EndHz:   4200,
		Dir:     string(synth.DirUp),
		OnMs:    250,
		OffMs:   250,
		Motif:   "uap3",
	}
}

// Normalize clamps every field onto its legal grid, falling back to the
// default for unparseable enum values. log (nil ok) receives one warn
// per repaired field.
func (p *Params) Normalize(log *slog.Logger) {
	warn := func(field string, got any) {
		if log != nil {
			log.Warn("repaired config field", "field", field, "value", got)
		}
	}

	if _, err := synth.ParseModeKind(p.Mode); err != nil {
		warn("mode", p.Mode)
		p.Mode = synth.ModeWhite.String()
	} else {
		// rewrite legacy spellings ("static") to the canonical name
		k, _ := synth.ParseModeKind(p.Mode)
		p.Mode = k.String()
	}

	if w, err := synth.ParseWaveform(p.Wave); err != nil {
		warn("wave", p.Wave)
		p.Wave = string(synth.WaveSine)
	} else {
		p.Wave = string(w)
	}

	if d, err := synth.ParseDirection(p.Dir); err != nil {
		warn("direction", p.Dir)
		p.Dir = string(synth.DirUp)
	} else {
		p.Dir = string(d)
	}

	p.Volume = snapStep(clampInt(p.Volume, 0, 100), 5)
	p.DutyPct = clampInt(p.DutyPct, synth.MinDutyPct, synth.MaxDutyPct)
	p.PulseMs = snapChoice(p.PulseMs, synth.PulseRates())
	p.FreqHz = clampFloat(p.FreqHz, 20, 20000)
	p.StartHz = clampFloat(p.StartHz, 20, 20000)
	p.EndHz = clampFloat(p.EndHz, 20, 20000)
	if p.EndHz < p.StartHz {
		p.StartHz, p.EndHz = p.EndHz, p.StartHz
	}
	p.OnMs = clampInt(p.OnMs, synth.MinWindowMs, synth.MaxWindowMs)
	p.OffMs = clampInt(p.OffMs, synth.MinWindowMs, synth.MaxWindowMs)
	if p.Motif == "" {
		p.Motif = Defaults().Motif
	}
}

// ToMode assembles the tagged mode variant from the flat fields.
// Callers normalize first; an unparseable kind degrades to white noise
// rather than failing, matching Load's total-ness.
func (p *Params) ToMode() synth.Mode {
	kind, err := synth.ParseModeKind(p.Mode)
	if err != nil {
		kind = synth.ModeWhite
	}
	wave, err := synth.ParseWaveform(p.Wave)
	if err != nil {
		wave = synth.WaveSine
	}
	dir, err := synth.ParseDirection(p.Dir)
	if err != nil {
		dir = synth.DirUp
	}
	return synth.Mode{
		Kind:    kind,
		Wave:    wave,
		FreqHz:  p.FreqHz,
		StartHz: p.StartHz,
		EndHz:   p.EndHz,
		Dir:     dir,
		OnMs:    p.OnMs,
		OffMs:   p.OffMs,
		Motif:   p.Motif,
	}
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := *p
	return &c
}

// legacy key aliases accepted on read and rewritten on the next save
var legacyKeys = map[string]string{
	"noise_type": "mode",
	"sweep_ms":   "pulse_ms",
}

// File binds Params to a path on disk.
type File struct {
	path string
	log  *slog.Logger
}

// NewFile returns a config file handle. log may be nil.
func NewFile(path string, log *slog.Logger) *File {
	return &File{path: path, log: log}
}

// Path reports the bound location.
func (f *File) Path() string { return f.path }

// DefaultPath returns the per-user config location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "ghostgeeks", "uapgen.json"), nil
}

// Load reads, migrates and normalizes the stored parameters. It never
// fails: missing files yield defaults, corrupt files are logged and
// replaced by defaults on the next save.
func (f *File) Load() *Params {
	p := Defaults()

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && f.log != nil {
			f.log.Warn("config unreadable, using defaults", "path", f.path, "error", err)
		}
		return p
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		if f.log != nil {
			f.log.Warn("config corrupt, using defaults", "path", f.path, "error", err)
		}
		return p
	}

	// migrate legacy spellings only where the modern key is absent
	for old, modern := range legacyKeys {
		if v, ok := keys[old]; ok {
			if _, exists := keys[modern]; !exists {
				keys[modern] = v
			}
		}
	}

	merged, err := json.Marshal(keys)
	if err == nil {
		err = json.Unmarshal(merged, p)
	}
	if err != nil {
		if f.log != nil {
			f.log.Warn("config unusable, using defaults", "path", f.path, "error", err)
		}
		return Defaults()
	}

	p.Normalize(f.log)
	return p
}

// Save writes p atomically, creating parent directories as needed.
func (f *File) Save(p *Params) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write config temp: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
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

// snapStep rounds v to the nearest multiple of step.
func snapStep(v, step int) int {
	return (v + step/2) / step * step
}

// snapChoice picks the nearest value from choices.
func snapChoice(v int, choices []int) int {
	best := choices[0]
	for _, c := range choices[1:] {
		if abs(v-c) < abs(v-best) {
			best = c
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
