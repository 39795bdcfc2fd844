package synth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RenderVersion tags every cached render. Bump it whenever any
// generator's output changes for the same parameters; the render ledger
// prunes rows from other versions so stale artifacts can never play
// back under new semantics.
const RenderVersion = "synth-v2"

// hashDomain separates render identities from any other sha256 use in
// the process.
const hashDomain = "uapgen.render.params"

// renderIdentity is the canonical form hashed into a params hash.
// Field order is fixed by the struct; only the fields the mode's kind
// actually reads are populated, so irrelevant carried-along settings
// never split the cache.
type renderIdentity struct {
	Version  string  `json:"version"`
	Kind     string  `json:"kind"`
	Wave     string  `json:"wave,omitempty"`
	FreqHz   float64 `json:"freq_hz,omitempty"`
	StartHz  float64 `json:"start_hz,omitempty"`
	EndHz    float64 `json:"end_hz,omitempty"`
	Dir      string  `json:"dir,omitempty"`
	OnMs     int     `json:"on_ms,omitempty"`
	OffMs    int     `json:"off_ms,omitempty"`
	Motif    string  `json:"motif,omitempty"`
	PulseMs  int     `json:"pulse_ms,omitempty"`
	Volume   int     `json:"volume"`
	Rate     int     `json:"rate"`
	Channels int     `json:"channels"`
}

// ParamsHash returns the render identity of a mode at a volume and
// output format: a hex SHA-256 over a domain-separated canonical JSON
// encoding. Two parameter sets share a hash only if they would render
// identical audio under the current RenderVersion.
func ParamsHash(m Mode, volume, pulseMs, rate, channels int) string {
	id := renderIdentity{
		Version:  RenderVersion,
		Kind:     m.Kind.String(),
		Volume:   clampInt(volume, 0, 100),
		Rate:     rate,
		Channels: channels,
	}
	switch m.Kind {
	case ModeTone:
		id.Wave = string(m.Wave)
		id.FreqHz = m.FreqHz
	case ModeSweep:
		id.StartHz = m.StartHz
		id.EndHz = m.EndHz
		id.Dir = string(m.Dir)
		id.PulseMs = pulseMs
	case ModeShepard:
		id.Dir = string(m.Dir)
	case ModePulse:
		id.OnMs = m.OnMs
		id.OffMs = m.OffMs
	case ModeMotif:
		id.Motif = m.Motif
	}

	data, err := json.Marshal(id)
	if err != nil {
		// marshaling a flat value struct cannot fail
		panic(fmt.Sprintf("marshal render identity: %v", err))
	}
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
