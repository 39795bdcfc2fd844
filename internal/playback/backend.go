package playback

import (
	"os/exec"
	"strconv"
)

// Format describes a raw PCM stream: s16le, interleaved.
type Format struct {
	Rate     int
	Channels int
}

// Backend is one detected sink executable. CanStream marks tools that
// accept raw PCM on stdin; every backend can play a WAV file.
type Backend struct {
	Name      string
	Path      string
	CanStream bool
}

// probeOrder lists sink candidates by preference: streaming-capable
// PipeWire tooling first, bare ALSA last.
var probeOrder = []struct {
	name      string
	canStream bool
}{
	{"pw-cat", true},
	{"paplay", false},
	{"pw-play", false},
	{"aplay", true},
}

// Probe finds the best available sink executable. The result is meant
// to be cached for the process lifetime; a sink appearing later does
// not change an already-running engine.
func Probe() (Backend, error) {
	return probeWith(exec.LookPath)
}

// probeWith is Probe with an injectable resolver.
func probeWith(lookPath func(string) (string, error)) (Backend, error) {
	for _, cand := range probeOrder {
		path, err := lookPath(cand.name)
		if err != nil {
			continue
		}
		return Backend{Name: cand.name, Path: path, CanStream: cand.canStream}, nil
	}
	return Backend{}, &Error{
		Code:    ErrCodeBackendUnavailable,
		Message: "no audio player found (pw-cat/paplay/pw-play/aplay)",
	}
}

// ProbeName resolves one specific sink by name, bypassing the
// preference order.
func ProbeName(name string) (Backend, error) {
	return probeNameWith(name, exec.LookPath)
}

func probeNameWith(name string, lookPath func(string) (string, error)) (Backend, error) {
	for _, cand := range probeOrder {
		if cand.name != name {
			continue
		}
		path, err := lookPath(name)
		if err != nil {
			return Backend{}, &Error{
				Code:    ErrCodeBackendUnavailable,
				Message: name + " not found on PATH",
				Err:     err,
			}
		}
		return Backend{Name: cand.name, Path: path, CanStream: cand.canStream}, nil
	}
	return Backend{}, &Error{
		Code:    ErrCodeBackendUnavailable,
		Message: "unknown backend " + name + " (pw-cat, paplay, pw-play, aplay)",
	}
}

// streamArgs builds the argv tail for a raw-PCM stdin session.
// Only meaningful when CanStream is true.
func (b Backend) streamArgs(f Format) []string {
	switch b.Name {
	case "pw-cat":
		return []string{
			"--playback",
			"--rate", strconv.Itoa(f.Rate),
			"--channels", strconv.Itoa(f.Channels),
			"--format", "s16",
			"-",
		}
	case "aplay":
		return []string{
			"-q",
			"-f", "S16_LE",
			"-r", strconv.Itoa(f.Rate),
			"-c", strconv.Itoa(f.Channels),
			"-t", "raw",
			"-",
		}
	}
	return nil
}

// playArgs builds the argv tail for playing a WAV file once.
func (b Backend) playArgs(path string) []string {
	switch b.Name {
	case "pw-cat":
		return []string{"--playback", path}
	case "aplay":
		return []string{"-q", path}
	}
	// paplay, pw-play
	return []string{path}
}
