package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
)

// Backend kinds a scenario can request.
const (
	BackendStream   = "stream"    // sink accepts streams and files
	BackendFileOnly = "file-only" // sink plays files, cannot stream
	BackendNone     = "none"      // no sink; every start is refused
)

// Scenario is one scripted conformance run.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Params      *config.Params `yaml:"params,omitempty"`
	Backend     string         `yaml:"backend,omitempty"`
	Steps       []Step         `yaml:"steps"`
}

// Step is one scripted action. Exactly one of the fields is set.
type Step struct {
	// Command feeds one input command ("up", "down", "select",
	// "select_hold", "back") and runs one tick. Repeat multiplies it.
	Command string `yaml:"command,omitempty"`
	Repeat  int    `yaml:"repeat,omitempty"`

	// AdvanceMs runs idle ticks until this much synthetic time passed.
	AdvanceMs int `yaml:"advance_ms,omitempty"`

	// CrashSink kills the current sink process with this reason.
	CrashSink string `yaml:"crash_sink,omitempty"`
}

// ParseScenario decodes and validates one YAML scenario. Unknown keys
// are errors; a script with a typo must not silently test nothing.
// Absent params overlay the factory defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{Params: config.Defaults(), Backend: BackendStream}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}
	switch sc.Backend {
	case BackendStream, BackendFileOnly, BackendNone:
	default:
		return nil, fmt.Errorf("scenario %s: unknown backend %q", sc.Name, sc.Backend)
	}

	for i, step := range sc.Steps {
		set := 0
		if step.Command != "" {
			set++
			if _, err := proto.ParseCommand(step.Command); err != nil {
				return nil, fmt.Errorf("scenario %s step %d: %w", sc.Name, i+1, err)
			}
		}
		if step.AdvanceMs != 0 {
			set++
			if step.AdvanceMs < 0 {
				return nil, fmt.Errorf("scenario %s step %d: advance_ms must be positive", sc.Name, i+1)
			}
		}
		if step.CrashSink != "" {
			set++
		}
		if set != 1 {
			return nil, fmt.Errorf("scenario %s step %d: exactly one of command, advance_ms, crash_sink", sc.Name, i+1)
		}
		if step.Repeat != 0 && step.Command == "" {
			return nil, fmt.Errorf("scenario %s step %d: repeat needs a command", sc.Name, i+1)
		}
		if step.Repeat < 0 {
			return nil, fmt.Errorf("scenario %s step %d: repeat must be positive", sc.Name, i+1)
		}
	}

	sc.Params.Normalize(nil)
	return sc, nil
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}
