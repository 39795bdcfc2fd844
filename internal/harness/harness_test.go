package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GhostGeeks/UAP-Generator/internal/config"
)

func TestParseScenario_OverlaysDefaults(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: minimal
steps:
  - command: back
`))
	require.NoError(t, err)

	assert.Equal(t, "minimal", sc.Name)
	assert.Equal(t, BackendStream, sc.Backend)
	def := config.Defaults()
	assert.Equal(t, def.Mode, sc.Params.Mode)
	assert.Equal(t, def.Volume, sc.Params.Volume)
}

func TestParseScenario_PartialParamsKeepRest(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: partial
params:
  mode: tone
  volume: 40
steps:
  - command: back
`))
	require.NoError(t, err)

	assert.Equal(t, "tone", sc.Params.Mode)
	assert.Equal(t, 40, sc.Params.Volume)
	assert.Equal(t, 432.0, sc.Params.FreqHz, "untouched params keep their defaults")
}

func TestParseScenario_Rejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown top-level key",
			yaml: "name: x\nbeckend: none\nsteps:\n  - command: back\n",
		},
		{
			name: "unknown step key",
			yaml: "name: x\nsteps:\n  - comand: back\n",
		},
		{
			name: "missing name",
			yaml: "steps:\n  - command: back\n",
			want: "no name",
		},
		{
			name: "unknown backend",
			yaml: "name: x\nbackend: alsa\nsteps:\n  - command: back\n",
			want: "unknown backend",
		},
		{
			name: "unknown command",
			yaml: "name: x\nsteps:\n  - command: push\n",
			want: "unknown command",
		},
		{
			name: "step with two actions",
			yaml: "name: x\nsteps:\n  - command: up\n    advance_ms: 100\n",
			want: "exactly one",
		},
		{
			name: "empty step",
			yaml: "name: x\nsteps:\n  - repeat: 3\n",
			want: "exactly one",
		},
		{
			name: "repeat without command",
			yaml: "name: x\nsteps:\n  - advance_ms: 100\n    repeat: 2\n",
			want: "repeat needs a command",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.yaml))
			require.Error(t, err)
			if tc.want != "" {
				assert.Contains(t, err.Error(), tc.want)
			}
		})
	}
}

// TestScenarios_Golden replays every scripted scenario and compares the
// rendered transcript to its golden file. Regenerate with -update after
// deliberate protocol changes.
func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		sc, err := LoadScenario(path)
		require.NoError(t, err)
		t.Run(sc.Name, func(t *testing.T) {
			RunWithGolden(t, sc)
		})
	}
}

func TestRun_WhiteNoiseStreamLevel(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: white-level
params:
  volume: 50
steps:
  - command: up
  - command: select
  - advance_ms: 500
`))
	require.NoError(t, err)

	res := Run(t, sc)

	assert.False(t, res.Done)
	assert.Equal(t, 1, res.Sink.StreamStarts())
	assert.Zero(t, res.Sink.FileStarts())
	require.NotEmpty(t, res.Sink.PCM())

	// Uniform noise has RMS 1/sqrt(3); volume 50 halves it through the
	// gain stage.
	assert.InDelta(t, 0.2887, res.Sink.RMS(), 0.01)

	st := LastState(t, res.Events)
	assert.Equal(t, true, st["playing"])
}

func TestRun_AbandonedBuildLeavesNoArtifacts(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: abandoned-build
params:
  mode: shepard
steps:
  - command: up
  - command: select
  - command: back
`))
	require.NoError(t, err)

	res := Run(t, sc)

	assert.True(t, res.Done)
	assert.Zero(t, res.Sink.StreamStarts())
	assert.Zero(t, res.Sink.FileStarts())
	assert.Len(t, EventsOf(res.Events, "exit"), 1)

	// Close discards the never-delivered artifact and the scratch space.
	entries, err := os.ReadDir(res.CacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Stat(res.ScratchDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_CrashRecoveryWithinBudget(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: crash-recovery
steps:
  - command: up
  - command: select
  - crash_sink: pipewire died
  - advance_ms: 300
`))
	require.NoError(t, err)

	res := Run(t, sc)

	assert.Equal(t, 2, res.Sink.StreamStarts(), "one launch, one recovery")
	toasts := Toasts(res.Events)
	assert.Contains(t, toasts, "Audio restart 1/3")
	assert.Contains(t, toasts, "Audio recovered")

	st := LastState(t, res.Events)
	assert.Equal(t, true, st["playing"], "recovery keeps the session audible")
	assert.Equal(t, true, st["ready"])
}

func TestRun_RetryBudgetSpentGoesFatal(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: budget-fatal
steps:
  - command: up
  - command: select
  - crash_sink: device gone
  - advance_ms: 300
  - crash_sink: device gone
  - advance_ms: 300
  - crash_sink: device gone
  - advance_ms: 300
  - crash_sink: device gone
  - advance_ms: 300
`))
	require.NoError(t, err)

	res := Run(t, sc)

	assert.Equal(t, 4, res.Sink.StreamStarts(), "initial launch plus three recoveries")

	fatals := EventsOf(res.Events, "fatal")
	require.Len(t, fatals, 1)
	assert.Contains(t, fatals[0].Fields["message"], "Audio playback stopped")
	assert.Contains(t, fatals[0].Fields["message"], "device gone")

	st := LastState(t, res.Events)
	assert.Equal(t, false, st["ready"])
	assert.Equal(t, "fatal", st["page"])
	assert.False(t, res.Done, "fatal absorbs input, only back exits")
}

func TestRun_HeartbeatKeepsStateFlowing(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: idle-heartbeat
steps:
  - advance_ms: 2000
`))
	require.NoError(t, err)

	res := Run(t, sc)

	// The heartbeat lands on the last 20 ms tick inside each 250 ms
	// window, every 240 ms: the startup snapshot plus eight more over
	// two idle seconds.
	states := EventsOf(res.Events, "state")
	assert.Len(t, states, 9)
}
