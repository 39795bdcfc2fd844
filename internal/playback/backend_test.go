package playback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookPathFor(available map[string]string) func(string) (string, error) {
	return func(name string) (string, error) {
		if path, ok := available[name]; ok {
			return path, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

// TestProbe_PriorityOrder picks the streaming-capable PipeWire tool
// over later fallbacks.
func TestProbe_PriorityOrder(t *testing.T) {
	b, err := probeWith(lookPathFor(map[string]string{
		"pw-cat": "/usr/bin/pw-cat",
		"aplay":  "/usr/bin/aplay",
	}))
	require.NoError(t, err)

	assert.Equal(t, "pw-cat", b.Name)
	assert.Equal(t, "/usr/bin/pw-cat", b.Path)
	assert.True(t, b.CanStream)
}

// TestProbe_FileOnlyFallback lands on paplay when no streaming tool
// exists, and marks it file-only.
func TestProbe_FileOnlyFallback(t *testing.T) {
	b, err := probeWith(lookPathFor(map[string]string{
		"paplay": "/usr/bin/paplay",
	}))
	require.NoError(t, err)

	assert.Equal(t, "paplay", b.Name)
	assert.False(t, b.CanStream)
}

// TestProbe_NothingAvailable fails with BackendUnavailable so the play
// path can surface it immediately.
func TestProbe_NothingAvailable(t *testing.T) {
	_, err := probeWith(lookPathFor(nil))
	require.Error(t, err)
	assert.True(t, IsBackendUnavailable(err))
}

// TestProbeName_Found resolves a named sink regardless of its rank in
// the preference order.
func TestProbeName_Found(t *testing.T) {
	b, err := probeNameWith("aplay", lookPathFor(map[string]string{
		"pw-cat": "/usr/bin/pw-cat",
		"aplay":  "/usr/bin/aplay",
	}))
	require.NoError(t, err)

	assert.Equal(t, "aplay", b.Name)
	assert.Equal(t, "/usr/bin/aplay", b.Path)
	assert.True(t, b.CanStream)
}

// TestProbeName_NotInstalled fails when the named sink is known but
// absent from PATH.
func TestProbeName_NotInstalled(t *testing.T) {
	_, err := probeNameWith("pw-cat", lookPathFor(nil))
	require.Error(t, err)
	assert.True(t, IsBackendUnavailable(err))
	assert.Contains(t, err.Error(), "pw-cat not found on PATH")
}

// TestProbeName_Unknown rejects names outside the candidate set without
// touching PATH.
func TestProbeName_Unknown(t *testing.T) {
	_, err := probeNameWith("sox", lookPathFor(map[string]string{
		"sox": "/usr/bin/sox",
	}))
	require.Error(t, err)
	assert.True(t, IsBackendUnavailable(err))
	assert.Contains(t, err.Error(), "unknown backend sox")
}

// TestStreamArgs covers the per-backend raw PCM invocations.
func TestStreamArgs(t *testing.T) {
	f := Format{Rate: 48000, Channels: 2}

	pwcat := Backend{Name: "pw-cat", CanStream: true}
	assert.Equal(t,
		[]string{"--playback", "--rate", "48000", "--channels", "2", "--format", "s16", "-"},
		pwcat.streamArgs(f))

	aplay := Backend{Name: "aplay", CanStream: true}
	assert.Equal(t,
		[]string{"-q", "-f", "S16_LE", "-r", "48000", "-c", "2", "-t", "raw", "-"},
		aplay.streamArgs(f))
}

// TestPlayArgs covers the per-backend file invocations.
func TestPlayArgs(t *testing.T) {
	assert.Equal(t, []string{"--playback", "/tmp/a.wav"}, Backend{Name: "pw-cat"}.playArgs("/tmp/a.wav"))
	assert.Equal(t, []string{"-q", "/tmp/a.wav"}, Backend{Name: "aplay"}.playArgs("/tmp/a.wav"))
	assert.Equal(t, []string{"/tmp/a.wav"}, Backend{Name: "paplay"}.playArgs("/tmp/a.wav"))
	assert.Equal(t, []string{"/tmp/a.wav"}, Backend{Name: "pw-play"}.playArgs("/tmp/a.wav"))
}
