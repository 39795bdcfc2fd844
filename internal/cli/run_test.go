package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GhostGeeks/UAP-Generator/internal/config"
	"github.com/GhostGeeks/UAP-Generator/internal/proto"
)

func TestRunCommand_BackExitsCleanly(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "uapgen.json")

	// select on the mode row cycles white to pink, then back exits.
	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader("select\nback\n"))
	cmd.SetArgs([]string{
		"--config", cfgPath,
		"--cache", filepath.Join(dir, "cache"),
	})

	require.NoError(t, cmd.Execute())

	evs, err := proto.DecodeLines(buf.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	assert.Equal(t, "hello", evs[0].Type)
	assert.Equal(t, "exit", evs[len(evs)-1].Type)

	// The accepted change persists across sessions.
	saved := config.NewFile(cfgPath, nil).Load()
	assert.Equal(t, "pink", saved.Mode)
}

func TestRunCommand_EOFExits(t *testing.T) {
	dir := t.TempDir()

	buf := &bytes.Buffer{}
	cmd := NewRunCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{
		"--config", filepath.Join(dir, "uapgen.json"),
		"--cache", filepath.Join(dir, "cache"),
	})

	require.NoError(t, cmd.Execute())

	evs, err := proto.DecodeLines(buf.Bytes())
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	assert.Equal(t, "exit", evs[len(evs)-1].Type)
}

func TestRunCommand_UnknownBackendOverride(t *testing.T) {
	dir := t.TempDir()

	cmd := NewRunCommand(&RootOptions{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{
		"--config", filepath.Join(dir, "uapgen.json"),
		"--cache", filepath.Join(dir, "cache"),
		"--backend", "sox",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestRunCommand_RejectsPositionalArgs(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"extra"})

	err := cmd.Execute()
	require.Error(t, err)
}
