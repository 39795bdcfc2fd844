package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink drops an executable stub with the given name into dir so
// exec.LookPath can find it.
func fakeSink(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestProbeCommand_ReportsStreamCapableSink(t *testing.T) {
	dir := t.TempDir()
	path := fakeSink(t, dir, "pw-cat")
	t.Setenv("PATH", dir)

	buf := &bytes.Buffer{}
	cmd := NewProbeCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var rep ProbeReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, "pw-cat", rep.Backend)
	assert.Equal(t, path, rep.Path)
	assert.True(t, rep.CanStream)
}

func TestProbeCommand_FileOnlySink(t *testing.T) {
	dir := t.TempDir()
	fakeSink(t, dir, "paplay")
	t.Setenv("PATH", dir)

	buf := &bytes.Buffer{}
	cmd := NewProbeCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var rep ProbeReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, "paplay", rep.Backend)
	assert.False(t, rep.CanStream)
}

func TestProbeCommand_PrefersStreamingSink(t *testing.T) {
	dir := t.TempDir()
	fakeSink(t, dir, "aplay")
	fakeSink(t, dir, "pw-cat")
	t.Setenv("PATH", dir)

	buf := &bytes.Buffer{}
	cmd := NewProbeCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	var rep ProbeReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, "pw-cat", rep.Backend)
}

func TestProbeCommand_NoneInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	buf := &bytes.Buffer{}
	cmd := NewProbeCommand(&RootOptions{})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "no audio player found")
}
