package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError_Message(t *testing.T) {
	err := NewExitError(ExitCommandError, "bad flags")
	assert.Equal(t, "bad flags", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestExitError_WrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "write artifact", cause)

	assert.Equal(t, "write artifact: disk full", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestGetExitCode(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", cause, ExitFailure},
		{"usage error", NewExitError(ExitCommandError, "bad flags"), ExitCommandError},
		{"runtime error", WrapExitError(ExitFailure, "engine error", cause), ExitFailure},
		{"wrapped again", fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "inner")), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeJSON(buf, ProbeReport{Backend: "aplay", Path: "/usr/bin/aplay"}))

	// One indented document, newline-terminated.
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "  \"backend\": \"aplay\"")

	var rep ProbeReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, "aplay", rep.Backend)
	assert.False(t, rep.CanStream)
}
