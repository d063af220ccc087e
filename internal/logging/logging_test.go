package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Created before Init, as package-level loggers are.
var testLog = Module("logtest")

func TestInitRedirectsExistingModuleLoggers(t *testing.T) {
	var con bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	closer, err := Init(Options{Debug: true, File: path, Console: &con})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = Init(Options{})
	})

	testLog.Debug().Int("turn", 3).Msg("Jump")
	require.NoError(t, closer.Close())

	assert.Contains(t, con.String(), "Jump")
	assert.Contains(t, con.String(), "logtest")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"module":"logtest"`)
	assert.Contains(t, string(raw), `"turn":3`)
}

func TestInitLevel(t *testing.T) {
	var con bytes.Buffer
	_, err := Init(Options{Console: &con})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = Init(Options{})
	})

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	testLog.Debug().Msg("hidden")
	assert.NotContains(t, con.String(), "hidden")
}
