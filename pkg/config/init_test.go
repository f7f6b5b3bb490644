package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, InitConfigToPath(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logging:")
	assert.Contains(t, string(data), "shutdown_timeout:")
	assert.NotContains(t, string(data), "password_hash: $", "no secrets in the sample file")
}

func TestInitConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: DEBUG\n"), 0600))

	err := InitConfigToPath(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	// Original content untouched.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEBUG")

	require.NoError(t, InitConfigToPath(path, true))
}
