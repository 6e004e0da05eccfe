package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasDiagnosticsDisabled(t *testing.T) {
	var cfg = Default()

	assert.False(t, cfg.Diagnostics.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8273, cfg.Diagnostics.Port)
}

func TestLoad_NoFileFound_ReturnsDefault(t *testing.T) {
	var dir = t.TempDir()
	var restore = chdir(t, dir)
	defer restore()

	var cfg, err = Load()

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsFirstMatchFromSearchLocations(t *testing.T) {
	var dir = t.TempDir()
	var restore = chdir(t, dir)
	defer restore()

	var contents = "device: /dev/hidraw0\nlog_level: debug\ndiagnostics:\n  enabled: true\n  port: 9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "iptsd.yaml"), []byte(contents), 0o644))

	var cfg, err = Load()

	require.NoError(t, err)
	assert.Equal(t, "/dev/hidraw0", cfg.Device)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Diagnostics.Enabled)
	assert.Equal(t, 9000, cfg.Diagnostics.Port)
}

func TestLoad_MalformedYAML_ReturnsError(t *testing.T) {
	var dir = t.TempDir()
	var restore = chdir(t, dir)
	defer restore()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "iptsd.yaml"), []byte("not: [valid yaml"), 0o644))

	var _, err = Load()

	require.Error(t, err)
}

// chdir switches the working directory for the duration of a test and
// returns a func restoring it, since Load's search locations include a
// relative "iptsd.yaml" looked up from the current directory.
func chdir(t *testing.T, dir string) func() {
	t.Helper()

	var original, err = os.Getwd()
	require.NoError(t, err)

	require.NoError(t, os.Chdir(dir))

	return func() {
		os.Chdir(original)
	}
}
