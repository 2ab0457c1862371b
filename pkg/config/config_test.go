package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate(), "default config should validate")
	assert.Equal(t, "Strata", cfg.RuntimeName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 16_666_667*time.Nanosecond, cfg.FramePeriod)
	assert.False(t, cfg.Headless)
	assert.Empty(t, cfg.TracePath)
}

func TestParse(t *testing.T) {
	data := []byte(`
runtime_name: Strata Test
log_level: debug
trace_path: /tmp/run.strace
headless: true
devices:
  left_controller: /interaction_profiles/khr/simple_controller
  right_controller: /interaction_profiles/khr/simple_controller
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "Strata Test", cfg.RuntimeName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/run.strace", cfg.TracePath)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "/interaction_profiles/khr/simple_controller", cfg.Devices.LeftController)
	assert.Equal(t, "/interaction_profiles/khr/simple_controller", cfg.Devices.RightController)
	assert.Empty(t, cfg.Devices.Gamepad)

	// defaults fill the unset fields
	assert.Equal(t, 16_666_667*time.Nanosecond, cfg.FramePeriod)
}

func TestParsePartial(t *testing.T) {
	cfg, err := Parse([]byte("frame_period: 11ms\n"))
	require.NoError(t, err)
	assert.Equal(t, 11*time.Millisecond, cfg.FramePeriod)
	assert.Equal(t, "Strata", cfg.RuntimeName, "unset fields keep defaults")
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad yaml", "runtime_name: [unclosed"},
		{"bad level", "log_level: loud"},
		{"bad period", "frame_period: -1ms"},
		{"empty name", `runtime_name: ""`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "missing file should error")
}
