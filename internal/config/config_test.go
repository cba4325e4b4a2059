package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, uint32(2048), cfg.Renderer.ShadowMapSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[window]
title = "demo"
width = 800

[renderer]
vsync = false
clear_color = [0.1, 0.2, 0.3, 1.0]
ssao_enabled = false

[engine]
tick_rate = 30
profiling = true

[logging]
level = "debug"
format = "json"

[scene]
path = "scenes/demo.yaml"
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "unset keys keep their default")
	assert.False(t, cfg.Renderer.VSync)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 1}, cfg.Renderer.ClearColor)
	assert.False(t, cfg.Renderer.SSAOEnabled)
	assert.True(t, cfg.Renderer.FXAAEnabled)
	assert.Equal(t, 30.0, cfg.Engine.TickRate)
	assert.True(t, cfg.Engine.Profiling)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "scenes/demo.yaml", cfg.Scene.Path)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"syntax", "[window\n", "toml"},
		{"unknown key", "[window]\nfullscreen = true\n", `unknown key "window.fullscreen"`},
		{"size", "[window]\nwidth = 0\n", "window: size 0x720"},
		{"shadow map", "[renderer]\nshadow_map_size = 1000\n", "shadow_map_size 1000"},
		{"clear color", "[renderer]\nclear_color = [0.0, 0.0, 2.0, 1.0]\n", "clear_color[2]"},
		{"tick rate", "[engine]\ntick_rate = 0\n", "tick_rate"},
		{"log level", "[logging]\nlevel = \"trace\"\n", `unknown level "trace"`},
		{"log format", "[logging]\nformat = \"xml\"\n", `unknown format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.toml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseJoinsErrors(t *testing.T) {
	_, err := config.Parse([]byte("[engine]\ntick_rate = -1\nframe_limit = -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_rate")
	assert.Contains(t, err.Error(), "frame_limit")
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = 3\n"), 0o644))
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
