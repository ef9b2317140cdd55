package vkr

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "vkr", cfg.AppName)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.False(t, cfg.Fullscreen)
	assert.False(t, cfg.Validation)
	assert.Equal(t, ClearColor{0.1, 0.1, 0.1, 1}, cfg.ClearValue())
	assert.True(t, cfg.DepthBuffer)
	assert.True(t, cfg.PreferMailbox)
	assert.Equal(t, 16, cfg.MaxTextures)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigTOML(t *testing.T) {
	path := writeConfig(t, "vkr.toml", `
app_name = "cube"
width = 640
validation = true
clear_color = [0.0, 0.5, 1.0, 1.0]
max_textures = 4
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cube", cfg.AppName)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.True(t, cfg.Validation)
	assert.Equal(t, [4]float32{0, 0.5, 1, 1}, cfg.ClearColor)
	assert.Equal(t, 4, cfg.MaxTextures)
	assert.True(t, cfg.DepthBuffer)
}

func TestLoadConfigYAML(t *testing.T) {
	for _, name := range []string{"vkr.yaml", "vkr.yml"} {
		path := writeConfig(t, name, `
height: 480
depth_buffer: false
prefer_mailbox: false
log_level: debug
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err, name)
		assert.Equal(t, 1280, cfg.Width)
		assert.Equal(t, 480, cfg.Height)
		assert.False(t, cfg.DepthBuffer)
		assert.False(t, cfg.PreferMailbox)
		assert.Equal(t, "debug", cfg.LogLevel)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "vkr.json", `{}`))
	assert.ErrorIs(t, err, ErrUnknownConfigFormat)

	_, err = LoadConfig(writeConfig(t, "bad.toml", `width = 0`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "bad.yaml", "max_textures: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "broken.toml", `width = "wide"`))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel(" WARN "))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}
