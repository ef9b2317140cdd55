package vkr

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config carries the settings a Renderer is built from. Files may be TOML
// or YAML; fields absent from a file keep their defaults.
type Config struct {
	AppName    string `toml:"app_name" yaml:"app_name"`
	Width      int    `toml:"width" yaml:"width"`
	Height     int    `toml:"height" yaml:"height"`
	Fullscreen bool   `toml:"fullscreen" yaml:"fullscreen"`

	// Validation enables VK_LAYER_KHRONOS_validation and routes its reports
	// to the package logger.
	Validation bool `toml:"validation" yaml:"validation"`

	ClearColor    [4]float32 `toml:"clear_color" yaml:"clear_color"`
	DepthBuffer   bool       `toml:"depth_buffer" yaml:"depth_buffer"`
	PreferMailbox bool       `toml:"prefer_mailbox" yaml:"prefer_mailbox"`

	// MaxTextures sizes the global texture array. Slot 0 holds the default
	// white texture.
	MaxTextures int    `toml:"max_textures" yaml:"max_textures"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		AppName:       "vkr",
		Width:         1280,
		Height:        720,
		ClearColor:    [4]float32{0.1, 0.1, 0.1, 1},
		DepthBuffer:   true,
		PreferMailbox: true,
		MaxTextures:   16,
		LogLevel:      "info",
	}
}

// LoadConfig reads path on top of DefaultConfig. The decoder is picked by
// extension: .toml, .yaml or .yml.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, errors.Wrapf(ErrUnknownConfigFormat, "%s", path)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "decode %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "window size %dx%d", c.Width, c.Height)
	}
	if c.MaxTextures < 1 {
		return errors.Wrapf(ErrInvalidConfig, "max_textures %d", c.MaxTextures)
	}
	return nil
}

// ClearValue returns the configured clear color.
func (c Config) ClearValue() ClearColor {
	return ClearColor(c.ClearColor)
}
