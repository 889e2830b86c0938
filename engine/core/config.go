package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/hubastard/shaderview/engine/colors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth    = 1000
	DefaultHeight   = 1000
	DefaultLogEvery = 10
)

// Config for a viewer run. Every field can come from a YAML file; the CLI
// overrides whatever flags were set explicitly.
type Config struct {
	Title      string       `yaml:"title"`
	Width      int          `yaml:"width"`
	Height     int          `yaml:"height"`
	ClearColor colors.Color `yaml:"clear_color"`

	// LogEvery is the frame report cadence.
	LogEvery int `yaml:"log_every"`
	// MaxFrames ends the run after that many rendered frames; 0 runs until closed.
	MaxFrames int `yaml:"max_frames"`

	CapturePath  string `yaml:"capture_path"`
	CaptureFrame int    `yaml:"capture_frame"`

	// Hidden keeps the window off screen (tests, headless capture).
	Hidden bool `yaml:"hidden"`
}

func DefaultConfig() Config {
	return Config{
		Title:        "shaderview",
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		ClearColor:   colors.White,
		LogEvery:     DefaultLogEvery,
		CaptureFrame: 1,
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d: both dimensions must be positive", c.Width, c.Height))
	}
	if c.LogEvery <= 0 {
		errs = append(errs, fmt.Errorf("log_every %d: must be positive", c.LogEvery))
	}
	if c.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("max_frames %d: must not be negative", c.MaxFrames))
	}
	if c.CapturePath != "" && c.CaptureFrame <= 0 {
		errs = append(errs, fmt.Errorf("capture_frame %d: must be positive", c.CaptureFrame))
	}
	return errors.Join(errs...)
}
