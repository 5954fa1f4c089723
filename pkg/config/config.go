// Package config provides configuration loading and management.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for signage.
type Config struct {
	// Display
	Connector uint32 `yaml:"connector"`

	// Frame cache
	AheadSeconds  float64 `yaml:"ahead_seconds"`
	BehindSeconds float64 `yaml:"behind_seconds"`
	BitsPerPixel  int     `yaml:"bits_per_pixel"`

	// Decode polling
	MinPollMs int `yaml:"min_poll_ms"`
	MaxPollMs int `yaml:"max_poll_ms"`

	// Test card source
	Testcard TestcardConfig `yaml:"testcard"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// TestcardConfig represents the synthetic test card source settings.
type TestcardConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	FPS      float64 `yaml:"fps"`
	Duration float64 `yaml:"duration"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Display
		Connector: 1,

		// Frame cache
		AheadSeconds:  10,
		BehindSeconds: 1,
		BitsPerPixel:  32,

		// Decode polling
		MinPollMs: 1,
		MaxPollMs: 20,

		// Test card source
		Testcard: TestcardConfig{
			Width:    640,
			Height:   360,
			FPS:      30,
			Duration: 10,
		},

		// Debug
		DebugDir: "./debug",

		// Logging
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file, overlaying defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
