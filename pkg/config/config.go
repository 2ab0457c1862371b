// Package config loads runtime configuration from YAML files and applies
// defaults. Command line tools layer flag overrides on top of the loaded
// values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration.
type Config struct {
	// RuntimeName is the name reported in system properties.
	RuntimeName string `yaml:"runtime_name"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// TracePath is where the CBOR trace is written, empty disables it.
	TracePath string `yaml:"trace_path"`

	// FramePeriod is the simulated display refresh period.
	FramePeriod time.Duration `yaml:"frame_period"`

	// Headless starts systems without a compositor.
	Headless bool `yaml:"headless"`

	// Devices configures the simulated device layer.
	Devices DeviceConfig `yaml:"devices"`
}

// DeviceConfig selects which simulated devices are present at startup.
type DeviceConfig struct {
	// LeftController and RightController enable hand devices, named by
	// the interaction profile they should answer to.
	LeftController  string `yaml:"left_controller"`
	RightController string `yaml:"right_controller"`

	// Gamepad enables a gamepad device with the given profile.
	Gamepad string `yaml:"gamepad"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		RuntimeName: "Strata",
		LogLevel:    "info",
		FramePeriod: 16_666_667 * time.Nanosecond,
	}
}

// Load reads a YAML configuration file and fills unset fields with
// defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes and fills unset fields with defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks for values no runtime can start with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.FramePeriod <= 0 {
		return fmt.Errorf("frame_period must be positive, got %s", c.FramePeriod)
	}
	if c.RuntimeName == "" {
		return fmt.Errorf("runtime_name must not be empty")
	}
	return nil
}
