// Package config loads and saves the bydantic CLI configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/khusmann/bydantic/pkg/framing"
)

// Config represents the bydantic CLI configuration.
type Config struct {
	CaptureDir string        `yaml:"capture_dir"`
	Framing    FramingConfig `yaml:"framing"`
}

// FramingConfig describes a delimiter/escape framing profile.
type FramingConfig struct {
	Delimiter byte          `yaml:"delimiter"`
	Escape    byte          `yaml:"escape"`
	EscapeMap map[byte]byte `yaml:"escape_map"`
}

// Build converts the configuration into a framing profile.
func (f FramingConfig) Build() framing.SimpleFraming {
	return framing.SimpleFraming{
		Delimiter: f.Delimiter,
		Escape:    f.Escape,
		EscapeMap: f.EscapeMap,
	}
}

// DefaultConfig returns a default configuration using KISS framing.
func DefaultConfig() *Config {
	kiss := framing.KISS()
	return &Config{
		CaptureDir: "./captures",
		Framing: FramingConfig{
			Delimiter: kiss.Delimiter,
			Escape:    kiss.Escape,
			EscapeMap: kiss.EscapeMap,
		},
	}
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves the configuration to the specified path with secure
// permissions.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
