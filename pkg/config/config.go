/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/ceoskit/pkg/codec"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/logging"
	"github.com/ssargent/ceoskit/pkg/source"
)

// Config represents the ceos configuration
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Port     int            `yaml:"port"`
	Bind     string         `yaml:"bind"`
	Security Security       `yaml:"security"`
	Decode   Decode         `yaml:"decode"`
	S3       S3             `yaml:"s3"`
	Logging  logging.Config `yaml:"logging"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"`
}

// Decode controls how leader files are read
type Decode struct {
	Strict        bool `yaml:"strict"`
	MaxRecordSize int  `yaml:"max_record_size"`
}

// S3 enables s3:// locations
type S3 struct {
	Enabled        bool   `yaml:"enabled"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint,omitempty"`
	ForcePathStyle bool   `yaml:"force_path_style,omitempty"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey: "auto",
		},
		Decode: Decode{
			Strict:        true,
			MaxRecordSize: leaderfile.DefaultMaxRecordSize,
		},
		S3: S3{
			Region: "us-east-1",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Mode returns the codec mode selected by Decode.Strict
func (c *Config) Mode() codec.Mode {
	if c.Decode.Strict {
		return codec.Strict
	}
	return codec.Lenient
}

// ArchivePath returns the directory of the pebble archive
func (c *Config) ArchivePath() string {
	return filepath.Join(c.DataDir, "archive")
}

// S3Config returns the client settings for s3:// locations
func (c *Config) S3Config() source.S3Config {
	return source.S3Config{
		Region:         c.S3.Region,
		Endpoint:       c.S3.Endpoint,
		ForcePathStyle: c.S3.ForcePathStyle,
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Decode.MaxRecordSize < leader.HeaderSize {
		return fmt.Errorf("max_record_size %d is smaller than a record header", c.Decode.MaxRecordSize)
	}
	if c.S3.Enabled && c.S3.Region == "" {
		return fmt.Errorf("s3 is enabled without a region")
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Missing keys
// keep their defaults.
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

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
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

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./ceos.yaml"
	}

	// ~/.config/ceos/config.yaml on Linux and macOS
	configDir := filepath.Join(homeDir, ".config", "ceos")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
