package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Language is the source language tag of a unit to analyze.
type Language string

const (
	LanguagePython Language = "python"
	LanguageJava   Language = "java"
)

// Format selects the rendered output shape.
type Format string

const (
	FormatPath  Format = "path"
	FormatProse Format = "prose"
)

// Config holds all configuration for simexe
type Config struct {
	// DefaultLanguage is assumed when a source file's language cannot be
	// inferred from its extension
	DefaultLanguage Language `yaml:"default_language" env:"SIMEXE_DEFAULT_LANGUAGE"`

	// Format selects path or prose rendering
	Format Format `yaml:"format" env:"SIMEXE_FORMAT"`

	// StorePath is the artifact store directory
	StorePath string `yaml:"store_path" env:"SIMEXE_STORE_PATH"`

	// MaxSourceBytes rejects pathologically large inputs before parsing
	MaxSourceBytes int `yaml:"max_source_bytes" env:"SIMEXE_MAX_SOURCE_BYTES"`

	// Logging
	Verbose bool `yaml:"verbose" env:"SIMEXE_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage: LanguagePython,
		Format:          FormatPath,
		StorePath:       defaultStorePath(),
		MaxSourceBytes:  1 << 20,
		Verbose:         false,
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".simexe/store"
	}
	return filepath.Join(home, ".simexe", "store")
}

// globalConfigFilePath returns the global config file path (~/.simexe/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".simexe/config.yaml"
	}
	return filepath.Join(home, ".simexe", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.simexe/config.yaml)
func projectConfigFilePath() string {
	return ".simexe/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.simexe/config.yaml)
// 3. Global config (~/.simexe/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// ProjectConfigPath is where `simexe init` writes the project config.
func ProjectConfigPath() string {
	return projectConfigFilePath()
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SIMEXE_DEFAULT_LANGUAGE"); v != "" {
		cfg.DefaultLanguage = Language(v)
	}
	if v := os.Getenv("SIMEXE_FORMAT"); v != "" {
		cfg.Format = Format(v)
	}
	if v := os.Getenv("SIMEXE_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("SIMEXE_MAX_SOURCE_BYTES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxSourceBytes = i
		}
	}
	if v := os.Getenv("SIMEXE_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	switch c.DefaultLanguage {
	case LanguagePython, LanguageJava:
	default:
		return fmt.Errorf("invalid default_language: %s (must be 'python' or 'java')", c.DefaultLanguage)
	}

	switch c.Format {
	case FormatPath, FormatProse:
	default:
		return fmt.Errorf("invalid format: %s (must be 'path' or 'prose')", c.Format)
	}

	if c.StorePath == "" {
		return fmt.Errorf("store_path must not be empty")
	}
	if c.MaxSourceBytes <= 0 {
		return fmt.Errorf("max_source_bytes must be positive")
	}

	return nil
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
