// Package config assembles the tunables of every layer (geometry, detector
// thresholds, clustering/escalation, storage) into one YAML-loadable
// document, following the operator-CLI's config package: a struct with a
// coded-in Default and an optional on-disk override.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/manifold-eng/manifold-core/internal/analytics"
	"github.com/manifold-eng/manifold-core/internal/evolution"
	"github.com/manifold-eng/manifold-core/internal/geometry"
	"github.com/manifold-eng/manifold-core/internal/signatures"
)

// Config is the root configuration document for the manifold engine.
type Config struct {
	DBPath string `yaml:"db_path"`

	Geometry  geometry.Config   `yaml:"geometry"`
	Detectors signatures.Config `yaml:"detectors"`
	Evolution evolution.Config  `yaml:"evolution"`
	Analytics analytics.Config  `yaml:"analytics"`

	LogLevel string `yaml:"log_level,omitempty"`
}

// Default returns the built-in defaults for every layer, matching the named
// constants each package's own DefaultConfig documents.
func Default() Config {
	return Config{
		DBPath:    "manifold.db",
		Geometry:  geometry.DefaultConfig(),
		Detectors: signatures.DefaultConfig(),
		Evolution: evolution.DefaultConfig(),
		Analytics: analytics.DefaultConfig(),
		LogLevel:  "info",
	}
}

// ConfigDir returns the absolute path to ~/.manifold/.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".manifold"), nil
}

// ConfigPath returns the absolute path to ~/.manifold/manifold.yaml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "manifold.yaml"), nil
}

// Load reads an override document at path and applies it on top of Default.
// A missing file is not an error: it just means the built-in defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg and writes it to path, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
