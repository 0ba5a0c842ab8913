// Package config manages overlaygen settings, paths, and generation requests.
//
// Ambient settings come from environment variables. Generation requests can
// be read from a YAML, JSON, or TOML file, with OVERLAYGEN_* variables
// overriding individual keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Settings holds process-wide settings read from the environment.
type Settings struct {
	// Root overrides the base directory for scratch data.
	Root string `env:"OVERLAYGEN_ROOT"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"OVERLAYGEN_LOG_LEVEL" envDefault:"info"`

	// LogFormat is one of text, json, logfmt.
	LogFormat string `env:"OVERLAYGEN_LOG_FORMAT" envDefault:"text"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &s, nil
}

// Paths contains the filesystem paths used by overlaygen.
type Paths struct {
	// Root is the base directory for all overlaygen data (default: $TMPDIR/overlaygen)
	Root string

	// Work is the directory holding staged working trees
	Work string
}

// DefaultPaths returns the paths for the given settings.
// Settings.Root takes precedence over the default location.
func DefaultPaths(s *Settings) *Paths {
	root := ""
	if s != nil {
		root = s.Root
	}
	if root == "" {
		root = filepath.Join(os.TempDir(), "overlaygen")
	}

	return &Paths{
		Root: root,
		Work: filepath.Join(root, "work"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Work} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
