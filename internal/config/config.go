// Package config provides loading and validation of the TOML configuration
// file. The file is optional; command line flags and DEPTRACK_* environment
// variables override whatever it contains.
package config

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/redlarch/deptrack/internal/common"
	"github.com/redlarch/deptrack/internal/logging"
	"github.com/redlarch/deptrack/internal/session"
)

// Error definitions for the config package
var (
	// ErrEmptyConfigPath is returned when the config file path is empty.
	ErrEmptyConfigPath = errors.New("config file path is empty")
)

// Config is the tool configuration.
type Config struct {
	Session SessionConfig `toml:"session"`
	Load    LoadConfig    `toml:"load"`
	Logging LoggingConfig `toml:"logging"`
}

// SessionConfig configures session-related paths.
type SessionConfig struct {
	// DepsDir is the folder searched for dependency files in batch mode.
	DepsDir string `toml:"deps_dir"`
}

// LoadConfig selects which parts of a dependency are merged on load.
type LoadConfig struct {
	Segments  bool `toml:"segments"`
	Resources bool `toml:"resources"`
	Imports   bool `toml:"imports"`
	Code      bool `toml:"code"`
}

// LoggingConfig configures the logging stack.
type LoggingConfig struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Load: LoadConfig{
			Segments:  true,
			Resources: true,
			Imports:   true,
			Code:      true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadOptions translates the load section into the session option bitset.
// Name merging is never enabled regardless of configuration; see
// session.LoadNameMerge.
func (c *Config) LoadOptions() session.LoadOption {
	var opts session.LoadOption
	if c.Load.Segments {
		opts |= session.LoadSegments
	}
	if c.Load.Resources {
		opts |= session.LoadResources
	}
	if c.Load.Imports {
		opts |= session.LoadImports
	}
	if c.Load.Code {
		opts |= session.LoadCode
	}
	return opts
}

// Validate checks field values that cannot be verified by decoding alone.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("validating logging.level: %w", err)
	}
	return nil
}

// Loader handles loading and validating configurations
type Loader struct {
	fs common.FileSystem
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return NewLoaderWithFS(common.NewDefaultFileSystem())
}

// NewLoaderWithFS creates a new config loader with a custom FileSystem
func NewLoaderWithFS(fs common.FileSystem) *Loader {
	return &Loader{fs: fs}
}

// LoadConfig loads the configuration from path, applying defaults for
// fields the file does not set, and validates the result.
func (l *Loader) LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyConfigPath
	}

	content, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
