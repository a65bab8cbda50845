package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile reads a single file without merging or validation.
	LoadFromFile(path string) (*Config, error)

	// Source reports which file Load used, or "defaults".
	Source() string
}

// loader implements the Loader interface.
type loader struct {
	configPath string
	source     string
}

// NewLoader creates a new configuration loader.
//
// Parameters:
//   - configPath: explicit config file, or "" to search SearchPaths()
//
// If configPath is empty, the loader searches:
// 1. ./instrack.yaml (current directory)
// 2. ~/.config/instrack/config.yaml
//
// and silently falls back to defaults when nothing is found. An explicit
// configPath that cannot be read is an error.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	// Start with default configuration
	cfg := Default()
	l.source = "defaults"

	// Find config file path
	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	// Load from file if it exists
	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicit file must load; a searched one falls back to defaults
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
			l.source = configPath
		}
	}

	// Apply environment variable overrides
	cfg = l.applyEnvVars(cfg)

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Source implements Loader.Source.
func (l *loader) Source() string {
	return l.source
}

// findConfigFile searches for a config file in standard locations.
//
// Searches in order:
// 1. ./instrack.yaml
// 2. ~/.config/instrack/config.yaml
//
// Returns empty string if no config file is found.
func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero. A home
// directory set in the file also moves the library and catalog defaults
// unless the file sets those explicitly.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	// Merge home and the paths derived from it
	if override.Home != "" {
		result.Home = override.Home
		result.LibraryPath = filepath.Join(override.Home, "lib", "libinstrack.so")
		result.Storage.CatalogPath = filepath.Join(override.Home, "catalog.db")
	}
	if override.LibraryPath != "" {
		result.LibraryPath = override.LibraryPath
	}

	// Merge tracking config
	if len(override.Tracking.Hooks) > 0 {
		result.Tracking.Hooks = override.Tracking.Hooks
	}
	if len(override.Tracking.DenyPrefixes) > 0 {
		result.Tracking.DenyPrefixes = override.Tracking.DenyPrefixes
	}
	if override.Tracking.DiagnosticTool != "" {
		result.Tracking.DiagnosticTool = override.Tracking.DiagnosticTool
	}
	if override.Tracking.DiagnosticTimeout > 0 {
		result.Tracking.DiagnosticTimeout = override.Tracking.DiagnosticTimeout
	}
	// Extra closure patterns; the vDSO and libc baseline always applies
	if override.Tracking.IgnoredDependencies != nil {
		result.Tracking.IgnoredDependencies = override.Tracking.IgnoredDependencies
	}
	if override.Tracking.HookLog != "" {
		result.Tracking.HookLog = override.Tracking.HookLog
	}

	// Merge storage config
	if override.Storage.CatalogPath != "" {
		result.Storage.CatalogPath = override.Storage.CatalogPath
	}

	// Merge logging config
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - INSTRACK_HOME: home directory (moves library and catalog defaults)
//   - INSTRACK_LIBRARY: interception module path
//   - INSTRACK_CATALOG: session catalog path
//   - INSTRACK_LOG_LEVEL: log level
//   - INSTRACK_DIAGNOSTIC_TOOL: closure diagnostic tool
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	// INSTRACK_HOME: home directory
	if home := os.Getenv("INSTRACK_HOME"); home != "" {
		result.Home = home
		if os.Getenv("INSTRACK_LIBRARY") == "" {
			result.LibraryPath = filepath.Join(home, "lib", "libinstrack.so")
		}
		if os.Getenv("INSTRACK_CATALOG") == "" {
			result.Storage.CatalogPath = filepath.Join(home, "catalog.db")
		}
	}

	// INSTRACK_LIBRARY: interception module path
	if lib := os.Getenv("INSTRACK_LIBRARY"); lib != "" {
		result.LibraryPath = lib
	}

	// INSTRACK_CATALOG: session catalog path
	if catalog := os.Getenv("INSTRACK_CATALOG"); catalog != "" {
		result.Storage.CatalogPath = catalog
	}

	// INSTRACK_LOG_LEVEL: log level
	if logLevel := os.Getenv("INSTRACK_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	// INSTRACK_DIAGNOSTIC_TOOL: closure diagnostic tool
	if tool := os.Getenv("INSTRACK_DIAGNOSTIC_TOOL"); tool != "" {
		result.Tracking.DiagnosticTool = tool
	}

	return &result
}

// Load is a convenience function that loads configuration from the
// standard search paths.
//
// Equivalent to:
//
//	loader := NewLoader("")
//	return loader.Load()
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration with
// path as the explicit config file.
//
// Equivalent to:
//
//	loader := NewLoader(path)
//	return loader.Load()
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file.
//
// Parameters:
//   - cfg: Configuration to save
//   - path: File path to write to
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
