// Package config provides configuration management for instrack.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// The interception module does not read this file. The orchestrator turns
// the relevant parts of the configuration into Bindings, which travel to the
// tracked process as environment variables.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Reports: %s\n", cfg.ReportsDir())
package config

import (
	"path/filepath"
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Home and LibraryPath are non-empty
// - DiagnosticTool is non-empty and DiagnosticTimeout > 0
// - every ignored dependency is a valid glob.
type Config struct {
	// Home is the root of instrack's state (reports/, lib/).
	Home string `yaml:"home" json:"home"`

	// LibraryPath is the interception module injected via LD_PRELOAD.
	LibraryPath string `yaml:"library_path" json:"library_path"`

	// Tracking settings
	Tracking TrackingConfig `yaml:"tracking" json:"tracking"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TrackingConfig controls what the interception module and the closure
// extractor observe.
type TrackingConfig struct {
	// Hooks is the enabled subset of hooked entry points. Empty enables all.
	Hooks []string `yaml:"hooks" json:"hooks,omitempty"`

	// DenyPrefixes are extra directory trees the path filter rejects.
	DenyPrefixes []string `yaml:"deny_prefixes" json:"deny_prefixes,omitempty"`

	// DiagnosticTool lists an executable's shared objects (ldd).
	DiagnosticTool string `yaml:"diagnostic_tool" json:"diagnostic_tool"`

	// DiagnosticTimeout bounds one run of the diagnostic tool.
	DiagnosticTimeout time.Duration `yaml:"diagnostic_timeout" json:"diagnostic_timeout"`

	// IgnoredDependencies are base-name globs dropped from the closure on
	// top of the built-in vDSO and C runtime patterns.
	IgnoredDependencies []string `yaml:"ignored_dependencies" json:"ignored_dependencies"`

	// HookLog is an optional log file written by the interception module.
	HookLog string `yaml:"hook_log" json:"hook_log,omitempty"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// CatalogPath is the BoltDB session catalog.
	CatalogPath string `yaml:"catalog_path" json:"catalog_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error, off)
	Level string `yaml:"level" json:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`
}

// ReportsDir returns the directory holding one subdirectory per session.
func (c *Config) ReportsDir() string {
	return filepath.Join(expandHome(c.Home), "reports")
}

// LibDir returns the directory the interception module is installed into.
func (c *Config) LibDir() string {
	return filepath.Join(expandHome(c.Home), "lib")
}

// Library returns LibraryPath with ~ expanded.
func (c *Config) Library() string {
	return expandHome(c.LibraryPath)
}

// Catalog returns Storage.CatalogPath with ~ expanded.
func (c *Config) Catalog() string {
	return expandHome(c.Storage.CatalogPath)
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	if c.Home == "" {
		return ErrNoHome
	}
	if c.LibraryPath == "" {
		return ErrNoLibrary
	}

	if c.Tracking.DiagnosticTool == "" {
		return ErrNoDiagnosticTool
	}
	if c.Tracking.DiagnosticTimeout <= 0 {
		return ErrInvalidDiagnosticTimeout
	}
	for _, pattern := range c.Tracking.IgnoredDependencies {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return ErrInvalidIgnorePattern
		}
	}
	for _, prefix := range c.Tracking.DenyPrefixes {
		if !filepath.IsAbs(prefix) {
			return ErrRelativeDenyPrefix
		}
	}

	if c.Storage.CatalogPath == "" {
		return ErrNoCatalog
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with the default values.
func Default() *Config {
	home := defaultHome()
	return &Config{
		Home:        home,
		LibraryPath: filepath.Join(home, "lib", "libinstrack.so"),
		Tracking: TrackingConfig{
			DiagnosticTool:    "ldd",
			DiagnosticTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			CatalogPath: filepath.Join(home, "catalog.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}
