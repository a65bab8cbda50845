package config

import (
	"os"
	"path/filepath"
	"strings"
)

// defaultHome returns ~/.instrack, or ./.instrack without a home directory.
func defaultHome() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".instrack"
	}
	return filepath.Join(homeDir, ".instrack")
}

// defaultConfigPath returns ~/.config/instrack/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./instrack.yaml"
	}
	return filepath.Join(homeDir, ".config", "instrack", "config.yaml")
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() string {
	return defaultConfigPath()
}

// SearchPaths returns the configuration file candidates in precedence order.
func SearchPaths() []string {
	return []string{
		"./instrack.yaml",
		defaultConfigPath(),
	}
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
