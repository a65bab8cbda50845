package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrNoHome is returned when the instrack home directory is empty.
	ErrNoHome = errors.New("home directory must be set")

	// ErrNoLibrary is returned when the interception module path is empty.
	ErrNoLibrary = errors.New("library path must be set")

	// ErrNoDiagnosticTool is returned when no diagnostic tool is configured.
	ErrNoDiagnosticTool = errors.New("diagnostic tool must be set")

	// ErrInvalidDiagnosticTimeout is returned when the timeout is <= 0.
	ErrInvalidDiagnosticTimeout = errors.New("invalid diagnostic timeout: must be > 0")

	// ErrInvalidIgnorePattern is returned when an ignored dependency is not a valid glob.
	ErrInvalidIgnorePattern = errors.New("invalid ignored dependency pattern")

	// ErrRelativeDenyPrefix is returned when a deny prefix is not absolute.
	ErrRelativeDenyPrefix = errors.New("deny prefixes must be absolute paths")

	// ErrNoCatalog is returned when the session catalog path is empty.
	ErrNoCatalog = errors.New("catalog path must be set")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, error, or off")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")
)
