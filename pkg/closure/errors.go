package closure

import "errors"

// Common errors returned by the closure package. Each one is fatal to a
// Track operation.
var (
	// ErrCommandNotFound is returned when the command token resolves to no
	// executable.
	ErrCommandNotFound = errors.New("command not found")

	// ErrToolUnavailable is returned when the diagnostic tool cannot be run.
	ErrToolUnavailable = errors.New("diagnostic tool unavailable")

	// ErrDiagnosticFailed is returned when the diagnostic tool exits with an
	// error other than "not a dynamic executable".
	ErrDiagnosticFailed = errors.New("diagnostic tool failed")

	// ErrRecordFailed is returned when an entry cannot be recorded.
	ErrRecordFailed = errors.New("failed to record dependency")
)
