package tracker

import "errors"

// Common errors returned by the tracker package.
var (
	// ErrEmptyCommand is returned when Track is given no command.
	ErrEmptyCommand = errors.New("command must not be empty")

	// ErrLibraryMissing is returned when the interception module has not
	// been built. Run "instrack setup" first.
	ErrLibraryMissing = errors.New("interception module not found")

	// ErrSpawnFailed is returned when the tracked command cannot be started.
	ErrSpawnFailed = errors.New("failed to start command")
)
