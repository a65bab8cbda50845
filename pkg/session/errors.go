package session

import "errors"

// Common errors returned by the session catalog.
var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrRunNotFound is returned when a run is not in the session history.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRunID is returned when a run ID is not a UUID.
	ErrInvalidRunID = errors.New("invalid run ID format")

	// ErrEmptyIdentifier is returned when a session identifier is empty.
	ErrEmptyIdentifier = errors.New("session identifier cannot be empty")

	// ErrIdentifierTooLong is returned when an identifier exceeds MaxIdentifierLength.
	ErrIdentifierTooLong = errors.New("session identifier too long")

	// ErrInvalidIdentifier is returned when an identifier has characters
	// outside [A-Za-z0-9_-].
	ErrInvalidIdentifier = errors.New("session identifier may only contain letters, digits, '-' and '_'")

	// ErrStoreMismatch is returned when an identifier is registered with a
	// different store path.
	ErrStoreMismatch = errors.New("session already registered with a different store")

	// ErrEmptyCommand is returned when a run has no command.
	ErrEmptyCommand = errors.New("run command cannot be empty")
)
