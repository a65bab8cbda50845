package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrStoreNotFound is returned when a session has no store on disk.
	ErrStoreNotFound = errors.New("session store not found")

	// ErrInvalidPath is returned when a path is invalid or inaccessible.
	ErrInvalidPath = errors.New("invalid or inaccessible path")
)
