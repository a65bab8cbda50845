package recorder

import "errors"

// Common errors returned by the recorder package.
var (
	// ErrNoStore is returned when no store path is bound.
	ErrNoStore = errors.New("no session store bound")

	// ErrStoreMissing is returned when the bound store file does not exist.
	ErrStoreMissing = errors.New("session store does not exist")

	// ErrInvalidStoreName is returned when no table name can be derived
	// from the store path.
	ErrInvalidStoreName = errors.New("cannot derive table name from store path")

	// ErrEmptyPath is returned when asked to record an empty path.
	ErrEmptyPath = errors.New("empty path")
)
