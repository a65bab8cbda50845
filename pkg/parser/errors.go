package parser

import (
	"errors"
	"strconv"
)

// Common errors returned by the parser package.
var (
	// ErrBlankLine is returned for an empty or whitespace-only line.
	ErrBlankLine = errors.New("blank line")

	// ErrUnrecognizedLine is returned when a line matches no known form.
	ErrUnrecognizedLine = errors.New("unrecognized line")

	// ErrEmptyName is returned when a line lists an entry without a name.
	ErrEmptyName = errors.New("entry has no name")
)

// ParseError provides context about a parsing failure.
type ParseError struct {
	Line int    // Line number where error occurred (1-indexed)
	Data string // The malformed line (truncated if too long)
	Err  error  // Underlying error
}

func (e *ParseError) Error() string {
	maxLen := 100
	data := e.Data
	if len(data) > maxLen {
		data = data[:maxLen] + "..."
	}
	if e.Line > 0 {
		return "parse error at line " + strconv.Itoa(e.Line) + ": " + data + ": " + e.Err.Error()
	}
	return "parse error: " + data + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
