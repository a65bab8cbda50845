// Package display renders session reports and the session catalog.
//
// It supports multiple output formats (table, JSON, simple text). The
// simple format prints one path per line so reports can be piped into
// other tools.
package display

import (
	"io"
	"time"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays reports in a formatted table.
	FormatTable Format = "table"

	// FormatJSON displays reports as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays reports as plain lines.
	FormatSimple Format = "simple"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTable, FormatJSON, FormatSimple:
		return Format(s), nil
	default:
		return "", ErrUnknownFormat
	}
}

// Report is the recorded path set of one session.
type Report struct {
	ID        string   `json:"id"`
	StorePath string   `json:"store_path"`
	Paths     []string `json:"paths"`
}

// DirCount is the number of recorded paths under one directory.
type DirCount struct {
	Dir   string `json:"dir"`
	Count int    `json:"count"`
}

// SessionSummary is one row of the session list.
type SessionSummary struct {
	ID          string    `json:"id"`
	StorePath   string    `json:"store_path"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
	Runs        int       `json:"runs"`
	LastCommand []string  `json:"last_command,omitempty"`
	PathCount   int       `json:"path_count"`

	// InCatalog is false for stores found on disk without a catalog entry.
	InCatalog bool `json:"in_catalog"`

	// OnDisk is false for catalog entries whose store was deleted.
	OnDisk bool `json:"on_disk"`
}

// RunSummary is one entry of a session's run history.
type RunSummary struct {
	ID           string        `json:"id"`
	Command      []string      `json:"command"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Finished     bool          `json:"finished"`
	ExitCode     int           `json:"exit_code"`
	Dependencies int           `json:"dependencies"`
	PathCount    int           `json:"path_count"`
}

// SessionDetail is a session with its run history.
type SessionDetail struct {
	SessionSummary
	CreatedAt time.Time    `json:"created_at"`
	History   []RunSummary `json:"history"`
}

// Formatter formats and displays reports.
type Formatter interface {
	// FormatReport formats the paths of one session.
	FormatReport(w io.Writer, report Report) error

	// FormatDirectories formats per-directory path counts.
	FormatDirectories(w io.Writer, id string, counts []DirCount) error

	// FormatSessions formats the session list.
	FormatSessions(w io.Writer, sessions []SessionSummary) error

	// FormatSession formats one session with its history.
	FormatSession(w io.Writer, detail SessionDetail) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool

	// Now is the reference time for relative timestamps.
	// Default: time.Now.
	Now func() time.Time
}
