package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown format: must be table, json, or simple")

// New creates a new formatter based on configuration.
//
// Parameters:
//   - cfg: Formatter configuration
//
// Returns a configured Formatter.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int) string {
	return humanize.Comma(int64(n))
}

// formatSize formats a byte count.
func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// formatAge formats t relative to now; the zero time is "-".
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatCommand joins an argument vector for display.
func formatCommand(argv []string) string {
	if len(argv) == 0 {
		return "-"
	}
	return strings.Join(argv, " ")
}

// formatExit formats a run's exit status.
func formatExit(r RunSummary) string {
	if !r.Finished {
		return "running"
	}
	return fmt.Sprintf("%d", r.ExitCode)
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}
