package display

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatReport implements Formatter.FormatReport.
func (f *tableFormatter) FormatReport(w io.Writer, report Report) error {
	title := fmt.Sprintf("Session %s: %s paths", report.ID, formatNumber(len(report.Paths)))
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, len(report.Paths))
	for i, p := range report.Paths {
		rows[i] = []string{fmt.Sprintf("%d", i+1), p}
	}

	return f.writeTable(w, []string{"#", "Path"}, rows)
}

// FormatDirectories implements Formatter.FormatDirectories.
func (f *tableFormatter) FormatDirectories(w io.Writer, id string, counts []DirCount) error {
	if err := writeHeader(w, "Session "+id+" by directory", f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Dir, formatNumber(c.Count)}
	}

	return f.writeTable(w, []string{"Directory", "Paths"}, rows)
}

// FormatSessions implements Formatter.FormatSessions.
func (f *tableFormatter) FormatSessions(w io.Writer, sessions []SessionSummary) error {
	if err := writeHeader(w, "Sessions", f.config.Compact); err != nil {
		return err
	}

	now := f.config.Now()
	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		rows[i] = []string{
			s.ID,
			formatNumber(s.PathCount),
			formatNumber(s.Runs),
			formatSize(s.Size),
			formatAge(s.UpdatedAt, now),
			sessionState(s),
			formatCommand(s.LastCommand),
		}
	}

	return f.writeTable(w, []string{"Session", "Paths", "Runs", "Size", "Updated", "State", "Last Command"}, rows)
}

// FormatSession implements Formatter.FormatSession.
func (f *tableFormatter) FormatSession(w io.Writer, detail SessionDetail) error {
	if err := writeHeader(w, "Session "+detail.ID, f.config.Compact); err != nil {
		return err
	}

	now := f.config.Now()
	rows := [][]string{
		{"Store", detail.StorePath},
		{"Size", formatSize(detail.Size)},
		{"Paths", formatNumber(detail.PathCount)},
		{"Created", formatAge(detail.CreatedAt, now)},
		{"Updated", formatAge(detail.UpdatedAt, now)},
		{"State", sessionState(detail.SessionSummary)},
	}
	if err := f.writeTable(w, []string{"Field", "Value"}, rows); err != nil {
		return err
	}

	if err := writeHeader(w, "Runs", f.config.Compact); err != nil {
		return err
	}

	runs := make([][]string, len(detail.History))
	for i, r := range detail.History {
		runs[i] = []string{
			r.ID[:min(8, len(r.ID))],
			formatAge(r.StartedAt, now),
			r.Duration.Round(time.Millisecond).String(),
			formatExit(r),
			formatNumber(r.Dependencies),
			formatNumber(r.PathCount),
			formatCommand(r.Command),
		}
	}
	return f.writeTable(w, []string{"Run", "Started", "Duration", "Exit", "Deps", "Paths", "Command"}, runs)
}

// sessionState summarises catalog and disk presence.
func sessionState(s SessionSummary) string {
	switch {
	case s.InCatalog && s.OnDisk:
		return "ok"
	case s.OnDisk:
		return "untracked"
	case s.InCatalog:
		return "missing store"
	default:
		return "-"
	}
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	// Calculate column widths.
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. The last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	sep := "  "
	if f.config.Compact {
		sep = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(sep)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		fmt.Fprintf(&b, "%-*s", widths[i], cell)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
