package display

import (
	"fmt"
	"io"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatReport implements Formatter.FormatReport. One path per line.
func (f *simpleFormatter) FormatReport(w io.Writer, report Report) error {
	for _, p := range report.Paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}

// FormatDirectories implements Formatter.FormatDirectories.
func (f *simpleFormatter) FormatDirectories(w io.Writer, id string, counts []DirCount) error {
	for _, c := range counts {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", c.Count, c.Dir); err != nil {
			return err
		}
	}
	return nil
}

// FormatSessions implements Formatter.FormatSessions.
func (f *simpleFormatter) FormatSessions(w io.Writer, sessions []SessionSummary) error {
	for _, s := range sessions {
		if _, err := fmt.Fprintf(w, "%s: %s paths, %d runs (%s)\n",
			s.ID,
			formatNumber(s.PathCount),
			s.Runs,
			sessionState(s)); err != nil {
			return err
		}
	}
	return nil
}

// FormatSession implements Formatter.FormatSession.
func (f *simpleFormatter) FormatSession(w io.Writer, detail SessionDetail) error {
	if _, err := fmt.Fprintf(w, "%s: %s paths in %s\n",
		detail.ID,
		formatNumber(detail.PathCount),
		detail.StorePath); err != nil {
		return err
	}

	for _, r := range detail.History {
		if _, err := fmt.Fprintf(w, "  %s exit=%s paths=%d: %s\n",
			r.ID,
			formatExit(r),
			r.PathCount,
			formatCommand(r.Command)); err != nil {
			return err
		}
	}
	return nil
}
