package display

import (
	"encoding/json"
	"io"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// FormatReport implements Formatter.FormatReport.
func (f *jsonFormatter) FormatReport(w io.Writer, report Report) error {
	if report.Paths == nil {
		report.Paths = []string{}
	}
	return f.encode(w, report)
}

// FormatDirectories implements Formatter.FormatDirectories.
func (f *jsonFormatter) FormatDirectories(w io.Writer, id string, counts []DirCount) error {
	if counts == nil {
		counts = []DirCount{}
	}
	return f.encode(w, struct {
		ID          string     `json:"id"`
		Directories []DirCount `json:"directories"`
	}{id, counts})
}

// FormatSessions implements Formatter.FormatSessions.
func (f *jsonFormatter) FormatSessions(w io.Writer, sessions []SessionSummary) error {
	if sessions == nil {
		sessions = []SessionSummary{}
	}
	return f.encode(w, sessions)
}

// FormatSession implements Formatter.FormatSession.
func (f *jsonFormatter) FormatSession(w io.Writer, detail SessionDetail) error {
	if detail.History == nil {
		detail.History = []RunSummary{}
	}
	return f.encode(w, detail)
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}
