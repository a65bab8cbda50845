package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/instrack/pkg/logger"
)

// MaxLineLength is the longest line the parser accepts (64KB).
const MaxLineLength = 64 * 1024

// Parser parses diagnostic tool output.
type Parser interface {
	// Parse reads every line of r and returns the recognised entries in
	// output order. Blank and unrecognised lines are skipped. Only a read
	// failure is an error.
	//
	// Thread-safety: safe to call concurrently with different readers.
	Parse(r io.Reader) ([]Entry, error)

	// ParseLine parses a single line without its newline.
	//
	// Returns ErrBlankLine or ErrUnrecognizedLine when the line lists no
	// entry.
	ParseLine(line string) (*Entry, error)
}

// lddParser implements the Parser interface.
type lddParser struct {
	log logger.Logger
}

// Option configures a parser.
type Option func(*lddParser)

// WithLogger reports skipped lines at debug level.
func WithLogger(log logger.Logger) Option {
	return func(p *lddParser) {
		p.log = log
	}
}

// New creates a new Parser instance.
func New(opts ...Option) Parser {
	p := &lddParser{log: logger.Noop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse implements Parser.Parse.
func (p *lddParser) Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineLength)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		entry, err := p.ParseLine(scanner.Text())
		if err != nil {
			if !errors.Is(err, ErrBlankLine) {
				p.log.Debug("skipping line", "error", &ParseError{Line: lineNum, Data: scanner.Text(), Err: err})
			}
			continue
		}
		entries = append(entries, *entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("scanner error at line %d: %w", lineNum+1, err)
	}
	return entries, nil
}

// ParseLine implements Parser.ParseLine.
func (p *lddParser) ParseLine(line string) (*Entry, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrBlankLine
	}

	if name, rest, ok := strings.Cut(line, "=>"); ok {
		return parseArrow(strings.TrimSpace(name), strings.TrimSpace(rest))
	}

	name, addr, ok := splitAddress(line)
	if !ok {
		return nil, ErrUnrecognizedLine
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Entry{Name: name, Address: addr, Status: Virtual}, nil
}

// parseArrow handles "name => ..." lines.
func parseArrow(name, rest string) (*Entry, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	if rest == "not found" {
		return &Entry{Name: name, Status: NotFound}, nil
	}

	path, addr, ok := splitAddress(rest)
	if !ok {
		if rest == "" || strings.ContainsAny(rest, "()") {
			return nil, ErrUnrecognizedLine
		}
		path = rest
	}
	if path == "" {
		return &Entry{Name: name, Address: addr, Status: Virtual}, nil
	}
	return &Entry{Name: name, Path: path, Address: addr, Status: Resolved}, nil
}

// splitAddress splits "text (0x...)" into text and the address. It also
// accepts a bare "(0x...)".
func splitAddress(s string) (string, string, bool) {
	if !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	open := strings.LastIndexByte(s, '(')
	if open < 0 {
		return "", "", false
	}
	addr := s[open+1 : len(s)-1]
	if !strings.HasPrefix(addr, "0x") {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), addr, true
}
