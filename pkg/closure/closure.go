// Package closure records the shared objects a tracked executable links
// against, before the executable runs.
//
// The extractor resolves the command token to an executable, runs the
// dynamic-linker diagnostic tool (ldd) against it, parses the output, drops
// the entries every program carries, and adds each remaining entry to the
// session store once.
//
// Example usage:
//
//	x := closure.New(closure.Config{Tool: "ldd", Timeout: 30 * time.Second}, log)
//	deps, err := x.Extract(ctx, "cat", rec)
package closure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xmhha/instrack/pkg/logger"
	"github.com/0xmhha/instrack/pkg/parser"
)

// notDynamic is what ldd prints for static executables and scripts.
const notDynamic = "not a dynamic executable"

// Baseline lists the base-name globs every extractor drops: the vDSO under
// its per-architecture names and the C runtime. Config.Ignored adds to it.
var Baseline = []string{
	"linux-vdso.so.*",
	"linux-vdso64.so.*",
	"linux-gate.so.*",
	"libc.so.*",
}

// Adder records one entry. *recorder.Recorder implements it.
type Adder interface {
	Add(path string) error
}

// Config contains extractor settings.
type Config struct {
	// Tool is the diagnostic executable, a name looked up in PATH or a path.
	Tool string

	// Timeout bounds one run of the tool. Zero means no bound.
	Timeout time.Duration

	// Ignored lists base-name globs of entries to drop in addition to
	// Baseline.
	Ignored []string
}

// Extractor computes and records dependency closures.
type Extractor struct {
	cfg    Config
	parser parser.Parser
	log    logger.Logger
}

// New creates an extractor. A nil log discards.
func New(cfg Config, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.Noop()
	}
	if cfg.Tool == "" {
		cfg.Tool = "ldd"
	}
	return &Extractor{
		cfg:    cfg,
		parser: parser.New(parser.WithLogger(log)),
		log:    log,
	}
}

// Resolve turns a command token into an executable path. A token
// containing "/" is returned unchanged; anything else is searched in PATH.
func Resolve(command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("%w: empty command", ErrCommandNotFound)
	}
	if strings.Contains(command, "/") {
		return command, nil
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, command)
	}
	return path, nil
}

// ToolPath resolves the configured diagnostic tool to the executable that
// will run.
func (x *Extractor) ToolPath() (string, error) {
	tool, err := exec.LookPath(x.cfg.Tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolUnavailable, x.cfg.Tool, err)
	}
	return tool, nil
}

// Dependencies runs the tool against executable and returns the distinct
// entries to record, in output order.
func (x *Extractor) Dependencies(ctx context.Context, executable string) ([]string, error) {
	entries, err := x.run(ctx, executable)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(entries))
	var deps []string
	for _, e := range entries {
		value := e.Value()
		if value == "" || seen[value] || x.ignored(value) {
			continue
		}
		if e.Status == parser.NotFound {
			x.log.Warn("dependency not found", "executable", executable, "library", e.Name)
		}
		seen[value] = true
		deps = append(deps, value)
	}
	return deps, nil
}

// Extract resolves command, computes its closure and adds every entry
// through rec. It returns the recorded entries.
func (x *Extractor) Extract(ctx context.Context, command string, rec Adder) ([]string, error) {
	executable, err := Resolve(command)
	if err != nil {
		return nil, err
	}

	deps, err := x.Dependencies(ctx, executable)
	if err != nil {
		return nil, err
	}

	for _, dep := range deps {
		if err := rec.Add(dep); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrRecordFailed, dep, err)
		}
	}

	x.log.Info("recorded dependency closure", "executable", executable, "count", len(deps))
	return deps, nil
}

// run executes the tool and parses its standard output.
func (x *Extractor) run(ctx context.Context, executable string) ([]parser.Entry, error) {
	if x.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.cfg.Timeout)
		defer cancel()
	}

	tool, err := x.ToolPath()
	if err != nil {
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, executable) // nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	x.log.Debug("running diagnostic tool", "tool", tool, "executable", executable)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s: %w", ErrToolUnavailable, tool, err)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDiagnosticFailed, tool, ctx.Err())
		}
		if strings.Contains(stdout.String()+stderr.String(), notDynamic) {
			x.log.Debug("executable is not dynamic", "executable", executable)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s exited with %d: %s",
			ErrDiagnosticFailed, tool, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}

	return x.parser.Parse(&stdout)
}

// ignored reports whether value's base name matches a Baseline or
// configured glob.
func (x *Extractor) ignored(value string) bool {
	base := filepath.Base(value)
	return matchAny(Baseline, base) || matchAny(x.cfg.Ignored, base)
}

func matchAny(patterns []string, base string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
