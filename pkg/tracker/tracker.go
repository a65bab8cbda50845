// Package tracker runs a command under the interception module and files
// the result under a session.
//
// One Track call prepares the session store, records the command's
// dependency closure, spawns the command with the module preloaded and the
// store bound through its environment, waits for it, ingests whatever the
// module spooled from forked children and closes the run in the session
// catalog. The tracker never sets the bindings on its own environment; only
// the child sees them.
//
// Example usage:
//
//	t := tracker.New(cfg, log)
//	res, err := t.Track(ctx, "vim-install", []string{"make", "install"})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d paths, exit %d\n", res.PathCount, res.ExitCode)
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/0xmhha/instrack/pkg/closure"
	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/discovery"
	"github.com/0xmhha/instrack/pkg/hook"
	"github.com/0xmhha/instrack/pkg/logger"
	"github.com/0xmhha/instrack/pkg/recorder"
	"github.com/0xmhha/instrack/pkg/session"
)

// Result describes one tracked run.
type Result struct {
	// ID is the session identifier.
	ID string

	// RunID identifies the run in the session catalog.
	RunID string

	// StorePath is the session store the run recorded into.
	StorePath string

	// Command is the argument vector that was spawned.
	Command []string

	// Dependencies is the recorded dependency closure.
	Dependencies []string

	// ExitCode is the command's exit status, -1 if it was killed by a
	// signal.
	ExitCode int

	// PathCount is the number of distinct paths in the store after the run.
	PathCount int

	// Duration is the command's wall time.
	Duration time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithStdio replaces the standard streams handed to the tracked command.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(t *Tracker) {
		t.stdin = stdin
		t.stdout = stdout
		t.stderr = stderr
	}
}

// WithEnviron sets the base environment of the tracked command. The
// default is the tracker's own environment.
func WithEnviron(env []string) Option {
	return func(t *Tracker) {
		t.environ = func() []string { return env }
	}
}

// Tracker runs commands under the interception module.
type Tracker struct {
	cfg     *config.Config
	log     logger.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	environ func() []string
}

// New creates a tracker. A nil log discards.
func New(cfg *config.Config, log logger.Logger, opts ...Option) *Tracker {
	if log == nil {
		log = logger.Noop()
	}
	t := &Tracker{
		cfg:     cfg,
		log:     log,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track runs argv under the session id.
//
// The command's own exit status is reported in Result, not as an error.
// Errors found before the session is touched (invalid identifier, unknown
// command, missing module, missing diagnostic tool) leave neither a store
// nor a run record behind.
func (t *Tracker) Track(ctx context.Context, id string, argv []string) (*Result, error) {
	if err := session.ValidateIdentifier(id); err != nil {
		return nil, err
	}
	argv = splitCommand(argv)
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	// Resolve everything the run needs before touching the session
	if _, err := closure.Resolve(argv[0]); err != nil {
		return nil, err
	}
	library := t.cfg.Library()
	if _, err := os.Stat(library); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLibraryMissing, library)
	}
	x := closure.New(closure.Config{
		Tool:    t.cfg.Tracking.DiagnosticTool,
		Timeout: t.cfg.Tracking.DiagnosticTimeout,
		Ignored: t.cfg.Tracking.IgnoredDependencies,
	}, t.log)
	tool, err := x.ToolPath()
	if err != nil {
		return nil, err
	}

	storePath := discovery.StorePath(t.cfg.ReportsDir(), id)
	if err := recorder.Create(storePath); err != nil {
		return nil, err
	}

	var runID string
	if err := t.withCatalog(func(m session.Manager) error {
		if _, err := m.Register(id, storePath); err != nil {
			return err
		}
		run, err := m.StartRun(id, argv)
		if err != nil {
			return err
		}
		runID = run.ID
		return nil
	}); err != nil {
		return nil, err
	}

	res := &Result{
		ID:        id,
		RunID:     runID,
		StorePath: storePath,
		Command:   argv,
		ExitCode:  -1,
	}
	b := t.cfg.Bindings(storePath).WithDeny(toolPaths(tool)...)

	err = t.run(ctx, res, x, b, library)
	t.finish(res, b)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// run records the closure and runs the command with the bindings.
func (t *Tracker) run(ctx context.Context, res *Result, x *closure.Extractor, b config.Bindings, library string) error {
	rec := recorder.New(res.StorePath, t.log)
	deps, err := x.Extract(ctx, res.Command[0], rec)
	if err != nil {
		return err
	}
	res.Dependencies = deps

	env := b.WithPreload(t.environ(), library)

	t.log.Info("tracking command",
		"session", res.ID,
		"run", res.RunID,
		"command", strings.Join(res.Command, " "))

	start := time.Now()
	code, err := t.spawn(ctx, res.Command, env)
	res.Duration = time.Since(start)
	res.ExitCode = code
	return err
}

// spawn starts argv, forwards SIGINT and SIGTERM to it and waits.
func (t *Tracker) spawn(ctx context.Context, argv, env []string) (int, error) {
	cmd := exec.Command(argv[0], argv[1:]...) // nolint:gosec
	cmd.Env = env
	cmd.Stdin = t.stdin
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, argv[0], err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	for {
		select {
		case sig := <-sigCh:
			t.log.Debug("forwarding signal", "signal", sig, "pid", cmd.Process.Pid)
			_ = cmd.Process.Signal(sig) // nolint:errcheck
		case <-ctx.Done():
			t.log.Warn("context done, terminating command", "pid", cmd.Process.Pid)
			_ = cmd.Process.Signal(unix.SIGTERM) // nolint:errcheck
			ctx = context.Background()
		case err := <-done:
			return exitCode(err)
		}
	}
}

// finish ingests the pending spool, counts the store and closes the run
// record. Failures are logged; the run itself has already happened.
func (t *Tracker) finish(res *Result, b config.Bindings) {
	n, err := recorder.New(res.StorePath, t.log).Ingest(hook.Admit(b))
	if err != nil {
		t.log.Warn("failed to ingest pending spool", "store", res.StorePath, "error", err)
	} else if n > 0 {
		t.log.Debug("ingested spooled paths", "session", res.ID, "count", n)
	}

	count, err := recorder.Count(res.StorePath)
	if err != nil {
		t.log.Warn("failed to count recorded paths", "store", res.StorePath, "error", err)
	}
	res.PathCount = count

	err = t.withCatalog(func(m session.Manager) error {
		return m.FinishRun(res.ID, res.RunID, session.RunResult{
			ExitCode:     res.ExitCode,
			Dependencies: len(res.Dependencies),
			PathCount:    count,
		})
	})
	if err != nil {
		t.log.Warn("failed to finish run", "session", res.ID, "run", res.RunID, "error", err)
	}
}

// withCatalog opens the catalog for the duration of fn. The catalog is not
// held while the command runs so other instrack invocations are not locked
// out.
func (t *Tracker) withCatalog(fn func(session.Manager) error) error {
	m, err := session.New(session.Config{DBPath: t.cfg.Catalog()}, t.log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			t.log.Error("failed to close session catalog", "error", closeErr)
		}
	}()
	return fn(m)
}

// exitCode maps the result of Wait to an exit status.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// toolPaths returns the absolute diagnostic tool path and, when it is a
// symlink, its target. Both are kept out of the record set.
func toolPaths(tool string) []string {
	abs, err := filepath.Abs(tool)
	if err != nil {
		return nil
	}
	paths := []string{abs}
	if target, err := filepath.EvalSymlinks(abs); err == nil && target != abs {
		paths = append(paths, target)
	}
	return paths
}

// splitCommand splits a lone argument holding a whole command line.
func splitCommand(argv []string) []string {
	if len(argv) == 1 && strings.ContainsAny(argv[0], " \t\n") {
		return strings.Fields(argv[0])
	}
	return argv
}
