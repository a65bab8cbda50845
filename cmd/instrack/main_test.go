package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/instrack/pkg/discovery"
	"github.com/0xmhha/instrack/pkg/logger"
	"github.com/0xmhha/instrack/pkg/recorder"
	"github.com/0xmhha/instrack/pkg/session"
)

// testHome points instrack at a fresh home directory and returns it.
func testHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("INSTRACK_HOME", home)
	t.Setenv("INSTRACK_LIBRARY", "")
	t.Setenv("INSTRACK_CATALOG", "")
	t.Setenv("INSTRACK_DIAGNOSTIC_TOOL", "")
	t.Setenv("INSTRACK_LOG_LEVEL", "off")
	t.Chdir(t.TempDir())
	return home
}

// execute runs the CLI with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// seedStore creates the store of id holding paths.
func seedStore(t *testing.T, home, id string, paths ...string) string {
	t.Helper()
	store := discovery.StorePath(filepath.Join(home, "reports"), id)
	require.NoError(t, recorder.Create(store))
	rec := recorder.New(store, nil)
	for _, p := range paths {
		require.NoError(t, rec.Add(p))
	}
	return store
}

func openTestCatalog(t *testing.T, home string) session.Manager {
	t.Helper()
	mgr, err := session.New(session.Config{DBPath: filepath.Join(home, "catalog.db")}, logger.Noop())
	require.NoError(t, err)
	return mgr
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"setup", "track", "report", "session", "config"} {
		assert.Contains(t, names, want)
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}

func TestReportCommand(t *testing.T) {
	home := testHome(t)
	seedStore(t, home, "s1", "/usr/lib/libfoo.so.1", "/etc/passwd", "/etc/hosts")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "simple when not a terminal",
			args: []string{"report", "s1"},
			want: "/etc/hosts\n/etc/passwd\n/usr/lib/libfoo.so.1\n",
		},
		{
			name: "prefix filter",
			args: []string{"report", "s1", "--prefix", "/etc"},
			want: "/etc/hosts\n/etc/passwd\n",
		},
		{
			name: "group by directory",
			args: []string{"report", "s1", "--group-by", "dir", "--format", "simple"},
			want: "2\t/etc\n1\t/usr/lib\n",
		},
		{
			name: "group by top-level directory",
			args: []string{"report", "s1", "--group-by", "dir", "--depth", "1", "-f", "simple"},
			want: "2\t/etc\n1\t/usr\n",
		},
		{
			name: "compact json",
			args: []string{"report", "s1", "--prefix", "/usr", "--format", "json", "--compact"},
			want: `{"id":"s1","store_path":"` + discovery.StorePath(filepath.Join(home, "reports"), "s1") +
				`","paths":["/usr/lib/libfoo.so.1"]}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestReportCommandErrors(t *testing.T) {
	home := testHome(t)
	seedStore(t, home, "s1")

	_, err := execute(t, "report", "missing")
	assert.ErrorIs(t, err, discovery.ErrStoreNotFound)

	_, err = execute(t, "report", "../s1")
	assert.ErrorIs(t, err, session.ErrInvalidIdentifier)

	_, err = execute(t, "report", "s1", "--group-by", "extension")
	assert.Error(t, err)

	_, err = execute(t, "report", "s1", "--format", "xml")
	assert.Error(t, err)

	_, err = execute(t, "report")
	assert.Error(t, err)
}

func TestSessionListShowPrune(t *testing.T) {
	home := testHome(t)
	store := seedStore(t, home, "s1", "/etc/a", "/etc/b")

	mgr := openTestCatalog(t, home)
	_, err := mgr.Register("s1", store)
	require.NoError(t, err)
	run, err := mgr.StartRun("s1", []string{"make", "install"})
	require.NoError(t, err)
	require.NoError(t, mgr.FinishRun("s1", run.ID, session.RunResult{ExitCode: 0, Dependencies: 1, PathCount: 2}))
	_, err = mgr.Register("gone", filepath.Join(home, "reports", "gone", "gone.db"))
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	seedStore(t, home, "stray", "/tmp/x")

	out, err := execute(t, "session", "list", "--format", "simple")
	require.NoError(t, err)
	assert.Equal(t,
		"gone: 0 paths, 0 runs (missing store)\n"+
			"s1: 2 paths, 1 runs (ok)\n"+
			"stray: 1 paths, 0 runs (untracked)\n",
		out)

	out, err = execute(t, "session", "show", "s1", "-f", "simple")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "s1: 2 paths in "+store, lines[0])
	assert.Equal(t, "  "+run.ID+" exit=0 paths=2: make install", lines[1])

	out, err = execute(t, "session", "show", "stray", "-f", "simple")
	require.NoError(t, err)
	assert.Equal(t, "stray: 1 paths in "+discovery.StorePath(filepath.Join(home, "reports"), "stray")+"\n", out)

	_, err = execute(t, "session", "show", "nobody")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	out, err = execute(t, "session", "prune", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Would prune gone\n", out)

	out, err = execute(t, "session", "prune")
	require.NoError(t, err)
	assert.Equal(t, "Pruned gone\n", out)

	out, err = execute(t, "session", "prune")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to prune\n", out)
}

func TestSessionDelete(t *testing.T) {
	home := testHome(t)
	store := seedStore(t, home, "s1", "/etc/a")

	mgr := openTestCatalog(t, home)
	_, err := mgr.Register("s1", store)
	require.NoError(t, err)
	require.NoError(t, mgr.Close())

	out, err := execute(t, "session", "delete", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted session s1\n", out)

	_, statErr := os.Stat(filepath.Dir(store))
	assert.True(t, os.IsNotExist(statErr))

	mgr = openTestCatalog(t, home)
	defer mgr.Close()
	_, err = mgr.Get("s1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	_, err = execute(t, "session", "delete", "..")
	assert.ErrorIs(t, err, session.ErrInvalidIdentifier)
}

func TestSetupSkipBuild(t *testing.T) {
	home := testHome(t)

	out, err := execute(t, "setup", "--skip-build")
	require.NoError(t, err)
	assert.Contains(t, out, "Skipping module build")

	for _, dir := range []string{"reports", "lib"} {
		info, err := os.Stat(filepath.Join(home, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSetupMissingSource(t *testing.T) {
	testHome(t)
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("C compiler not available")
	}
	t.Setenv("CC", "")

	_, err := execute(t, "setup", "--source", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interception module source not found")
}

func TestTrackCommand(t *testing.T) {
	home := testHome(t)
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	tool := filepath.Join(t.TempDir(), "fake-ldd")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\nprintf '\\tlibfoo.so.1 => /opt/lib/libfoo.so.1 (0x00007f00)\\n'\n"), 0755))
	t.Setenv("INSTRACK_DIAGNOSTIC_TOOL", tool)

	lib := filepath.Join(home, "lib", "libinstrack.so")
	require.NoError(t, os.MkdirAll(filepath.Dir(lib), 0755))
	require.NoError(t, os.WriteFile(lib, nil, 0644))

	_, err := execute(t, "track", "s1", "sh", "-c", "exit 4")
	var exit *exitError
	require.True(t, errors.As(err, &exit), "got %v", err)
	assert.Equal(t, 4, exit.code)

	_, err = execute(t, "track", "--quiet", "s1", "true")
	require.NoError(t, err)

	paths, err := recorder.Paths(discovery.StorePath(filepath.Join(home, "reports"), "s1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/lib/libfoo.so.1"}, paths)

	mgr := openTestCatalog(t, home)
	defer mgr.Close()
	meta, err := mgr.Get("s1")
	require.NoError(t, err)
	require.Len(t, meta.Runs, 2)
	assert.Equal(t, 4, meta.Runs[0].ExitCode)
	assert.Equal(t, 0, meta.Runs[1].ExitCode)
}

func TestTrackCommandArgs(t *testing.T) {
	testHome(t)

	_, err := execute(t, "track", "only-id")
	assert.Error(t, err)

	_, err = execute(t, "track", "bad/id", "true")
	assert.ErrorIs(t, err, session.ErrInvalidIdentifier)
}

func TestConfigCommands(t *testing.T) {
	home := testHome(t)
	path := filepath.Join(t.TempDir(), "instrack.yaml")

	out, err := execute(t, "config", "init", "--output", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--output", path)
	assert.Error(t, err)

	_, err = execute(t, "config", "init", "--output", path, "--force")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"library_path": "`+filepath.Join(home, "lib", "libinstrack.so")+`"`)

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: "+path)
	assert.Contains(t, out, "diagnostic_tool: ldd")

	out, err = execute(t, "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, path+" [found]")

	_, err = execute(t, "config", "show", "--format", "toml")
	assert.Error(t, err)
}

func TestMergeSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	metas := []*session.Metadata{
		{ID: "b", StorePath: "/r/b/b.db", UpdatedAt: now, Runs: []session.Run{{Command: []string{"make"}}}},
	}
	stores := []discovery.StoreFile{
		{ID: "a", Path: filepath.Join(t.TempDir(), "a.db"), Size: 10, ModTime: now.Add(-time.Hour)},
	}

	got := mergeSessions(metas, stores, logger.Noop())
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ID)
	assert.True(t, got[0].OnDisk)
	assert.False(t, got[0].InCatalog)
	assert.Equal(t, int64(10), got[0].Size)
	assert.Equal(t, now.Add(-time.Hour), got[0].UpdatedAt)
	assert.Zero(t, got[0].PathCount)

	assert.Equal(t, "b", got[1].ID)
	assert.True(t, got[1].InCatalog)
	assert.False(t, got[1].OnDisk)
	assert.Equal(t, 1, got[1].Runs)
	assert.Equal(t, []string{"make"}, got[1].LastCommand)
}

func TestRunSummariesNewestFirst(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)
	runs := []session.Run{
		{ID: "first", StartedAt: start, FinishedAt: &end, ExitCode: 2},
		{ID: "second", StartedAt: end, ExitCode: -1},
	}

	got := runSummaries(runs)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].ID)
	assert.False(t, got[0].Finished)
	assert.Equal(t, "first", got[1].ID)
	assert.True(t, got[1].Finished)
	assert.Equal(t, 2*time.Second, got[1].Duration)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
