package closure

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/instrack/pkg/recorder"
)

// fakeTool writes an executable shell script standing in for ldd.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ldd")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

const lddOutput = `printf '\tlinux-vdso.so.1 (0x00007ffc8a5f2000)\n'
printf '\tlibselinux.so.1 => /lib/x86_64-linux-gnu/libselinux.so.1 (0x00007f2a3c1b0000)\n'
printf '\tlibc.so.6 => /lib/x86_64-linux-gnu/libc.so.6 (0x00007f2a3bf80000)\n'
printf '\tlibselinux.so.1 => /lib/x86_64-linux-gnu/libselinux.so.1 (0x00007f2a3c1b0000)\n'
printf '\tlibmissing.so.3 => not found\n'
printf '\t/lib64/ld-linux-x86-64.so.2 (0x00007f2a3c210000)\n'`

type memAdder struct {
	paths []string
	fail  error
}

func (m *memAdder) Add(path string) error {
	if m.fail != nil {
		return m.fail
	}
	m.paths = append(m.paths, path)
	return nil
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestResolve(t *testing.T) {
	got, err := Resolve("./build/app")
	require.NoError(t, err)
	assert.Equal(t, "./build/app", got)

	got, err = Resolve("/definitely/not/here")
	require.NoError(t, err)
	assert.Equal(t, "/definitely/not/here", got)

	_, err = Resolve("instrack-no-such-command-xyz")
	assert.ErrorIs(t, err, ErrCommandNotFound)

	_, err = Resolve("")
	assert.ErrorIs(t, err, ErrCommandNotFound)
}

func TestResolveSearchesPath(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	exe := filepath.Join(dir, "mytool")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))
	t.Setenv("PATH", dir)

	got, err := Resolve("mytool")
	require.NoError(t, err)
	assert.Equal(t, exe, got)
}

func TestExtractCat(t *testing.T) {
	requireShell(t)
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	x := New(Config{Tool: fakeTool(t, lddOutput), Timeout: 5 * time.Second}, nil)
	rec := &memAdder{}

	deps, err := x.Extract(context.Background(), "cat", rec)
	require.NoError(t, err)

	want := []string{
		"/lib/x86_64-linux-gnu/libselinux.so.1",
		"libmissing.so.3",
		"/lib64/ld-linux-x86-64.so.2",
	}
	assert.Equal(t, want, deps)
	assert.Equal(t, want, rec.paths)
	assert.NotContains(t, rec.paths, "/lib/x86_64-linux-gnu/libc.so.6")
	assert.NotContains(t, rec.paths, "linux-vdso.so.1")
}

func TestExtractIntoStore(t *testing.T) {
	requireShell(t)
	store := filepath.Join(t.TempDir(), "s", "s.db")
	require.NoError(t, recorder.Create(store))

	x := New(Config{Tool: fakeTool(t, lddOutput)}, nil)
	_, err := x.Extract(context.Background(), "/bin/true", recorder.New(store, nil))
	require.NoError(t, err)

	paths, err := recorder.Paths(store)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/lib/x86_64-linux-gnu/libselinux.so.1",
		"/lib64/ld-linux-x86-64.so.2",
		"libmissing.so.3",
	}, paths)
}

func TestExtractCommandNotFound(t *testing.T) {
	x := New(Config{Tool: "/nonexistent/ldd"}, nil)
	rec := &memAdder{}

	_, err := x.Extract(context.Background(), "instrack-no-such-command-xyz", rec)
	assert.ErrorIs(t, err, ErrCommandNotFound)
	assert.Empty(t, rec.paths)
}

func TestExtractToolUnavailable(t *testing.T) {
	x := New(Config{Tool: filepath.Join(t.TempDir(), "missing-ldd")}, nil)

	_, err := x.Extract(context.Background(), "/bin/true", &memAdder{})
	assert.ErrorIs(t, err, ErrToolUnavailable)
}

func TestExtractNotDynamic(t *testing.T) {
	requireShell(t)
	tool := fakeTool(t, `printf '\tnot a dynamic executable\n'; exit 1`)
	x := New(Config{Tool: tool}, nil)
	rec := &memAdder{}

	deps, err := x.Extract(context.Background(), "/bin/true", rec)
	require.NoError(t, err)
	assert.Empty(t, deps)
	assert.Empty(t, rec.paths)
}

func TestExtractDiagnosticFailed(t *testing.T) {
	requireShell(t)
	tool := fakeTool(t, `echo "ldd: boom" >&2; exit 2`)
	x := New(Config{Tool: tool}, nil)

	_, err := x.Extract(context.Background(), "/bin/true", &memAdder{})
	assert.ErrorIs(t, err, ErrDiagnosticFailed)
	assert.Contains(t, err.Error(), "ldd: boom")
}

func TestExtractTimeout(t *testing.T) {
	requireShell(t)
	tool := fakeTool(t, `exec sleep 5`)
	x := New(Config{Tool: tool, Timeout: 50 * time.Millisecond}, nil)

	_, err := x.Extract(context.Background(), "/bin/true", &memAdder{})
	assert.ErrorIs(t, err, ErrDiagnosticFailed)
}

func TestExtractRecordFailure(t *testing.T) {
	requireShell(t)
	x := New(Config{Tool: fakeTool(t, lddOutput)}, nil)
	boom := errors.New("disk full")

	_, err := x.Extract(context.Background(), "/bin/true", &memAdder{fail: boom})
	assert.ErrorIs(t, err, ErrRecordFailed)
	assert.ErrorIs(t, err, boom)
}

func TestIgnored(t *testing.T) {
	x := New(Config{}, nil)

	assert.True(t, x.ignored("linux-vdso.so.1"))
	assert.True(t, x.ignored("linux-gate.so.1"))
	assert.True(t, x.ignored("/lib/x86_64-linux-gnu/libc.so.6"))
	assert.False(t, x.ignored("/lib/x86_64-linux-gnu/libcap.so.2"))
	assert.False(t, x.ignored("/usr/lib/libc++.so.1"))
}

func TestIgnoredAddsToBaseline(t *testing.T) {
	x := New(Config{Ignored: []string{"libselinux.so.*"}}, nil)

	assert.True(t, x.ignored("/lib/x86_64-linux-gnu/libselinux.so.1"))
	assert.True(t, x.ignored("/lib/x86_64-linux-gnu/libc.so.6"))
	assert.True(t, x.ignored("linux-vdso.so.1"))
	assert.False(t, x.ignored("/lib64/ld-linux-x86-64.so.2"))
}

func TestDependenciesWithoutConfiguredIgnores(t *testing.T) {
	requireShell(t)
	x := New(Config{Tool: fakeTool(t, lddOutput), Ignored: []string{}}, nil)

	deps, err := x.Dependencies(context.Background(), "/bin/true")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/lib/x86_64-linux-gnu/libselinux.so.1",
		"libmissing.so.3",
		"/lib64/ld-linux-x86-64.so.2",
	}, deps)
}

func TestToolPath(t *testing.T) {
	requireShell(t)
	tool := fakeTool(t, lddOutput)

	got, err := New(Config{Tool: tool}, nil).ToolPath()
	require.NoError(t, err)
	assert.Equal(t, tool, got)

	_, err = New(Config{Tool: "instrack-no-such-ldd"}, nil).ToolPath()
	assert.ErrorIs(t, err, ErrToolUnavailable)
}
