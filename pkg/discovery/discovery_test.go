package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// mockLogger implements Logger interface for testing.
type mockLogger struct {
	debugCalls []string
	infoCalls  []string
	warnCalls  []string
	errorCalls []string
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {
	m.debugCalls = append(m.debugCalls, msg)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.infoCalls = append(m.infoCalls, msg)
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.warnCalls = append(m.warnCalls, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.errorCalls = append(m.errorCalls, msg)
}

func TestNew(t *testing.T) {
	d := New("/reports", &mockLogger{})
	if d == nil {
		t.Error("New() returned nil")
	}
}

func TestStorePath(t *testing.T) {
	got := StorePath("/home/u/.instrack/reports", "build")
	want := "/home/u/.instrack/reports/build/build.db"
	if got != want {
		t.Errorf("StorePath() = %s, want %s", got, want)
	}
}

func TestDiscover(t *testing.T) {
	tmpDir := t.TempDir()

	// Create test structure:
	// tmpDir/
	//   beta/beta.db
	//   alpha/alpha.db
	//   empty/            (no store, skipped)
	//   misnamed/other.db (wrong name, skipped)
	//   stray.db          (not a directory, skipped)
	createFile(t, filepath.Join(tmpDir, "beta", "beta.db"), "bb")
	createFile(t, filepath.Join(tmpDir, "alpha", "alpha.db"), "a")
	if err := os.MkdirAll(filepath.Join(tmpDir, "empty"), 0700); err != nil {
		t.Fatal(err)
	}
	createFile(t, filepath.Join(tmpDir, "misnamed", "other.db"), "x")
	createFile(t, filepath.Join(tmpDir, "stray.db"), "x")

	log := &mockLogger{}
	stores, err := New(tmpDir, log).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if len(stores) != 2 {
		t.Fatalf("Discover() found %d stores, want 2", len(stores))
	}
	if stores[0].ID != "alpha" || stores[1].ID != "beta" {
		t.Errorf("Discover() order = %s, %s; want alpha, beta", stores[0].ID, stores[1].ID)
	}
	if stores[1].Size != 2 {
		t.Errorf("beta Size = %d, want 2", stores[1].Size)
	}
	if stores[0].Dir != filepath.Join(tmpDir, "alpha") {
		t.Errorf("alpha Dir = %s", stores[0].Dir)
	}
	if stores[0].ModTime.IsZero() {
		t.Error("alpha ModTime not set")
	}
	if len(log.debugCalls) < 2 {
		t.Errorf("expected skipped directories to be logged, got %v", log.debugCalls)
	}
}

func TestDiscoverMissingReportsDir(t *testing.T) {
	stores, err := New(filepath.Join(t.TempDir(), "absent"), &mockLogger{}).Discover()
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(stores) != 0 {
		t.Errorf("Discover() = %v, want none", stores)
	}
}

func TestDiscoverReportsDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports")
	createFile(t, path, "")

	_, err := New(path, &mockLogger{}).Discover()
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Discover() error = %v, want ErrInvalidPath", err)
	}
}

func TestFind(t *testing.T) {
	tmpDir := t.TempDir()
	createFile(t, filepath.Join(tmpDir, "s1", "s1.db"), "data")
	if err := os.MkdirAll(filepath.Join(tmpDir, "dir", "dir.db"), 0700); err != nil {
		t.Fatal(err)
	}

	d := New(tmpDir, &mockLogger{})

	store, err := d.Find("s1")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if store.Path != filepath.Join(tmpDir, "s1", "s1.db") {
		t.Errorf("Find() Path = %s", store.Path)
	}

	tests := []struct {
		id      string
		wantErr error
	}{
		{"missing", ErrStoreNotFound},
		{"", ErrInvalidPath},
		{"..", ErrInvalidPath},
		{"a/b", ErrInvalidPath},
		{"dir", ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if _, err := d.Find(tt.id); !errors.Is(err, tt.wantErr) {
				t.Errorf("Find(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tilde only", "~", home},
		{"tilde with path", "~/.instrack/reports", filepath.Join(home, ".instrack/reports")},
		{"absolute path", "/absolute/path", "/absolute/path"},
		{"relative path", "relative/path", "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandHome(tt.input); got != tt.want {
				t.Errorf("expandHome(%s) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func createFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func BenchmarkDiscover(b *testing.B) {
	tmpDir := b.TempDir()
	for i := 0; i < 50; i++ {
		id := "s" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		path := filepath.Join(tmpDir, id, id+".db")
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			b.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0600); err != nil {
			b.Fatal(err)
		}
	}

	d := New(tmpDir, &mockLogger{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Discover(); err != nil {
			b.Fatal(err)
		}
	}
}
