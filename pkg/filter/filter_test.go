package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFilter(t *testing.T) {
	f := New()

	tests := []struct {
		path  string
		allow bool
		rule  string
	}{
		{path: "/etc/passwd", allow: true},
		{path: "/usr/lib/libfoo.so.1", allow: true},
		{path: "/home/user/.config/app.toml", allow: true},
		{path: "/proc", rule: GroupPseudoFS},
		{path: "/proc/self/maps", rule: GroupPseudoFS},
		{path: "/sys/devices/system/cpu/online", rule: GroupPseudoFS},
		{path: "/processes/list", allow: true},
		{path: "/system.conf", allow: true},
		{path: "/usr/bin/ldd", rule: GroupDiagnosticTool},
		{path: "/bin/ldd", rule: GroupDiagnosticTool},
		{path: "/usr/bin/lddtree", allow: true},
		{path: "/dev/tty", rule: GroupTerminal},
		{path: "/dev/tty1", rule: GroupTerminal},
		{path: "/dev/ttyS0", rule: GroupTerminal},
		{path: "/dev/pts/3", rule: GroupTerminal},
		{path: "/dev/console", rule: GroupTerminal},
		{path: "/dev/ptmx", rule: GroupTerminal},
		{path: "/dev/null", allow: true},
		{path: "", rule: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.allow, f.Allow(tt.path))

			r, denied := f.Match(tt.path)
			assert.Equal(t, !tt.allow, denied)
			assert.Equal(t, tt.rule, r.Name)
		})
	}
}

func TestCustomPrefixes(t *testing.T) {
	f := New("/var/cache/", "relative/dir", "", "/tmp")

	assert.False(t, f.Allow("/var/cache"))
	assert.False(t, f.Allow("/var/cache/apt/pkgcache.bin"))
	assert.True(t, f.Allow("/var/cached"))
	assert.False(t, f.Allow("/tmp/x"))
	assert.True(t, f.Allow("relative/dir/file"))

	r, denied := f.Match("/tmp/x")
	assert.True(t, denied)
	assert.Equal(t, GroupCustom, r.Name)
	assert.Len(t, f.Rules(), len(DefaultRules())+2)
}

func TestFirstMatchWins(t *testing.T) {
	f := NewWithRules([]Rule{
		{Name: "first", Kind: Tree, Pattern: "/opt"},
		{Name: "second", Kind: Exact, Pattern: "/opt/app"},
	})

	r, denied := f.Match("/opt/app")
	assert.True(t, denied)
	assert.Equal(t, "first", r.Name)
}

func TestZeroFilter(t *testing.T) {
	var f Filter
	assert.True(t, f.Allow("/proc/self"))
	assert.False(t, f.Allow(""))
}

func TestRuleMatch(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		path string
		want bool
	}{
		{"exact hit", Rule{Kind: Exact, Pattern: "/a/b"}, "/a/b", true},
		{"exact child", Rule{Kind: Exact, Pattern: "/a/b"}, "/a/b/c", false},
		{"tree self", Rule{Kind: Tree, Pattern: "/a"}, "/a", true},
		{"tree child", Rule{Kind: Tree, Pattern: "/a"}, "/a/b", true},
		{"tree sibling", Rule{Kind: Tree, Pattern: "/a"}, "/ab", false},
		{"tree root", Rule{Kind: Tree, Pattern: "/"}, "/anything", true},
		{"prefix sibling", Rule{Kind: Prefix, Pattern: "/a"}, "/ab", true},
		{"prefix shorter", Rule{Kind: Prefix, Pattern: "/abc"}, "/ab", false},
		{"unknown kind", Rule{Kind: Kind(42), Pattern: "/a"}, "/a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Match(tt.path))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "exact", Exact.String())
	assert.Equal(t, "tree", Tree.String())
	assert.Equal(t, "prefix", Prefix.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

func TestAllowDoesNotAllocate(t *testing.T) {
	f := New("/var/cache")
	allocs := testing.AllocsPerRun(100, func() {
		f.Allow("/usr/share/locale/en_US/LC_MESSAGES/app.mo")
		f.Allow("/proc/self/status")
	})
	assert.Zero(t, allocs)
}

func BenchmarkAllow(b *testing.B) {
	f := New()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f.Allow("/usr/lib/x86_64-linux-gnu/libstdc++.so.6")
	}
}
