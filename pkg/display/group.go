package display

import (
	"path/filepath"
	"sort"
	"strings"
)

// UnresolvedDir groups recorded entries that are not absolute paths, such
// as libraries the loader could not find.
const UnresolvedDir = "(unresolved)"

// FilterPrefix returns the paths under prefix. An empty prefix keeps all.
func FilterPrefix(paths []string, prefix string) []string {
	if prefix == "" {
		return paths
	}
	prefix = strings.TrimSuffix(prefix, "/")

	var out []string
	for _, p := range paths {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			out = append(out, p)
		}
	}
	return out
}

// GroupByDir counts paths per parent directory, truncated to depth
// components. depth <= 0 keeps the full parent directory. The result is
// ordered by count, largest first, then by directory.
func GroupByDir(paths []string, depth int) []DirCount {
	counts := make(map[string]int)
	for _, p := range paths {
		counts[dirKey(p, depth)]++
	}

	out := make([]DirCount, 0, len(counts))
	for dir, n := range counts {
		out = append(out, DirCount{Dir: dir, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Dir < out[j].Dir
	})
	return out
}

func dirKey(path string, depth int) string {
	if !filepath.IsAbs(path) {
		return UnresolvedDir
	}

	dir := filepath.Dir(filepath.Clean(path))
	if depth <= 0 || dir == "/" {
		return dir
	}

	parts := strings.Split(strings.TrimPrefix(dir, "/"), "/")
	if len(parts) > depth {
		parts = parts[:depth]
	}
	return "/" + strings.Join(parts, "/")
}
