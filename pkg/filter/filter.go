// Package filter decides whether an observed path is worth recording.
//
// A Filter holds an ordered deny table. The first matching rule rejects the
// path; a path no rule matches is allowed. Evaluation is linear in the path
// length per rule and does not allocate, so it is safe to call from inside
// an intercepted libc entry point.
//
// Example usage:
//
//	f := filter.New("/var/cache")
//	if f.Allow(path) {
//	    rec.Record(path)
//	}
package filter

import (
	"path/filepath"
)

// Filter is an immutable deny table. The zero value allows every non-empty
// path.
type Filter struct {
	rules []Rule
}

// New returns a filter over DefaultRules followed by one Tree rule per
// extra prefix. Empty and relative prefixes are skipped.
func New(extra ...string) *Filter {
	return NewWithRules(DefaultRules(), extra...)
}

// NewWithRules returns a filter over rules followed by one Tree rule per
// extra prefix. The rules slice is copied.
func NewWithRules(rules []Rule, extra ...string) *Filter {
	table := make([]Rule, 0, len(rules)+len(extra))
	table = append(table, rules...)
	for _, prefix := range extra {
		if prefix == "" || !filepath.IsAbs(prefix) {
			continue
		}
		table = append(table, Rule{
			Name:    GroupCustom,
			Kind:    Tree,
			Pattern: filepath.Clean(prefix),
		})
	}
	return &Filter{rules: table}
}

// Allow reports whether path should be recorded.
func (f *Filter) Allow(path string) bool {
	_, denied := f.Match(path)
	return !denied
}

// Match returns the first rule that denies path. The empty path is denied
// by a synthetic rule named "empty".
func (f *Filter) Match(path string) (Rule, bool) {
	if path == "" {
		return Rule{Name: "empty", Kind: Exact}, true
	}
	for _, r := range f.rules {
		if r.Match(path) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the deny table in evaluation order.
func (f *Filter) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}
