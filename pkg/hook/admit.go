package hook

import (
	"unicode/utf8"

	"github.com/0xmhha/instrack/pkg/config"
	"github.com/0xmhha/instrack/pkg/filter"
)

// Admit returns the predicate the orchestrator applies to spooled entries.
// It mirrors what the in-process dispatcher decides: the hook must be known
// and enabled by b, and the path must pass the deny table built from b.
func Admit(b config.Bindings) func(name, path string) bool {
	f := filter.New(b.DenyPrefixes...)
	enabled := make(map[string]bool, len(b.Hooks))
	for _, name := range b.Hooks {
		enabled[name] = true
	}

	return func(name, path string) bool {
		if _, ok := Lookup(name); !ok {
			return false
		}
		if len(enabled) > 0 && !enabled[name] {
			return false
		}
		return utf8.ValidString(path) && f.Allow(path)
	}
}
