package hook

import (
	"sync"
	"unsafe"
)

// Resolver returns the address of the next definition of symbol after the
// interception module, or nil when there is none.
type Resolver func(symbol string) unsafe.Pointer

// Registration binds a hooked entry point to its authentic implementation.
// It is built once per process and never mutated.
type Registration struct {
	Spec

	// Enabled hooks observe their path arguments. Disabled hooks only
	// forward.
	Enabled bool

	authentic func() unsafe.Pointer
}

// Authentic returns the cached authentic implementation, resolving it on
// first use. Concurrent first calls resolve once and all observe the same
// value. Nil means the symbol could not be resolved.
func (r *Registration) Authentic() unsafe.Pointer {
	return r.authentic()
}

// Registry is the per-process hook table, indexed by ID.
type Registry struct {
	regs [numHooks]*Registration
}

// NewRegistry builds a registration for every supported hook. Names in
// enabled select the observing subset; an empty list enables every hook.
// Unknown names are returned so the caller can report them.
func NewRegistry(resolve Resolver, enabled []string) (*Registry, []string) {
	want := make(map[string]bool, len(enabled))
	var unknown []string
	for _, name := range enabled {
		if _, ok := Lookup(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		want[name] = true
	}

	r := &Registry{}
	for _, s := range specs {
		name := s.Name
		r.regs[s.ID] = &Registration{
			Spec:    s,
			Enabled: len(enabled) == 0 || want[name],
			authentic: sync.OnceValue(func() unsafe.Pointer {
				return resolve(name)
			}),
		}
	}
	return r, unknown
}

// Get returns the registration for id, or nil for an unknown id.
func (r *Registry) Get(id ID) *Registration {
	if !id.Valid() {
		return nil
	}
	return r.regs[id]
}

// Enabled returns the names of the observing hooks, ordered by ID.
func (r *Registry) Enabled() []string {
	var names []string
	for _, reg := range r.regs {
		if reg.Enabled {
			names = append(names, reg.Name)
		}
	}
	return names
}
