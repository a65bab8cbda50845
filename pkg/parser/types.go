// Package parser reads the output of the dynamic-linker diagnostic tool
// (ldd) and extracts one entry per listed shared object.
//
// Recognised line forms:
//
//	libfoo.so.1 => /usr/lib/libfoo.so.1 (0x00007f...)   resolved
//	libbar.so.2 => not found                            missing
//	linux-vdso.so.1 => (0x00007ffd...)                   virtual (old ldd)
//	linux-vdso.so.1 (0x00007ffd...)                      virtual
//	/lib64/ld-linux-x86-64.so.2 (0x00007f...)            virtual, name is a path
//
// Blank and unrecognised lines ("statically linked") are skipped.
//
// Example usage:
//
//	entries, err := parser.New().Parse(stdout)
//	for _, e := range entries {
//	    fmt.Println(e.Value())
//	}
package parser

// Status says how the tool reported an entry.
type Status int

const (
	// Resolved entries carry the path the loader would map.
	Resolved Status = iota

	// NotFound entries name a library the loader could not locate.
	NotFound

	// Virtual entries have a load address but no resolved path: the vDSO
	// and the program interpreter.
	Virtual
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not found"
	case Virtual:
		return "virtual"
	default:
		return "unknown"
	}
}

// Entry is one shared object listed by the tool.
//
// Invariant: Name is non-empty; Path is non-empty iff Status is Resolved.
type Entry struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Address string `json:"address,omitempty"`
	Status  Status `json:"status"`
}

// Value returns what gets recorded for the entry: the resolved path, or the
// bare name when there is none.
func (e Entry) Value() string {
	if e.Path != "" {
		return e.Path
	}
	return e.Name
}
