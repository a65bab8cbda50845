package hook

// ID identifies a hooked entry point. The values are shared with the
// enum in cmd/libinstrack/hooks.h and must stay in the same order.
type ID int

const (
	Open ID = iota
	Open64
	Openat
	Openat64
	Creat
	Creat64
	Fopen
	Fopen64
	Unlink
	Unlinkat
	Rmdir
	Rename
	Renameat
	Mkdir
	FortifiedOpen
	FortifiedOpen64
	FortifiedOpenat
	FortifiedOpenat64

	numHooks
)

// Op classifies what a hooked entry point does to its path.
type Op string

const (
	OpAccess Op = "access"
	OpCreate Op = "create"
	OpRemove Op = "remove"
	OpRename Op = "rename"
)

// Spec describes one hooked entry point.
type Spec struct {
	ID   ID
	Name string
	Op   Op
}

var specs = [numHooks]Spec{
	{Open, "open", OpAccess},
	{Open64, "open64", OpAccess},
	{Openat, "openat", OpAccess},
	{Openat64, "openat64", OpAccess},
	{Creat, "creat", OpCreate},
	{Creat64, "creat64", OpCreate},
	{Fopen, "fopen", OpAccess},
	{Fopen64, "fopen64", OpAccess},
	{Unlink, "unlink", OpRemove},
	{Unlinkat, "unlinkat", OpRemove},
	{Rmdir, "rmdir", OpRemove},
	{Rename, "rename", OpRename},
	{Renameat, "renameat", OpRename},
	{Mkdir, "mkdir", OpCreate},
	// Fortified variants called by binaries built with _FORTIFY_SOURCE.
	{FortifiedOpen, "__open_2", OpAccess},
	{FortifiedOpen64, "__open64_2", OpAccess},
	{FortifiedOpenat, "__openat_2", OpAccess},
	{FortifiedOpenat64, "__openat64_2", OpAccess},
}

// Supported returns every entry point compiled into the interception
// module, ordered by ID.
func Supported() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs[:])
	return out
}

// Lookup finds a hook by symbol name.
func Lookup(name string) (Spec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Valid reports whether id names a supported hook.
func (id ID) Valid() bool {
	return id >= 0 && id < numHooks
}

// String returns the hooked symbol name.
func (id ID) String() string {
	if !id.Valid() {
		return "unknown"
	}
	return specs[id].Name
}
