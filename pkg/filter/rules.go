package filter

// Kind selects how a rule's pattern is compared against a path.
type Kind int

const (
	// Exact matches the pattern only.
	Exact Kind = iota

	// Tree matches the pattern and everything beneath it.
	Tree

	// Prefix matches any path starting with the pattern.
	Prefix
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Tree:
		return "tree"
	case Prefix:
		return "prefix"
	default:
		return "unknown"
	}
}

// Rule is one entry of the deny table.
type Rule struct {
	// Name groups related rules (pseudo-fs, terminal, ...).
	Name    string
	Kind    Kind
	Pattern string
}

// Match reports whether path falls under the rule.
func (r Rule) Match(path string) bool {
	switch r.Kind {
	case Exact:
		return path == r.Pattern
	case Tree:
		if len(path) < len(r.Pattern) || path[:len(r.Pattern)] != r.Pattern {
			return false
		}
		return len(path) == len(r.Pattern) || path[len(r.Pattern)] == '/' ||
			r.Pattern[len(r.Pattern)-1] == '/'
	case Prefix:
		return len(path) >= len(r.Pattern) && path[:len(r.Pattern)] == r.Pattern
	default:
		return false
	}
}

// Rule group names used by DefaultRules.
const (
	GroupPseudoFS       = "pseudo-fs"
	GroupDiagnosticTool = "diagnostic-tool"
	GroupTerminal       = "terminal"
	GroupCustom         = "custom"
)

// DefaultRules returns the built-in deny table, in evaluation order.
//
// Pseudo filesystems say nothing about what a program installs, the
// diagnostic tool is run by the closure extractor itself, and terminal
// nodes are opened by every interactive program.
func DefaultRules() []Rule {
	return []Rule{
		{Name: GroupPseudoFS, Kind: Tree, Pattern: "/proc"},
		{Name: GroupPseudoFS, Kind: Tree, Pattern: "/sys"},
		{Name: GroupDiagnosticTool, Kind: Exact, Pattern: "/usr/bin/ldd"},
		{Name: GroupDiagnosticTool, Kind: Exact, Pattern: "/bin/ldd"},
		{Name: GroupTerminal, Kind: Tree, Pattern: "/dev/pts"},
		{Name: GroupTerminal, Kind: Prefix, Pattern: "/dev/tty"},
		{Name: GroupTerminal, Kind: Exact, Pattern: "/dev/console"},
		{Name: GroupTerminal, Kind: Exact, Pattern: "/dev/ptmx"},
	}
}
