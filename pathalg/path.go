// Package pathalg implements the pure path algebra the HSM compiler's
// emitter is built on: resolving relative/absolute target specs against a
// source state path, computing the lowest common ancestor of two paths, and
// deriving the exit/entry call sequences that cross it.
//
// Every function here is pure and allocation-cheap; none of it touches the
// model tree (tree lookup by path is model.Lookup, in package model).
package pathalg

import "strings"

// Path is an ordered sequence of name segments. By convention the first
// segment is always the sentinel "root".
type Path []string

// Root is the path of the synthetic root state.
func Root() Path { return Path{"root"} }

// String renders the path the way diagnostics and the emitter's t_dst/t_src
// bindings want it: "/" for root, "/a/b" otherwise.
func (p Path) String() string {
	if len(p) <= 1 {
		return "/"
	}
	return "/" + strings.Join(p[1:], "/")
}

// Equal reports whether two paths have identical segments.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Child returns a new path with name appended.
func (p Path) Child(name string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = name
	return out
}

// Resolve implements the target-spec grammar from spec.md §4.1:
//
//	""                 -> current, unchanged
//	"/seg1/seg2/..."    -> absolute, from root
//	"root/..."         -> legacy absolute synonym
//	"./x"              -> child relative; "./" or "." -> self
//	"../x"             -> parent relative (climbs two levels: one for self,
//	                      one for parent, by design)
//	anything else      -> sibling relative (strip self, append target)
func Resolve(current Path, spec string) Path {
	if spec == "" {
		return current
	}

	switch {
	case spec == ".", spec == "./":
		return current

	case strings.HasPrefix(spec, "/"):
		parts := strings.Split(strings.Trim(spec, "/"), "/")
		if len(parts) > 0 && parts[0] == "root" {
			return Path(parts)
		}
		return append(Path{"root"}, parts...)

	case strings.HasPrefix(spec, "root/"):
		return Path(strings.Split(spec, "/"))

	case strings.HasPrefix(spec, "../"):
		parentScope := climb(current, 2)
		clean := strings.TrimPrefix(spec, "../")
		return append(append(Path{}, parentScope...), strings.Split(clean, "/")...)

	case strings.HasPrefix(spec, "./"):
		clean := spec[2:]
		return append(append(Path{}, current...), strings.Split(clean, "/")...)

	default:
		parentScope := climb(current, 1)
		return append(append(Path{}, parentScope...), strings.Split(spec, "/")...)
	}
}

// climb returns current with the last n segments removed (never below empty).
func climb(current Path, n int) Path {
	end := len(current) - n
	if end < 0 {
		end = 0
	}
	out := make(Path, end)
	copy(out, current[:end])
	return out
}

// LCA returns the length of the common prefix of a and b, with one
// deliberate exception: when a and b are equal, LCA is len(a)-1, i.e. one
// level above the shared path. This is what lets a self-transition produce a
// non-empty exit+entry cycle (spec.md §4.1).
func LCA(a, b Path) int {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	i := 0
	for i < minLen && a[i] == b[i] {
		i++
	}
	if i == len(a) && i == len(b) {
		i--
	}
	return i
}

// FuncNamer formats the function name for an exit call at the given path.
type FuncNamer func(path Path) string

// EntryNamer formats the function name for an entry/start call at the given
// path; suffix is either "_start" (shallow) or "_entry" (full, descends to
// initial/history).
type EntryNamer func(path Path, suffix string) string

// ExitSequence returns, deepest-first, the exit calls needed to leave src on
// the way to dst: src[lca..len(src)) reversed.
func ExitSequence(src, dst Path, name FuncNamer) []string {
	lca := LCA(src, dst)
	var out []string
	for i := len(src) - 1; i >= lca; i-- {
		out = append(out, name(src[:i+1]))
	}
	return out
}

// EntrySequence returns, shallowest-first, the entry calls needed to reach
// dst from just below the LCA. If dst is an ancestor of src (lca ==
// len(dst)), the LCA is treated as len(dst)-1 so a transition into a
// container still re-enters at least its own level. Every call but the last
// uses the shallow "_start" form; the last uses the full "_entry" form.
func EntrySequence(src, dst Path, name EntryNamer) []string {
	lca := LCA(src, dst)
	if lca == len(dst) {
		lca--
	}
	var out []string
	for i := lca; i < len(dst); i++ {
		suffix := "_start"
		if i == len(dst)-1 {
			suffix = "_entry"
		}
		out = append(out, name(dst[:i+1], suffix))
	}
	return out
}

// ParseFork recognizes a trailing "/[x,y,...]" fork-branch suffix on a
// target spec, returning the base spec and the list of branch specs (nil if
// there was no fork suffix).
func ParseFork(spec string) (base string, branches []string) {
	open := strings.LastIndex(spec, "/[")
	if open < 0 || !strings.HasSuffix(spec, "]") {
		return spec, nil
	}
	content := spec[open+2 : len(spec)-1]
	base = spec[:open]
	for _, b := range strings.Split(content, ",") {
		branches = append(branches, strings.TrimSpace(b))
	}
	return base, branches
}
