// Package model holds the typed, normalized representation of an HSM
// description: states, transitions, decisions and their targets. Values in
// this package are read-only once normalize.Build/Validate have run; it is
// the normalizer's job (normalize.Build) to produce a *Model, not this
// package's.
package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ingvast/sm-compiler/pathalg"
)

// TargetKind classifies a transition's resolved "to" field.
type TargetKind int

const (
	// Termination unwinds every ancestor, including root, and halts the
	// machine.
	Termination TargetKind = iota
	// Decision routes through a named, ordered list of guarded rules.
	Decision
	// Ordinary targets a concrete state path, optionally with fork
	// branches into an orthogonal state's regions.
	Ordinary
)

// TransitionTarget is the tagged-variant replacement (SPEC_FULL.md §5) for
// the original's stringly-typed "to" field: it is parsed once, when
// normalize.Build constructs the model, instead of being re-sniffed by
// prefix at every call site.
type TransitionTarget struct {
	Kind TargetKind

	// DecisionName is set iff Kind == Decision.
	DecisionName string

	// Spec is the raw path-spec text (possibly with a trailing
	// "/[a,b]" fork suffix), set iff Kind == Ordinary.
	Spec string
}

// Transition is a single guarded rule: either a direct state transition or
// one rule inside a Decision's rule list.
type Transition struct {
	To     TransitionTarget
	Guard  string // "true", "false", or an opaque target-language expression
	Action string // opaque target-language text, verbatim

	// MissingTo marks a transition whose raw "to" key was entirely absent
	// (as opposed to present-and-null, which means Termination). It is a
	// validation error, not a build-time one, so construction proceeds
	// with To defaulted to Termination and normalize.Validate reports it.
	MissingTo bool
}

// State is a node in the HSM tree: a leaf, a composite-OR (has children,
// declares Initial), or a composite-AND / orthogonal state (has children,
// Orthogonal == true, each child itself a composite-OR region).
type State struct {
	Name       string
	Path       pathalg.Path
	Initial    string
	Orthogonal bool
	History    bool

	Entry, Do, Exit string

	Transitions []*Transition

	// Children is nil for leaves. Order is declaration order — it
	// determines composite-AND region tick order and inspector rendering
	// order, both semantically visible.
	Children *orderedmap.OrderedMap[string, *State]
}

// IsLeaf reports whether s has no children.
func (s *State) IsLeaf() bool {
	return s.Children == nil || s.Children.Len() == 0
}

// IsComposite reports whether s has children (OR or AND).
func (s *State) IsComposite() bool {
	return !s.IsLeaf()
}

// Hooks are the global entry/do/exit/transition snippet hooks threaded into
// every state's emitted functions (spec.md §6 "hooks" root key).
type Hooks struct {
	Entry      string
	Do         string
	Exit       string
	Transition string
}

// Model is the normalized, validated HSM description: a root synthetic
// state plus global, flattened decisions.
type Model struct {
	Root *State

	// Decisions is the flattened global decision namespace: name ->
	// ordered rule list. normalize.Build populates this by moving every
	// state-local "decisions" map into this single namespace.
	Decisions *orderedmap.OrderedMap[string, []*Transition]

	Hooks Hooks

	Includes     string
	Context      string
	ContextInit  string
	Languages    []string
}

// NewChildren returns an empty, ready-to-use ordered map of child states.
func NewChildren() *orderedmap.OrderedMap[string, *State] {
	return orderedmap.New[string, *State]()
}

// NewDecisions returns an empty, ready-to-use ordered map of decisions.
func NewDecisions() *orderedmap.OrderedMap[string, []*Transition] {
	return orderedmap.New[string, []*Transition]()
}

// Lookup traverses the model tree along path, returning the node or nil if
// any segment doesn't resolve. Lookup(m, pathalg.Root()) always returns the
// synthetic root.
func Lookup(m *Model, path pathalg.Path) *State {
	if len(path) == 0 || path[0] != "root" {
		return nil
	}
	cur := m.Root
	for _, seg := range path[1:] {
		if cur == nil || cur.Children == nil {
			return nil
		}
		next, ok := cur.Children.Get(seg)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// Sanitize replaces every rune outside [A-Za-z0-9_] with '_', so state names
// containing dashes or other punctuation (spec.md's "dashed-names" fixture
// family) still produce a legal target-language identifier.
func Sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// FlatName returns the flattened, sanitized identifier for a path, e.g.
// ["root","A","B"] -> "root_A_B". Separator is always "_" — this is the
// identifier shared by every backend's function/pointer names.
func FlatName(path pathalg.Path) string {
	var out string
	for i, seg := range path {
		if i > 0 {
			out += "_"
		}
		out += Sanitize(seg)
	}
	return out
}
