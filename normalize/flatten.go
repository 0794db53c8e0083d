package normalize

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// flattenDecisions walks the raw state tree collecting every state-local
// "decisions" mapping into one global, order-preserving namespace, merged
// with any root-level "decisions". A duplicate decision name is a fatal
// error naming the offending state (spec.md §4.2) — reported immediately,
// not accumulated with the later structural-validation pass, mirroring
// sm-compiler.py's collect_decisions which calls sys.exit(1) on the spot.
//
// Decision cycles (a rule that targets, directly or through another
// decision, itself) are not detected here or anywhere else in this
// compiler — spec.md §9 leaves that an open question and the original
// Python implementation never checked for it either; a cyclic decision is
// user error and will make emission recurse until the recursion itself
// fails.
func flattenDecisions(root *yaml.Node) (*orderedmap.OrderedMap[string, *yaml.Node], error) {
	merged := orderedmap.New[string, *yaml.Node]()

	if rootDecisions, ok := mapGet(root, "decisions"); ok {
		for _, kv := range mapPairs(rootDecisions) {
			merged.Set(kv[0].Value, kv[1])
		}
	}

	var walk func(path string, state *yaml.Node) error
	walk = func(path string, state *yaml.Node) error {
		if local, ok := mapGet(state, "decisions"); ok {
			for _, kv := range mapPairs(local) {
				name := kv[0].Value
				if _, exists := merged.Get(name); exists {
					return fmt.Errorf("duplicate decision name %q found in state %q", name, path)
				}
				merged.Set(name, kv[1])
			}
		}
		children, _ := mapGet(state, "states")
		for _, kv := range mapPairs(children) {
			if err := walk(path+"/"+kv[0].Value, kv[1]); err != nil {
				return err
			}
		}
		return nil
	}

	if states, ok := mapGet(root, "states"); ok {
		for _, kv := range mapPairs(states) {
			if err := walk("/"+kv[0].Value, kv[1]); err != nil {
				return nil, err
			}
		}
	}

	return merged, nil
}
