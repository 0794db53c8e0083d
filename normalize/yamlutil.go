package normalize

import "gopkg.in/yaml.v3"

// mapGet returns the value node for key in a YAML mapping node, in document
// order, and whether it was present.
func mapGet(m *yaml.Node, key string) (*yaml.Node, bool) {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil, false
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], true
		}
	}
	return nil, false
}

// mapPairs iterates a mapping node's (key, value) pairs in document order.
func mapPairs(m *yaml.Node) [][2]*yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	var out [][2]*yaml.Node
	for i := 0; i+1 < len(m.Content); i += 2 {
		out = append(out, [2]*yaml.Node{m.Content[i], m.Content[i+1]})
	}
	return out
}

func stringOr(m *yaml.Node, key, def string) string {
	v, ok := mapGet(m, key)
	if !ok {
		return def
	}
	return v.Value
}

func boolOr(m *yaml.Node, key string, def bool) bool {
	v, ok := mapGet(m, key)
	if !ok {
		return def
	}
	return v.Value == "true"
}

// guardString returns the guard text for a transition node: the literal
// "true"/"false" words if the YAML value is a bool scalar, otherwise the raw
// opaque expression text. Default (no guard key) is "true".
func guardString(m *yaml.Node, key string) string {
	v, ok := mapGet(m, key)
	if !ok {
		return "true"
	}
	if v.Tag == "!!bool" {
		if v.Value == "true" {
			return "true"
		}
		return "false"
	}
	return v.Value
}

// toField extracts a transition's "to" field, distinguishing an explicit
// null (termination, per spec.md's "to may be null") from an absent key
// (a validation error — every transition must have a "to" field) from a
// string spec.
func toField(m *yaml.Node, key string) (value string, isNull, present bool) {
	v, ok := mapGet(m, key)
	if !ok {
		return "", true, false
	}
	if v.Tag == "!!null" || v.Value == "" {
		return "", true, true
	}
	return v.Value, false, true
}

func seq(m *yaml.Node, key string) []*yaml.Node {
	v, ok := mapGet(m, key)
	if !ok || v.Kind != yaml.SequenceNode {
		return nil
	}
	return v.Content
}
