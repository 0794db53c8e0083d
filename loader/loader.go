// Package loader is the thin external shell spec.md describes as "the model
// loader that reads a text file into a generic tree of maps/lists/scalars".
// It contributes nothing to HSM semantics; it only turns a .smb YAML file
// into a *yaml.Node tree for normalize.Build to walk. We decode to
// *yaml.Node rather than map[string]any specifically because yaml.v3's
// mapping nodes preserve key declaration order in their Content slice —
// order the normalizer and emitter both depend on (transition priority,
// region tick order, decision rule order).
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the YAML model file at path, returning its root
// mapping node.
func Load(path string) (*yaml.Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("YAML syntax error: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty model file %q", path)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("model file %q: top level must be a mapping", path)
	}
	return root, nil
}
