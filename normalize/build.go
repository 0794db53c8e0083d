package normalize

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
)

// Build converts a raw YAML mapping (as produced by loader.Load) into a
// normalized *model.Model: decisions flattened into one global namespace,
// every state turned into a model.State with an ordered Children map, and
// every "to" field parsed once into a model.TransitionTarget. Call
// Validate(m) afterwards to check structural invariants.
func Build(root *yaml.Node) (*model.Model, error) {
	rawDecisions, err := flattenDecisions(root)
	if err != nil {
		return nil, err
	}

	decisions := model.NewDecisions()
	for pair := rawDecisions.Oldest(); pair != nil; pair = pair.Next() {
		rules, err := buildTransitionList(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("decision %q: %w", pair.Key, err)
		}
		decisions.Set(pair.Key, rules)
	}

	rootState, err := buildState(pathalg.Root(), root)
	if err != nil {
		return nil, err
	}

	m := &model.Model{
		Root:        rootState,
		Decisions:   decisions,
		Includes:    stringOr(root, "includes", ""),
		Context:     stringOr(root, "context", ""),
		ContextInit: stringOr(root, "context_init", ""),
		Languages:   languages(root),
	}
	if hooks, ok := mapGet(root, "hooks"); ok {
		m.Hooks = model.Hooks{
			Entry:      stringOr(hooks, "entry", ""),
			Do:         stringOr(hooks, "do", ""),
			Exit:       stringOr(hooks, "exit", ""),
			Transition: stringOr(hooks, "transition", ""),
		}
	}
	return m, nil
}

func languages(root *yaml.Node) []string {
	v, ok := mapGet(root, "language")
	if !ok {
		return []string{"rust"}
	}
	if v.Kind == yaml.SequenceNode {
		var out []string
		for _, item := range v.Content {
			out = append(out, item.Value)
		}
		return out
	}
	return []string{v.Value}
}

// buildState constructs the State at path from its raw mapping node. The
// root call passes path == pathalg.Root() and node == the document root,
// which also carries "initial"/"states" the same way any composite-OR does.
func buildState(path pathalg.Path, node *yaml.Node) (*model.State, error) {
	s := &model.State{
		Name:       leafName(path),
		Path:       path,
		Initial:    stringOr(node, "initial", ""),
		Orthogonal: boolOr(node, "orthogonal", false),
		History:    boolOr(node, "history", false),
		Entry:      stringOr(node, "entry", ""),
		Do:         stringOr(node, "do", ""),
		Exit:       stringOr(node, "exit", ""),
	}

	for _, tnode := range seq(node, "transitions") {
		t, err := buildTransition(tnode)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", path.String(), err)
		}
		s.Transitions = append(s.Transitions, t)
	}

	if childrenNode, ok := mapGet(node, "states"); ok {
		s.Children = model.NewChildren()
		for _, kv := range mapPairs(childrenNode) {
			name := kv[0].Value
			child, err := buildState(path.Child(name), kv[1])
			if err != nil {
				return nil, err
			}
			s.Children.Set(name, child)
		}
	}

	return s, nil
}

func leafName(path pathalg.Path) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

func buildTransitionList(seqNode *yaml.Node) ([]*model.Transition, error) {
	if seqNode == nil || seqNode.Kind != yaml.SequenceNode {
		return nil, nil
	}
	var out []*model.Transition
	for _, item := range seqNode.Content {
		t, err := buildTransition(item)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func buildTransition(node *yaml.Node) (*model.Transition, error) {
	raw, isNull, present := toField(node, "to")

	var target model.TransitionTarget
	switch {
	case isNull:
		target = model.TransitionTarget{Kind: model.Termination}
	case len(raw) > 0 && raw[0] == '@':
		target = model.TransitionTarget{Kind: model.Decision, DecisionName: raw[1:]}
	default:
		target = model.TransitionTarget{Kind: model.Ordinary, Spec: raw}
	}

	return &model.Transition{
		To:        target,
		Guard:     guardString(node, "guard"),
		Action:    stringOr(node, "action", ""),
		MissingTo: !present,
	}, nil
}
