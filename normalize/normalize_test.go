package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
)

func parseModel(t *testing.T, src string) *model.Model {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.NotEmpty(t, doc.Content)

	m, err := Build(doc.Content[0])
	require.NoError(t, err)
	return m
}

func TestBuildBasicHierarchy(t *testing.T) {
	m := parseModel(t, `
initial: A
states:
  A:
    initial: s1
    states:
      s1:
        transitions:
          - to: ./
            guard: true
      s2: {}
`)
	require.NoError(t, Validate(m))

	a, ok := m.Root.Children.Get("A")
	require.True(t, ok)
	assert.True(t, a.IsComposite())
	assert.Equal(t, "s1", a.Initial)

	s1, ok := a.Children.Get("s1")
	require.True(t, ok)
	require.Len(t, s1.Transitions, 1)
	assert.Equal(t, model.Ordinary, s1.Transitions[0].To.Kind)
	assert.Equal(t, "true", s1.Transitions[0].Guard)
}

func TestBuildOrthogonal(t *testing.T) {
	m := parseModel(t, `
initial: O
states:
  O:
    orthogonal: true
    states:
      L:
        initial: l1
        states:
          l1:
            transitions:
              - to: /O/L/l2
          l2: {}
      R:
        initial: r1
        states:
          r1: {}
`)
	require.NoError(t, Validate(m))

	o, ok := m.Root.Children.Get("O")
	require.True(t, ok)
	assert.True(t, o.Orthogonal)
	assert.Equal(t, 2, o.Children.Len())
}

func TestBuildTermination(t *testing.T) {
	m := parseModel(t, `
initial: boot
states:
  boot:
    transitions:
      - to: null
`)
	require.NoError(t, Validate(m))
	boot, _ := m.Root.Children.Get("boot")
	require.Len(t, boot.Transitions, 1)
	assert.Equal(t, model.Termination, boot.Transitions[0].To.Kind)
}

func TestBuildDecisionChain(t *testing.T) {
	m := parseModel(t, `
initial: S
decisions:
  pick:
    - to: /A
      guard: false
    - to: /B
      guard: true
states:
  S:
    transitions:
      - to: "@pick"
  A: {}
  B: {}
`)
	require.NoError(t, Validate(m))

	rules, ok := m.Decisions.Get("pick")
	require.True(t, ok)
	require.Len(t, rules, 2)
	assert.Equal(t, "false", rules[0].Guard)
	assert.Equal(t, "true", rules[1].Guard)

	s, _ := m.Root.Children.Get("S")
	require.Len(t, s.Transitions, 1)
	assert.Equal(t, model.Decision, s.Transitions[0].To.Kind)
	assert.Equal(t, "pick", s.Transitions[0].To.DecisionName)
}

func TestBuildTimerGuard(t *testing.T) {
	m := parseModel(t, `
initial: waiting
states:
  waiting:
    transitions:
      - to: /done
        guard: "time > 0.1"
  done: {}
`)
	require.NoError(t, Validate(m))
	waiting, _ := m.Root.Children.Get("waiting")
	assert.Equal(t, "time > 0.1", waiting.Transitions[0].Guard)
}

func TestValidateUnresolvedTarget(t *testing.T) {
	m := parseModel(t, `
initial: S
states:
  S:
    transitions:
      - to: /nonexistent
`)
	err := Validate(m)
	require.Error(t, err)

	verrs, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Contains(t, verrs[0].Error(), "/S")
	assert.Contains(t, verrs[0].Error(), "#1")
}

func TestValidateDuplicateDecisionName(t *testing.T) {
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
initial: S
decisions:
  pick:
    - to: null
states:
  S:
    decisions:
      pick:
        - to: null
`), &doc))

	_, err := flattenDecisions(doc.Content[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate decision name")
}

func TestValidateMissingInitial(t *testing.T) {
	m := parseModel(t, `
initial: A
states:
  A:
    states:
      s1: {}
      s2: {}
`)
	err := Validate(m)
	require.Error(t, err)
	verrs := err.(ValidationErrors)
	found := false
	for _, e := range verrs {
		if strings.Contains(e.Error(), "missing 'initial'") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateOrthogonalTooFewRegions(t *testing.T) {
	m := parseModel(t, `
initial: O
states:
  O:
    orthogonal: true
    states:
      L:
        initial: l1
        states:
          l1: {}
`)
	err := Validate(m)
	require.Error(t, err)
}

func TestValidateForkBranchMissing(t *testing.T) {
	m := parseModel(t, `
initial: O
states:
  O:
    orthogonal: true
    states:
      L:
        initial: l1
        states:
          l1:
            transitions:
              - to: "/O/[L/bogus,R/r1]"
          l2: {}
      R:
        initial: r1
        states:
          r1: {}
`)
	err := Validate(m)
	require.Error(t, err)
	verrs := err.(ValidationErrors)
	found := false
	for _, e := range verrs {
		if strings.Contains(e.Error(), "bogus") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLookupRoot(t *testing.T) {
	m := parseModel(t, `
initial: A
states:
  A: {}
`)
	assert.Same(t, m.Root, model.Lookup(m, pathalg.Root()))
}
