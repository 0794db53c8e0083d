package emit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvast/sm-compiler/emit"
	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/target/rustgen"
)

func TestWalkAssignsSequentialStateIDs(t *testing.T) {
	m := siblingModel()
	out, err := emit.Walk(m, rustgen.New())
	require.NoError(t, err)

	// root + A + s1 + s2 == 4 states.
	assert.Equal(t, 4, out.StateCount)
	assert.Len(t, out.Functions, 4)
}

func TestWalkOrthogonalEmitsRegionPointers(t *testing.T) {
	m := orthogonalModel()
	out, err := emit.Walk(m, rustgen.New())
	require.NoError(t, err)

	joined := strings.Join(out.ContextPtrs, "\n")
	assert.Contains(t, joined, "ptr_root_O_L_region")
	assert.Contains(t, joined, "ptr_root_O_R_region")
}

func TestWalkHistoryAddsHistoryPointer(t *testing.T) {
	aChildren := model.NewChildren()
	aChildren.Set("s1", leaf("s1"))
	a := &model.State{Name: "A", Initial: "s1", History: true, Children: aChildren}
	root := model.NewChildren()
	root.Set("A", a)
	m := &model.Model{Root: &model.State{Children: root}, Decisions: model.NewDecisions()}

	out, err := emit.Walk(m, rustgen.New())
	require.NoError(t, err)

	joined := strings.Join(out.ContextPtrs, "\n")
	assert.Contains(t, joined, "hist_root_A")
}

func TestWalkWrapsTransitionErrorWithState(t *testing.T) {
	s1 := leaf("s1")
	s1.Transitions = []*model.Transition{
		{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "/nonexistent"}, Guard: "true"},
	}
	aChildren := model.NewChildren()
	aChildren.Set("s1", s1)
	a := &model.State{Name: "A", Initial: "s1", Children: aChildren}
	root := model.NewChildren()
	root.Set("A", a)
	m := &model.Model{Root: &model.State{Children: root}, Decisions: model.NewDecisions()}

	_, err := emit.Walk(m, rustgen.New())
	require.Error(t, err)

	var eerr *emit.EmissionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "/A/s1", eerr.State.String())
	assert.Equal(t, 0, eerr.TransitionIndex)
	assert.Contains(t, eerr.Error(), "transition #1")
}

func TestInspectorCoversEveryState(t *testing.T) {
	m := orthogonalModel()
	out, err := emit.Walk(m, rustgen.New())
	require.NoError(t, err)

	// One inspector per state (root, O, L, l1, l2, R, r1): 7 states.
	assert.Len(t, out.Inspectors, 7)
}
