package emit_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingvast/sm-compiler/emit"
	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
	"github.com/ingvast/sm-compiler/target/pygen"
	"github.com/ingvast/sm-compiler/target/rustgen"
)

func leaf(name string) *model.State {
	return &model.State{Name: name}
}

// siblingModel builds root/A{s1,s2}, A.Initial = s1, matching the basic
// hierarchy used throughout spec.md's scenario fixtures.
func siblingModel() *model.Model {
	aChildren := model.NewChildren()
	aChildren.Set("s1", leaf("s1"))
	aChildren.Set("s2", leaf("s2"))
	a := &model.State{Name: "A", Initial: "s1", Children: aChildren}

	root := model.NewChildren()
	root.Set("A", a)
	return &model.Model{Root: &model.State{Children: root}, Decisions: model.NewDecisions()}
}

func TestTransitionOrdinarySibling(t *testing.T) {
	m := siblingModel()
	srcPath := pathalg.Path{"root", "A", "s1"}
	tr := &model.Transition{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "s2"}, Guard: "true"}

	out, err := emit.Transition(m, rustgen.New(), srcPath, tr, 1)
	require.NoError(t, err)

	assert.Contains(t, out, "if true {")
	assert.Contains(t, out, `t_src = "/A/s1"`)
	assert.Contains(t, out, `t_dst = "/A/s2"`)
	assert.Contains(t, out, "ctx.transition_fired = true;")
	assert.Contains(t, out, "state_root_A_s1_exit(ctx);")
	assert.Contains(t, out, "state_root_A_s2_entry(ctx);")
	assert.Contains(t, out, "return;")
	assert.True(t, strings.HasSuffix(strings.TrimRight(out, "\n"), "}"))
}

func TestTransitionTermination(t *testing.T) {
	root := model.NewChildren()
	root.Set("boot", leaf("boot"))
	m := &model.Model{Root: &model.State{Children: root}, Decisions: model.NewDecisions()}

	srcPath := pathalg.Path{"root", "boot"}
	tr := &model.Transition{To: model.TransitionTarget{Kind: model.Termination}}

	out, err := emit.Transition(m, rustgen.New(), srcPath, tr, 1)
	require.NoError(t, err)

	assert.Contains(t, out, "state_root_boot_exit(ctx);")
	assert.Contains(t, out, "state_root_exit(ctx);")
	assert.Contains(t, out, "ctx.terminated = true;")
	assert.Contains(t, out, `t_dst = "Termination"`)
}

func TestTransitionDecision(t *testing.T) {
	root := model.NewChildren()
	root.Set("S", leaf("S"))
	root.Set("A", leaf("A"))
	root.Set("B", leaf("B"))
	m := &model.Model{Root: &model.State{Children: root}, Decisions: model.NewDecisions()}
	m.Decisions.Set("pick", []*model.Transition{
		{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "/A"}, Guard: "false"},
		{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "/B"}, Guard: "true"},
	})

	srcPath := pathalg.Path{"root", "S"}
	tr := &model.Transition{To: model.TransitionTarget{Kind: model.Decision, DecisionName: "pick"}}

	out, err := emit.Transition(m, rustgen.New(), srcPath, tr, 1)
	require.NoError(t, err)

	assert.Contains(t, out, "if false {")
	assert.Contains(t, out, "if true {")
	assert.Contains(t, out, "state_root_A_entry(ctx);")
	assert.Contains(t, out, "state_root_B_entry(ctx);")
	// Decision branches never bind t_src/t_dst themselves.
	assert.NotContains(t, out, `t_dst = "Decision(pick)"`)
}

func TestTransitionUnresolvedTargetErrors(t *testing.T) {
	m := siblingModel()
	srcPath := pathalg.Path{"root", "A", "s1"}
	tr := &model.Transition{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "/nonexistent"}, Guard: "true"}

	_, err := emit.Transition(m, rustgen.New(), srcPath, tr, 1)
	assert.Error(t, err)
}

// orthogonalModel builds root/O{L{l1,l2}, R{r1}} with O.Orthogonal == true,
// matching the cross-limb hot-swap fixture family.
func orthogonalModel() *model.Model {
	lChildren := model.NewChildren()
	lChildren.Set("l1", leaf("l1"))
	lChildren.Set("l2", leaf("l2"))
	l := &model.State{Name: "L", Initial: "l1", Children: lChildren}

	rChildren := model.NewChildren()
	rChildren.Set("r1", leaf("r1"))
	r := &model.State{Name: "R", Initial: "r1", Children: rChildren}

	oChildren := model.NewChildren()
	oChildren.Set("L", l)
	oChildren.Set("R", r)
	o := &model.State{Name: "O", Orthogonal: true, Children: oChildren}

	root := model.NewChildren()
	root.Set("O", o)
	return &model.Model{Root: &model.State{Children: root}, Decisions: model.NewDecisions()}
}

func TestTransitionCrossLimbHotSwap(t *testing.T) {
	m := orthogonalModel()
	srcPath := pathalg.Path{"root", "O", "L", "l1"}
	tr := &model.Transition{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "/O/R/r1"}, Guard: "true"}

	out, err := emit.Transition(m, rustgen.New(), srcPath, tr, 1)
	require.NoError(t, err)

	assert.Contains(t, out, "ptr_root_O_R_exit")
	assert.Contains(t, out, "state_root_O_R_r1_entry(ctx);")
	// Cross-limb hot-swap never emits the sending limb's own exit sequence;
	// the target limb's exit pointer supersedes it.
	assert.NotContains(t, out, "state_root_O_L_l1_exit")
}

// TestTransitionPythonMultilineIndent guards the reindent/writeStmt fix:
// pygen's OptCall is a two-line "if ... :\n    ..." fragment, and every line
// of it must carry the same nesting indent as the surrounding block, with
// the continuation line one level deeper.
func TestTransitionPythonMultilineIndent(t *testing.T) {
	m := orthogonalModel()
	srcPath := pathalg.Path{"root", "O", "L", "l1"}
	tr := &model.Transition{To: model.TransitionTarget{Kind: model.Ordinary, Spec: "/O/R/r1"}, Guard: "true"}

	out, err := emit.Transition(m, pygen.New(), srcPath, tr, 1)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	innerIndent := strings.Repeat(pygen.New().Indent(), 2)
	found := false
	for i, l := range lines {
		if strings.Contains(l, "is not None") {
			found = true
			require.True(t, strings.HasPrefix(l, innerIndent))
			require.Less(t, i+1, len(lines))
			cont := lines[i+1]
			assert.True(t, strings.HasPrefix(cont, innerIndent+pygen.New().Indent()))
		}
	}
	assert.True(t, found, "expected an OptCall fragment in python output")
}
