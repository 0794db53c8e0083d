package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
	"github.com/ingvast/sm-compiler/target"
)

var inStateRe = regexp.MustCompile(`IN_STATE\(([\w_]+)\)`)

// Transition translates one guarded rule attached to the state at srcPath
// into target-language source, at the given brace-indent level. It mirrors
// the original compiler's transition-logic walker line for line: guard
// rewriting, hook/action injection, then one of five destination shapes
// (termination, decision, cross-limb hot-swap, implicit fork rewrite, or a
// standard exit/entry sequence).
func Transition(m *model.Model, syn target.Syntax, srcPath pathalg.Path, t *model.Transition, indentLevel int) (string, error) {
	indent := strings.Repeat(syn.Indent(), indentLevel)
	var b strings.Builder

	cond := inStateRe.ReplaceAllString(guardCond(t), syn.InStateCall("$1"))
	cond = boolLiteral(cond, syn)
	writeStmt(&b, indent, syn.IfOpen(cond))

	inner := indent + syn.Indent()

	isDecision := t.To.Kind == model.Decision
	srcStr := srcPath.String()
	dstStr := destinationLabel(m, srcPath, t)

	if !isDecision {
		writeStmt(&b, inner, syn.SetStrVar("t_src", srcStr))
		writeStmt(&b, inner, syn.SetStrVar("t_dst", dstStr))
		if hook := m.Hooks.Transition; hook != "" {
			b.WriteString(reindent(hook, inner) + "\n")
		}
	}

	writeStmt(&b, inner, syn.SetFlag("transition_fired", true))

	if t.Action != "" {
		b.WriteString(reindent(t.Action, inner) + "\n")
	}

	switch t.To.Kind {
	case model.Termination:
		exits := pathalg.ExitSequence(srcPath, pathalg.Root(), funcExit)
		for _, fn := range exits {
			writeStmt(&b, inner, syn.CallFn(fn))
		}
		writeStmt(&b, inner, syn.CallFn("state_root_exit"))
		writeStmt(&b, inner, syn.SetFlag("terminated", true))
		writeStmt(&b, inner, syn.Return())

	case model.Decision:
		rules, ok := m.Decisions.Get(t.To.DecisionName)
		if !ok {
			return "", fmt.Errorf("emit: decision %q not found", t.To.DecisionName)
		}
		for _, rule := range rules {
			sub, err := Transition(m, syn, srcPath, rule, indentLevel+1)
			if err != nil {
				return "", err
			}
			b.WriteString(sub)
		}

	default: // model.Ordinary
		body, err := ordinaryTarget(m, syn, srcPath, t, indent, inner)
		if err != nil {
			return "", err
		}
		b.WriteString(body)
	}

	writeStmt(&b, indent, syn.BlockEnd())
	return b.String(), nil
}

func guardCond(t *model.Transition) string {
	if t.Guard == "" {
		return "true"
	}
	return t.Guard
}

// boolLiteral translates the two literal-boolean spellings normalize
// produces ("true"/"false", from a YAML bool scalar or the unguarded
// default) into the target language's own spelling; any other guard text is
// an opaque expression, passed through untouched.
func boolLiteral(cond string, syn target.Syntax) string {
	switch cond {
	case "true":
		return syn.TrueLiteral()
	case "false":
		return syn.FalseLiteral()
	default:
		return cond
	}
}

func destinationLabel(m *model.Model, srcPath pathalg.Path, t *model.Transition) string {
	switch t.To.Kind {
	case model.Termination:
		return "Termination"
	case model.Decision:
		return fmt.Sprintf("Decision(%s)", t.To.DecisionName)
	default:
		base, forks := pathalg.ParseFork(t.To.Spec)
		targetPath := pathalg.Resolve(srcPath, base)
		if forks != nil {
			return targetPath.String() + fmt.Sprintf("%v", forks)
		}
		return targetPath.String()
	}
}

// ordinaryTarget implements the non-termination, non-decision branch of
// Transition: cross-limb hot-swap, implicit fork rewrite, container
// self-exit, and the standard exit/entry sequence.
func ordinaryTarget(m *model.Model, syn target.Syntax, srcPath pathalg.Path, t *model.Transition, indent, inner string) (string, error) {
	var b strings.Builder

	base, forks := pathalg.ParseFork(t.To.Spec)
	targetPath := pathalg.Resolve(srcPath, base)
	if model.Lookup(m, targetPath) == nil {
		return "", fmt.Errorf("emit: transition target %q does not resolve", t.To.Spec)
	}

	lcaIdx := pathalg.LCA(srcPath, targetPath)
	containerPath := srcPath[:lcaIdx]
	container := model.Lookup(m, containerPath)

	if container != nil && container.Orthogonal && len(srcPath) > lcaIdx && len(targetPath) > lcaIdx {
		sourceLimb, targetLimb := srcPath[lcaIdx], targetPath[lcaIdx]
		if sourceLimb != targetLimb {
			targetLimbPath := append(append(pathalg.Path{}, containerPath...), targetLimb)
			limbCName := model.FlatName(targetLimbPath)
			limb := model.Lookup(m, targetLimbPath)

			isComposite := limb != nil && limb.IsComposite()
			isTargetingDeeper := len(targetPath) > len(targetLimbPath)

			var entrySource pathalg.Path
			if isComposite && isTargetingDeeper {
				writeStmt(&b, inner, syn.OptCall("ptr_"+limbCName+"_exit"))
				entrySource = targetLimbPath
			} else {
				writeStmt(&b, inner, syn.OptCall("ptr_"+limbCName+"_region_exit"))
				entrySource = containerPath
			}

			entries := entrySequenceForTarget(entrySource, targetPath, forks)
			for _, fn := range entries {
				writeStmt(&b, inner, syn.CallFn(fn))
			}
			writeStmt(&b, inner, syn.Return())
			return b.String(), nil
		}
	}

	// Implicit orthogonal / local-limb fork rewrite: destination sits under
	// an orthogonal ancestor that srcPath isn't currently inside.
	if forks == nil {
		ancestorIdx := -1
		for i := range targetPath {
			st := model.Lookup(m, targetPath[:i+1])
			if st != nil && st.Orthogonal {
				ancestorIdx = i
				break
			}
		}
		if ancestorIdx != -1 && ancestorIdx < len(targetPath)-1 {
			limbIdx := ancestorIdx + 1
			sameLimb := len(srcPath) > limbIdx && srcPath[limbIdx] == targetPath[limbIdx]
			if !sameLimb {
				basePath := targetPath[:ancestorIdx+1]
				forkParts := targetPath[ancestorIdx+1:]
				forks = []string{strings.Join(forkParts, "/")}
				targetPath = basePath
			}
		}
	}

	// Container self-exit: the source state itself is a non-orthogonal
	// composite and the LCA is the source itself (the target lies strictly
	// inside its subtree).
	if lcaIdx >= len(srcPath) {
		src := model.Lookup(m, srcPath)
		if src != nil && src.IsComposite() && !src.Orthogonal {
			writeStmt(&b, inner, syn.OptCall("ptr_"+model.FlatName(srcPath)+"_exit"))
		}
	}

	for _, fn := range pathalg.ExitSequence(srcPath, targetPath, funcExit) {
		writeStmt(&b, inner, syn.CallFn(fn))
	}

	entries := entrySequenceForTarget(srcPath, targetPath, forks)
	for _, fn := range entries {
		writeStmt(&b, inner, syn.CallFn(fn))
	}

	if forks != nil {
		parallel := model.Lookup(m, targetPath)
		if parallel != nil && parallel.IsComposite() {
			for pair := parallel.Children.Oldest(); pair != nil; pair = pair.Next() {
				childName := pair.Key
				var matching string
				found := false
				for _, f := range forks {
					parts := strings.SplitN(f, "/", 2)
					if parts[0] == childName {
						matching = f
						found = true
						break
					}
				}
				if found {
					forkTargetPath := append(append(pathalg.Path{}, targetPath...), strings.Split(matching, "/")...)
					for _, fn := range pathalg.EntrySequence(targetPath, forkTargetPath, funcEntry) {
						writeStmt(&b, inner, syn.CallFn(fn))
					}
				} else {
					childPath := targetPath.Child(childName)
					writeStmt(&b, inner, syn.CallFn(funcEntry(childPath, "_entry")))
				}
			}
		}
	}

	writeStmt(&b, inner, syn.Return())
	return b.String(), nil
}

// entrySequenceForTarget computes the entry call sequence from src to dst; if
// forks is non-nil the final call into dst uses the shallow "_start" form
// (the fork-branch children are entered explicitly afterward) instead of the
// full "_entry" descent.
func entrySequenceForTarget(src, dst pathalg.Path, forks []string) []string {
	if forks == nil {
		return pathalg.EntrySequence(src, dst, funcEntry)
	}
	namer := func(path pathalg.Path, suffix string) string {
		if path.Equal(dst) {
			return funcStart(path)
		}
		return funcEntry(path, suffix)
	}
	return pathalg.EntrySequence(src, dst, namer)
}

// reindent re-prefixes every line of a hook/action snippet (or any other
// possibly multi-line syntax fragment, e.g. a Python OptCall/GuardReturn)
// with the given indent, matching the original compiler's per-line
// formatting of user-supplied multi-line code blocks. Indentation-sensitive
// backends rely on every line being shifted, not just the first.
func reindent(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}

// writeStmt appends text to b at indent, reindenting every line so
// multi-line syntax fragments (Python's OptCall/GuardReturn) nest correctly.
func writeStmt(b *strings.Builder, indent, text string) {
	b.WriteString(reindent(text, indent) + "\n")
}
