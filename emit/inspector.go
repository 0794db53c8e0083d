package emit

import (
	"strings"

	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
	"github.com/ingvast/sm-compiler/target"
)

// inspector builds, depth-first, the human-readable "current state path"
// renderer for every state: an orthogonal state prints its regions joined
// inside "[...]"; a composite-OR state prints "/" followed by whichever
// child is currently active, found by comparing its run pointer against each
// child's _do function.
func inspector(m *model.Model, syn target.Templates, path pathalg.Path, s *model.State, out *[]string) {
	cName := model.FlatName(path)

	dispName := ""
	if len(path) > 1 {
		dispName = s.Name
	}
	pushName := ""
	if dispName != "" {
		pushName = syn.PushLiteral(dispName)
	}

	var content strings.Builder
	if s.IsComposite() {
		if s.Orthogonal {
			content.WriteString(syn.PushLiteral("/[") + "\n")
			i, n := 0, s.Children.Len()
			for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
				childPath := path.Child(pair.Key)
				inspector(m, syn, childPath, pair.Value, out)
				content.WriteString(syn.Indent() + syn.CallInspector("inspect_"+model.FlatName(childPath)) + "\n")
				if i < n-1 {
					content.WriteString(syn.PushLiteral(",") + "\n")
				}
				i++
			}
			content.WriteString(syn.PushLiteral("]") + "\n")
		} else {
			// Children are mutually exclusive (at most one run pointer
			// equals a given child's _do function at a time), so each
			// child's guard can be emitted as an independent block rather
			// than an if/else-if chain — identical result, and it avoids
			// the brace-vs-indentation chaining mismatch across backends.
			myPtr := "ptr_" + cName
			for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
				childPath := path.Child(pair.Key)
				inspector(m, syn, childPath, pair.Value, out)

				childCName := model.FlatName(childPath)
				cond := syn.PtrEqFn(myPtr, funcDo(childPath))
				content.WriteString(syn.Indent() + syn.IfOpen(cond) + "\n")
				content.WriteString(syn.Indent() + syn.Indent() + syn.PushLiteral("/") + "\n")
				content.WriteString(syn.Indent() + syn.Indent() + syn.CallInspector("inspect_"+childCName) + "\n")
				content.WriteString(syn.Indent() + syn.BlockEnd() + "\n")
			}
		}
	}

	*out = append(*out, syn.Inspector(cName, pushName, content.String()))
}
