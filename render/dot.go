// Package render produces a Graphviz DOT visualization of a normalized
// model, grounded on the original compiler's generate_dot/
// generate_dot_recursive: one cluster subgraph per composite state, dashed
// styling for orthogonal regions, a point-shaped "_start" pseudo-node for
// every composite's implicit entry edge, and abbreviated guard/action edge
// labels.
package render

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/lvlath/graph/algorithms"
	"github.com/katalvlaran/lvlath/graph/core"

	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
)

// GraphID is the DOT-safe node/cluster identifier for a path: its segments
// joined with "__", sanitized the same way FlatName is.
func GraphID(path pathalg.Path) string {
	return model.Sanitize(strings.Join(path, "__"))
}

type dotCtx struct {
	compositeIDs map[string]bool
	nodeLines    []string
	edgeLines    []string
}

// DOT renders m as a complete "digraph StateMachine { ... }" document.
func DOT(m *model.Model) string {
	c := &dotCtx{compositeIDs: map[string]bool{}}
	findComposites(pathalg.Root(), m.Root, c.compositeIDs)
	c.recurse(pathalg.Root(), m.Root)

	for pair := m.Decisions.Oldest(); pair != nil; pair = pair.Next() {
		c.decisionNode(pair.Key, pair.Value)
	}

	var b strings.Builder
	b.WriteString("digraph StateMachine {\n")
	b.WriteString("    compound=true; fontname=\"Arial\"; node [fontname=\"Arial\"]; edge [fontname=\"Arial\"];\n")
	b.WriteString("    // --- Structures ---\n")
	for _, l := range c.nodeLines {
		b.WriteString(l + "\n")
	}
	b.WriteString("    // --- Transitions ---\n")
	for _, l := range c.edgeLines {
		b.WriteString(l + "\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func findComposites(path pathalg.Path, s *model.State, out map[string]bool) {
	if !s.IsComposite() {
		return
	}
	out[GraphID(path)] = true
	for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
		findComposites(path.Child(pair.Key), pair.Value, out)
	}
}

func (c *dotCtx) recurse(path pathalg.Path, s *model.State) {
	myID := GraphID(path)
	indent := strings.Repeat("    ", len(path))
	isComposite := s.IsComposite()

	if isComposite {
		c.nodeLines = append(c.nodeLines, fmt.Sprintf("%ssubgraph cluster_%s {", indent, myID))
		c.nodeLines = append(c.nodeLines, fmt.Sprintf("%s    label = \"%s\";", indent, path[len(path)-1]))

		if s.Orthogonal {
			c.nodeLines = append(c.nodeLines, indent+"    style=dashed; color=black; penwidth=1.5; node [style=filled, fillcolor=white];")
			c.nodeLines = append(c.nodeLines, fmt.Sprintf("%s    %s_start [shape=point, width=0.15];", indent, myID))
			for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
				childPath := path.Child(pair.Key)
				c.nodeLines = append(c.nodeLines, fmt.Sprintf("%s    %s", indent, c.clusterEdge(myID+"_start", childPath, "style=dashed")))
			}
		} else {
			c.nodeLines = append(c.nodeLines, indent+"    style=rounded; color=black; penwidth=1.0; node [style=filled, fillcolor=white];")
			if s.History {
				c.nodeLines = append(c.nodeLines, fmt.Sprintf("%s    %s_hist [shape=circle, label=\"H\", width=0.3];", indent, myID))
			}
			c.nodeLines = append(c.nodeLines, fmt.Sprintf("%s    %s_start [shape=point, width=0.15];", indent, myID))
			c.nodeLines = append(c.nodeLines, fmt.Sprintf("%s    %s", indent, c.clusterEdge(myID+"_start", path.Child(s.Initial), "")))
		}

		for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
			c.recurse(path.Child(pair.Key), pair.Value)
		}
		c.nodeLines = append(c.nodeLines, indent+"}")
	} else {
		label := path[len(path)-1]
		c.nodeLines = append(c.nodeLines, fmt.Sprintf(`%s%s [label="%s", shape=box, style="rounded,filled", fillcolor=white];`, indent, myID, label))
	}

	for _, t := range s.Transitions {
		c.edge(path, myID, isComposite, t)
	}
}

// clusterEdge formats "src -> tgt [extraAttr, lhead=cluster_tgt];", routing
// through a composite target's "_start" pseudo-node and compound lhead the
// same way every other edge into a cluster does.
func (c *dotCtx) clusterEdge(src string, targetPath pathalg.Path, extraAttr string) string {
	targetID := GraphID(targetPath)
	tgt := targetID
	var attrs []string
	if extraAttr != "" {
		attrs = append(attrs, extraAttr)
	}
	if c.compositeIDs[targetID] {
		tgt = targetID + "_start"
		attrs = append(attrs, "lhead=cluster_"+targetID)
	}
	return fmt.Sprintf("%s -> %s [%s];", src, tgt, strings.Join(attrs, ", "))
}

func (c *dotCtx) edge(path pathalg.Path, myID string, isComposite bool, t *model.Transition) {
	if t.To.Kind == model.Termination {
		return
	}

	src := myID
	var attrs []string
	if isComposite {
		src = myID + "_start"
		attrs = append(attrs, "ltail=cluster_"+myID)
	}

	var tgt string
	if t.To.Kind == model.Decision {
		tgt = GraphID(pathalg.Root().Child(t.To.DecisionName))
	} else {
		base, _ := pathalg.ParseFork(t.To.Spec)
		targetPath := pathalg.Resolve(path, base)
		targetID := GraphID(targetPath)
		tgt = targetID
		if c.compositeIDs[targetID] {
			tgt = targetID + "_start"
			attrs = append(attrs, "lhead=cluster_"+targetID)
		}
	}

	attrs = append(attrs, fmt.Sprintf(`label="%s"`, escapeLabel(edgeLabel(t))), "fontsize=10")
	c.edgeLines = append(c.edgeLines, fmt.Sprintf("%s -> %s [%s];", src, tgt, strings.Join(attrs, ", ")))
}

func (c *dotCtx) decisionNode(name string, rules []*model.Transition) {
	decPath := pathalg.Root().Child(name)
	decID := GraphID(decPath)
	c.nodeLines = append(c.nodeLines, fmt.Sprintf(`    %s [label="?", shape=diamond, style=filled, fillcolor=lightyellow];`, decID))

	for _, t := range rules {
		if t.To.Kind == model.Termination {
			continue
		}
		var tgt string
		var lhead string
		if t.To.Kind == model.Decision {
			tgt = GraphID(pathalg.Root().Child(t.To.DecisionName))
		} else {
			base, _ := pathalg.ParseFork(t.To.Spec)
			targetPath := pathalg.Resolve(decPath, base)
			targetID := GraphID(targetPath)
			tgt = targetID
			if c.compositeIDs[targetID] {
				tgt = targetID + "_start"
				lhead = "lhead=cluster_" + targetID
			}
		}
		attr := fmt.Sprintf(`label="%s", fontsize=10`, escapeLabel(t.Guard))
		if lhead != "" {
			attr += ", " + lhead
		}
		c.edgeLines = append(c.edgeLines, fmt.Sprintf("    %s -> %s [%s];", decID, tgt, attr))
	}
}

// edgeLabel renders "[guard] / action", abbreviating an action past 15
// characters the same way the original visualizer does.
func edgeLabel(t *model.Transition) string {
	var parts []string
	if t.Guard != "" && t.Guard != "true" {
		parts = append(parts, "["+t.Guard+"]")
	}
	if t.Action != "" {
		act := strings.ReplaceAll(strings.TrimSpace(t.Action), "\n", "; ")
		if len(act) > 15 {
			act = act[:12] + "..."
		}
		parts = append(parts, "/ "+act)
	}
	return strings.Join(parts, " ")
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Unreachable builds an auxiliary directed graph mirroring every resolved
// transition edge, plus containment edges (composite -> its initial child,
// orthogonal -> every region), and returns the path ("/a/b") of every
// non-root state not reached from root by a BFS walk. It doesn't replace
// normalize.Validate's structural checks (dangling targets, duplicate
// names); it's a best-effort dead-state lint layered on top, since a state
// can be a perfectly valid member of the tree yet never be entered by
// initial descent, a transition or a fork branch.
func Unreachable(m *model.Model) ([]string, error) {
	g := core.NewGraph(true, false)
	addVertices(g, pathalg.Root(), m.Root)
	for pair := m.Decisions.Oldest(); pair != nil; pair = pair.Next() {
		g.AddVertex(&core.Vertex{ID: GraphID(pathalg.Root().Child(pair.Key))})
	}

	addEdges(g, m, pathalg.Root(), m.Root)
	for pair := m.Decisions.Oldest(); pair != nil; pair = pair.Next() {
		decPath := pathalg.Root().Child(pair.Key)
		for _, t := range pair.Value {
			addEdge(g, m, decPath, t)
		}
	}

	result, err := algorithms.BFS(g, GraphID(pathalg.Root()), nil)
	if err != nil {
		return nil, fmt.Errorf("render: reachability walk: %w", err)
	}

	var unreached []string
	walkStates(pathalg.Root(), m.Root, func(path pathalg.Path, s *model.State) {
		id := GraphID(path)
		if !result.Visited[id] && len(path) > 1 {
			unreached = append(unreached, path.String())
		}
	})
	return unreached, nil
}

func addVertices(g *core.Graph, path pathalg.Path, s *model.State) {
	g.AddVertex(&core.Vertex{ID: GraphID(path)})
	if !s.IsComposite() {
		return
	}
	for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
		addVertices(g, path.Child(pair.Key), pair.Value)
	}
}

func addEdges(g *core.Graph, m *model.Model, path pathalg.Path, s *model.State) {
	for _, t := range s.Transitions {
		addEdge(g, m, path, t)
	}
	if !s.IsComposite() {
		return
	}

	myID := GraphID(path)
	if s.Orthogonal {
		// Every region starts concurrently on entry, so each is reachable
		// the moment the orthogonal state itself is.
		for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
			g.AddEdge(myID, GraphID(path.Child(pair.Key)), 0)
		}
	} else if s.Initial != "" {
		g.AddEdge(myID, GraphID(path.Child(s.Initial)), 0)
	}

	for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
		addEdges(g, m, path.Child(pair.Key), pair.Value)
	}
}

func addEdge(g *core.Graph, m *model.Model, path pathalg.Path, t *model.Transition) {
	if t.To.Kind == model.Termination {
		return
	}
	fromID := GraphID(path)
	var toID string
	if t.To.Kind == model.Decision {
		toID = GraphID(pathalg.Root().Child(t.To.DecisionName))
	} else {
		base, forks := pathalg.ParseFork(t.To.Spec)
		targetPath := pathalg.Resolve(path, base)
		toID = GraphID(targetPath)
		for _, f := range forks {
			forkPath := append(append(pathalg.Path{}, targetPath...), strings.Split(f, "/")...)
			if !g.HasVertex(GraphID(forkPath)) {
				continue
			}
			g.AddEdge(fromID, GraphID(forkPath), 0)
		}
	}
	if g.HasVertex(toID) {
		g.AddEdge(fromID, toID, 0)
	}
}

func walkStates(path pathalg.Path, s *model.State, fn func(pathalg.Path, *model.State)) {
	fn(path, s)
	if !s.IsComposite() {
		return
	}
	for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
		walkStates(path.Child(pair.Key), pair.Value, fn)
	}
}
