package emit

import (
	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
	"github.com/ingvast/sm-compiler/target"
)

// parentPtrs names the three hierarchy-pointer fields a parent state exposes
// to one of its children: the run pointer (currently active child's _do
// function), the exit pointer (mirrors it for teardown), and, only for a
// composite-OR parent with history enabled, the history pointer.
type parentPtrs struct {
	run, exit, hist string
}

// walker holds the mutable state threaded through the depth-first walk: the
// state-id counter and the accumulating Output.
type walker struct {
	m      *model.Model
	syn    target.Templates
	out    target.Output
	nextID int
}

// Walk performs the full depth-first pass over m's state tree, emitting one
// set of functions per state plus the inspector tree, and returns everything
// a backend needs to assemble a final source file.
func Walk(m *model.Model, syn target.Templates) (*target.Output, error) {
	w := &walker{m: m, syn: syn}
	if err := w.recurse(pathalg.Root(), m.Root, nil); err != nil {
		return nil, err
	}
	w.out.StateCount = w.nextID

	var inspectors []string
	inspector(m, syn, pathalg.Root(), m.Root, &inspectors)
	w.out.Inspectors = inspectors

	return &w.out, nil
}

func (w *walker) recurse(path pathalg.Path, s *model.State, parent *parentPtrs) error {
	myID := w.nextID
	w.nextID++
	cName := model.FlatName(path)

	shortName := s.Name
	displayName := path.String()
	if len(path) <= 1 {
		shortName = "root"
	}

	preamble := w.syn.Preamble(target.StateFields{
		CName: cName, StateID: myID, ShortName: shortName, DisplayName: displayName,
	})

	var setParent, clearParent string
	if parent != nil {
		setParent = w.syn.SetPtr(parent.run, funcDo(path)) + "\n" + w.syn.SetPtr(parent.exit, funcExit(path))
		if parent.hist != "" {
			setParent += "\n" + w.syn.SetPtr(parent.hist, funcEntry(path, "_entry"))
		}
		clearParent = w.syn.ClearPtr(parent.run) + "\n" + w.syn.ClearPtr(parent.exit)
		w.out.Impls = append(w.out.Impls, w.syn.InStateMethod(cName, parent.run))
	}

	var transCode string
	for i, t := range s.Transitions {
		code, err := Transition(w.m, w.syn, path, t, 1)
		if err != nil {
			return &EmissionError{State: path, TransitionIndex: i, Err: err}
		}
		transCode += code
	}

	fields := target.StateFields{
		CName: cName, StateID: myID, ShortName: shortName, DisplayName: displayName,
		Preamble: preamble,
		HookEntry: w.m.Hooks.Entry, HookDo: w.m.Hooks.Do, HookExit: w.m.Hooks.Exit,
		Entry: s.Entry, Do: s.Do, Exit: s.Exit,
		Transitions: transCode,
		SetParent:   setParent, ClearParent: clearParent,
	}

	switch {
	case s.IsComposite() && s.Orthogonal:
		return w.recurseAND(path, s, fields)
	case s.IsComposite():
		return w.recurseOR(path, s, fields)
	default:
		w.out.Functions = append(w.out.Functions, w.syn.Leaf(fields))
		return nil
	}
}

func (w *walker) recurseOR(path pathalg.Path, s *model.State, fields target.StateFields) error {
	cName := fields.CName
	myPtr := "ptr_" + cName
	myExitPtr := myPtr + "_exit"
	myHist := "hist_" + cName

	w.out.ContextPtrs = append(w.out.ContextPtrs,
		w.syn.ContextPtrDecl(myPtr), w.syn.ContextPtrDecl(myExitPtr), w.syn.ContextPtrDecl(myHist))
	w.out.ContextInit = append(w.out.ContextInit,
		w.syn.ContextPtrInit(myPtr), w.syn.ContextPtrInit(myExitPtr), w.syn.ContextPtrInit(myHist))

	fields.History = s.History
	fields.SelfPtr, fields.SelfExitPtr, fields.SelfHistPtr = myPtr, myExitPtr, myHist
	fields.InitialTarget = model.FlatName(path.Child(s.Initial))

	w.out.Functions = append(w.out.Functions, w.syn.CompositeOR(fields))

	childHist := ""
	if s.History {
		childHist = myHist
	}
	for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
		if err := w.recurse(path.Child(pair.Key), pair.Value, &parentPtrs{run: myPtr, exit: myExitPtr, hist: childHist}); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) recurseAND(path pathalg.Path, s *model.State, fields target.StateFields) error {
	cName := fields.CName

	// The safety check interposed after every region tick: stop ticking
	// siblings once this orthogonal state itself has been exited (only
	// possible when it has a parent) or any transition anywhere fired this
	// step.
	var safetyCheck string
	if fields.SetParent != "" {
		safetyCheck = w.syn.GuardReturn(w.syn.Or(w.syn.Not(w.syn.InStateCall(cName)), w.syn.Field("transition_fired")))
	} else {
		safetyCheck = w.syn.GuardReturn(w.syn.Field("transition_fired"))
	}

	var entries, exits, ticks string
	for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
		childPath := path.Child(pair.Key)
		childCName := model.FlatName(childPath)
		regionPtr := "ptr_" + childCName + "_region"
		regionExitPtr := regionPtr + "_exit"

		w.out.ContextPtrs = append(w.out.ContextPtrs, w.syn.ContextPtrDecl(regionPtr), w.syn.ContextPtrDecl(regionExitPtr))
		w.out.ContextInit = append(w.out.ContextInit, w.syn.ContextPtrInit(regionPtr), w.syn.ContextPtrInit(regionExitPtr))

		entries += w.syn.CallFn(funcEntry(childPath, "_entry")) + "\n"
		exits += w.syn.OptCall(regionExitPtr) + "\n"
		ticks += w.syn.CallFn(funcDo(childPath)) + "\n" + safetyCheck + "\n"

		if err := w.recurse(childPath, pair.Value, &parentPtrs{run: regionPtr, exit: regionExitPtr}); err != nil {
			return err
		}
	}

	fields.ParallelEntries, fields.ParallelExits, fields.ParallelTicks = entries, exits, ticks
	w.out.Functions = append(w.out.Functions, w.syn.CompositeAND(fields))
	return nil
}
