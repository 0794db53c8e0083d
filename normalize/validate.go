package normalize

import (
	"fmt"
	"strings"

	"github.com/ingvast/sm-compiler/model"
	"github.com/ingvast/sm-compiler/pathalg"
)

// ValidationErrors collects every structural problem found in one pass, so
// the caller can report them all together instead of stopping at the first
// (spec.md §4.2, §7). It satisfies the error interface.
type ValidationErrors []error

func (e ValidationErrors) Error() string {
	lines := make([]string, len(e))
	for i, err := range e {
		lines[i] = "- " + err.Error()
	}
	return fmt.Sprintf("%d validation error(s):\n%s", len(e), strings.Join(lines, "\n"))
}

// Validate checks every structural invariant spec.md §3/§4.2 lists:
//   - every composite-OR state declares an existing "initial" child
//   - every orthogonal state has >=2 children, each itself a composite-OR
//   - every transition has a "to" field
//   - every decision reference resolves
//   - every path spec in a state's transition list resolves to an existing
//     state
//   - every fork branch names an existing descendant of the target
//
// The rules inside decisions are not checked here: their targets are
// neither resolved nor checked for a "to" field by Validate.
//
// All errors found are returned together as ValidationErrors; a nil return
// means the model is structurally sound.
func Validate(m *model.Model) error {
	var errs ValidationErrors

	if m.Root.Children == nil {
		errs = append(errs, fmt.Errorf("root model missing 'states'"))
	}
	if m.Root.Children == nil && m.Root.Initial == "" {
		errs = append(errs, fmt.Errorf("root model missing 'initial' state"))
	}

	errs = append(errs, checkComposite(m.Root)...)
	errs = append(errs, walkValidate(m, m.Root)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkComposite(s *model.State) ValidationErrors {
	var errs ValidationErrors
	if s.IsLeaf() {
		return errs
	}

	if s.Orthogonal {
		if s.Children.Len() < 2 {
			errs = append(errs, fmt.Errorf("orthogonal state %q has fewer than 2 regions", s.Path.String()))
		}
		for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
			region := pair.Value
			if region.IsLeaf() || region.Orthogonal || region.Initial == "" {
				errs = append(errs, fmt.Errorf("orthogonal state %q: region %q is not a composite-OR state", s.Path.String(), region.Name))
			}
		}
		return errs
	}

	if s.Initial == "" {
		errs = append(errs, fmt.Errorf("state %q is composite but missing 'initial'", s.Path.String()))
	} else if _, ok := s.Children.Get(s.Initial); !ok {
		errs = append(errs, fmt.Errorf("state %q defines initial=%q, but that child does not exist", s.Path.String(), s.Initial))
	}
	return errs
}

func walkValidate(m *model.Model, s *model.State) ValidationErrors {
	var errs ValidationErrors

	for i, t := range s.Transitions {
		errs = append(errs, checkTransition(m, s.Path, i, t)...)
	}

	if s.IsComposite() {
		for pair := s.Children.Oldest(); pair != nil; pair = pair.Next() {
			errs = append(errs, checkComposite(pair.Value)...)
			errs = append(errs, walkValidate(m, pair.Value)...)
		}
	}
	return errs
}

func checkTransition(m *model.Model, srcPath pathalg.Path, index int, t *model.Transition) ValidationErrors {
	var errs ValidationErrors
	loc := fmt.Sprintf("state %q, transition #%d", srcPath.String(), index+1)

	if t.MissingTo {
		return ValidationErrors{fmt.Errorf("%s: missing 'to'", loc)}
	}

	switch t.To.Kind {
	case model.Termination:
		return nil

	case model.Decision:
		if _, ok := m.Decisions.Get(t.To.DecisionName); !ok {
			errs = append(errs, fmt.Errorf("%s: decision '@%s' does not exist", loc, t.To.DecisionName))
		}
		return errs

	case model.Ordinary:
		base, branches := pathalg.ParseFork(t.To.Spec)
		targetPath := pathalg.Resolve(srcPath, base)
		target := model.Lookup(m, targetPath)
		if target == nil {
			errs = append(errs, fmt.Errorf("%s: target %q (resolved %s) does not exist", loc, base, targetPath.String()))
			return errs
		}
		if branches != nil {
			if target.IsLeaf() {
				errs = append(errs, fmt.Errorf("%s: fork target %q is not a composite state", loc, base))
				return errs
			}
			for _, b := range branches {
				branchPath := append(append(pathalg.Path{}, targetPath...), strings.Split(b, "/")...)
				if model.Lookup(m, branchPath) == nil {
					errs = append(errs, fmt.Errorf("%s: fork branch %q does not exist inside %q", loc, b, base))
				}
			}
		}
		return errs
	}
	return errs
}
