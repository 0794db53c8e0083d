package emit

import (
	"fmt"

	"github.com/ingvast/sm-compiler/pathalg"
)

// EmissionError reports a failure inside Transition/ordinaryTarget with
// enough location to match spec.md §7's requirement: state path and, for
// transitions, the transition's index within that state.
type EmissionError struct {
	State           pathalg.Path
	TransitionIndex int
	Err             error
}

func (e *EmissionError) Error() string {
	return fmt.Sprintf("state %q, transition #%d: %v", e.State.String(), e.TransitionIndex+1, e.Err)
}

func (e *EmissionError) Unwrap() error { return e.Err }
