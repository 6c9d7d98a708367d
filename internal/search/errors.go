package search

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsolvable is returned when the search space is exhausted.
	ErrUnsolvable = errors.New("no plan exists")
	// ErrTimeout is returned when the context is done before a plan
	// is found.
	ErrTimeout = errors.New("search timed out")
	// ErrOutOfMemory is returned when the episode exceeds its memory
	// budget.
	ErrOutOfMemory = errors.New("search exceeded its memory budget")
)

// InconsistencyError reports a plan that does not survive replay from
// the initial state. It means an oracle broke its contract.
type InconsistencyError struct {
	Step   int
	Action string
	Reason string
}

func (e InconsistencyError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("invalid plan: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plan at step %d (%s): %s", e.Step, e.Action, e.Reason)
}
