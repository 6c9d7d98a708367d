package fsplan

import (
	"errors"
	"fmt"
	"math"
)

// Infinity is the heuristic value of a dead end.
const Infinity int64 = math.MaxInt64

// RelaxedLayer is the view of a relaxed planning graph that oracles
// consult while it grows.
type RelaxedLayer interface {
	// Reached reports whether atom is available to the pass under
	// way.
	Reached(atom AtomID) bool
}

// ActionOracle decides which actions apply to a state and what they
// change. Implementations are consulted read-only by the search and
// may be shared by concurrent search episodes.
type ActionOracle interface {
	// NumActions returns the number of ground actions. ActionIDs are
	// 0..NumActions()-1.
	NumActions() int
	// ActionName returns a printable name for a.
	ActionName(a ActionID) string
	// Applicable appends to dst the actions applicable in s.
	Applicable(s *State, dst []ActionID) []ActionID
	// Apply appends to dst the changeset that results from applying
	// a in s.
	Apply(s *State, a ActionID, dst []Atom) []Atom
	// SeekNovelTuples calls emit once for each atom that the relaxed
	// application of a can produce given the atoms reached in layer,
	// together with the atoms that support it. Ownership of the
	// support slice passes to emit.
	SeekNovelTuples(a ActionID, layer RelaxedLayer, emit func(atom AtomID, support []AtomID))
}

// GoalOracle decides goal satisfaction, both concretely and in the
// relaxation.
type GoalOracle interface {
	IsGoal(s *State) bool
	// Unsatisfied counts the goal conjuncts that do not hold in s.
	Unsatisfied(s *State) int
	// RelaxedSupport reports whether the goal is satisfiable by the
	// atoms reached in layer and, if so, returns a set of reached
	// atoms sufficient to satisfy it.
	RelaxedSupport(layer RelaxedLayer) ([]AtomID, bool)
}

// Problem is a ground planning task. It is read-only during search.
type Problem struct {
	Index   *AtomIndex
	Init    *State
	Actions ActionOracle
	Goal    GoalOracle
}

var ErrIncompleteProblem = errors.New("incomplete problem")

// Validate checks that every collaborator is present and that the
// initial state assigns every variable.
func (p *Problem) Validate() error {
	switch {
	case p == nil:
		return ErrIncompleteProblem
	case p.Index == nil:
		return fmt.Errorf("%w: missing atom index", ErrIncompleteProblem)
	case p.Init == nil:
		return fmt.Errorf("%w: missing initial state", ErrIncompleteProblem)
	case p.Actions == nil:
		return fmt.Errorf("%w: missing action oracle", ErrIncompleteProblem)
	case p.Goal == nil:
		return fmt.Errorf("%w: missing goal oracle", ErrIncompleteProblem)
	}
	if p.Init.NumVariables() != p.Index.NumVariables() {
		return fmt.Errorf("initial state has %d variables, expected %d", p.Init.NumVariables(), p.Index.NumVariables())
	}
	for i, v := range p.Init.Values() {
		if !v.IsValid() {
			return fmt.Errorf("variable %s is unassigned in the initial state", p.Index.Variable(VariableID(i)).Name)
		}
	}
	return nil
}
