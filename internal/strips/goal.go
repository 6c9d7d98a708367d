package strips

import (
	"github.com/operator-framework/fsplan/internal/formula"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Goal is an fsplan.GoalOracle backed by a formula.
type Goal struct {
	checker *formula.Checker
}

var _ fsplan.GoalOracle = &Goal{}

func NewGoal(idx *fsplan.AtomIndex, f formula.Formula) (*Goal, error) {
	checker, err := formula.Compile(f, idx)
	if err != nil {
		return nil, err
	}
	return &Goal{checker: checker}, nil
}

func (g *Goal) IsGoal(s *fsplan.State) bool {
	return g.checker.Holds(s)
}

func (g *Goal) Unsatisfied(s *fsplan.State) int {
	return g.checker.Unsatisfied(s)
}

func (g *Goal) RelaxedSupport(layer fsplan.RelaxedLayer) ([]fsplan.AtomID, bool) {
	return g.checker.Support(layer)
}

// NewProblem assembles a problem from ground actions and a goal
// formula.
func NewProblem(idx *fsplan.AtomIndex, init *fsplan.State, actions []Action, goal formula.Formula) (*fsplan.Problem, error) {
	oracle, err := NewOracle(idx, actions)
	if err != nil {
		return nil, err
	}
	g, err := NewGoal(idx, goal)
	if err != nil {
		return nil, err
	}
	p := &fsplan.Problem{Index: idx, Init: init, Actions: oracle, Goal: g}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
