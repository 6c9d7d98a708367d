package search

import (
	"slices"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Validate replays plan from the initial state of p, asking the
// oracles again whether each action applies and whether the final
// state is a goal.
func Validate(p *fsplan.Problem, plan []fsplan.ActionID) error {
	var (
		s          = p.Init
		applicable []fsplan.ActionID
		changes    []fsplan.Atom
	)
	for i, a := range plan {
		if a < 0 || int(a) >= p.Actions.NumActions() {
			return InconsistencyError{Step: i, Action: "?", Reason: "unknown action"}
		}
		applicable = p.Actions.Applicable(s, applicable[:0])
		if !slices.Contains(applicable, a) {
			return InconsistencyError{Step: i, Action: p.Actions.ActionName(a), Reason: "action is not applicable"}
		}
		changes = p.Actions.Apply(s, a, changes[:0])
		s = s.Apply(changes)
	}
	if !p.Goal.IsGoal(s) {
		return InconsistencyError{Step: -1, Reason: "final state does not satisfy the goal"}
	}
	return nil
}
