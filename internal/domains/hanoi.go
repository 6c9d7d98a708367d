package domains

import (
	"fmt"

	"github.com/operator-framework/fsplan/internal/formula"
	"github.com/operator-framework/fsplan/internal/strips"
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Pegs is the number of pegs of a Towers of Hanoi instance.
const Pegs = 3

// Hanoi returns the Towers of Hanoi with the given number of disks,
// all starting on peg 0 and to be moved to peg 2. Disk 0 is the
// smallest. The optimal plan has 2^disks-1 moves.
func Hanoi(disks int) (*fsplan.Problem, error) {
	if disks < 1 {
		return nil, fmt.Errorf("invalid number of disks: %d", disks)
	}
	pegs := make([]fsplan.Value, Pegs)
	for i := range pegs {
		pegs[i] = fsplan.Int(int32(i))
	}
	variables := make([]fsplan.Variable, disks)
	for d := range variables {
		variables[d] = fsplan.Variable{Name: fmt.Sprintf("disk%d", d), Domain: pegs}
	}
	idx := fsplan.NewAtomIndex(variables)

	var actions []strips.Action
	for d := 0; d < disks; d++ {
		for from := 0; from < Pegs; from++ {
			for to := 0; to < Pegs; to++ {
				if from == to {
					continue
				}
				third := Pegs - from - to
				pre := []formula.Formula{formula.Lit(fsplan.VariableID(d), pegs[from])}
				// every smaller disk must sit on the spare peg
				for smaller := 0; smaller < d; smaller++ {
					pre = append(pre, formula.Lit(fsplan.VariableID(smaller), pegs[third]))
				}
				actions = append(actions, strips.Action{
					Name:         fmt.Sprintf("move(disk%d, %d, %d)", d, from, to),
					Precondition: formula.All(pre...),
					Effects:      []strips.Effect{strips.Set(fsplan.VariableID(d), pegs[to])},
				})
			}
		}
	}

	init := make([]fsplan.Value, disks)
	goal := make([]formula.Formula, disks)
	for d := range init {
		init[d] = pegs[0]
		goal[d] = formula.Lit(fsplan.VariableID(d), pegs[Pegs-1])
	}
	return strips.NewProblem(idx, fsplan.NewState(init), actions, formula.All(goal...))
}
