package rpg

import (
	"fmt"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Estimate selects how a relaxed goal support is turned into a
// number.
type Estimate int

const (
	// FF counts the distinct achievers of an extracted relaxed plan.
	FF Estimate = iota
	// Max is the deepest layer among the goal support atoms.
	Max
)

func (e Estimate) String() string {
	switch e {
	case FF:
		return "hff"
	case Max:
		return "hmax"
	}
	return fmt.Sprintf("Estimate(%d)", int(e))
}

// Heuristic drives an Index to fixpoint or to the goal for each
// evaluated state. It keeps a graph and an extractor across
// evaluations and must not be shared between episodes.
type Heuristic struct {
	problem   *fsplan.Problem
	estimate  Estimate
	graph     *Index
	extractor *Extractor
	support   []fsplan.AtomID
}

func NewHeuristic(problem *fsplan.Problem, estimate Estimate) *Heuristic {
	return &Heuristic{
		problem:   problem,
		estimate:  estimate,
		extractor: NewExtractor(),
	}
}

// Evaluate returns the heuristic value of s, or fsplan.Infinity when
// the goal is unreachable even in the relaxation.
func (h *Heuristic) Evaluate(s *fsplan.State) int64 {
	if h.graph == nil {
		h.graph = New(h.problem.Index, s)
	} else {
		h.graph.Reset(s)
	}
	g := h.graph
	actions := h.problem.Actions
	n := actions.NumActions()

	for {
		if support, ok := h.problem.Goal.RelaxedSupport(g); ok {
			h.support = support
			if h.estimate == Max {
				return MaxLayer(g, support)
			}
			return h.extractor.Cost(g, support)
		}
		for a := 0; a < n; a++ {
			achiever := fsplan.ActionID(a)
			actions.SeekNovelTuples(achiever, g, func(atom fsplan.AtomID, support []fsplan.AtomID) {
				g.Add(atom, achiever, support)
			})
		}
		if !g.HasNovelTuples() {
			h.support = nil
			return fsplan.Infinity
		}
		g.Advance()
	}
}

// Graph returns the graph built by the last evaluation.
func (h *Heuristic) Graph() *Index {
	return h.graph
}

// GoalSupport returns the goal support found by the last evaluation,
// or nil after a dead end.
func (h *Heuristic) GoalSupport() []fsplan.AtomID {
	return h.support
}

// Relevant returns the atoms of the relaxed plan extracted by the
// last h_FF evaluation.
func (h *Heuristic) Relevant() []fsplan.AtomID {
	return h.extractor.Relevant()
}
