package rpg

import (
	"github.com/operator-framework/fsplan/pkg/fsplan"
)

const unreached = -1

// TupleSupport records how an atom first became reachable.
type TupleSupport struct {
	Layer    int
	Achiever fsplan.ActionID
	Support  []fsplan.AtomID
}

// Index is a relaxed planning graph under construction. Seed atoms
// sit in layer 0. Atoms discovered by the pass over CurrentLayer are
// recorded in layer CurrentLayer+1 and only become visible through
// Reached once Advance is called, so every support refers to atoms of
// strictly lower layers.
type Index struct {
	idx      *fsplan.AtomIndex
	layer    []int
	achiever []fsplan.ActionID
	support  [][]fsplan.AtomID
	current  int
	novel    []fsplan.AtomID
	reached  int
}

var _ fsplan.RelaxedLayer = &Index{}

// New returns a graph seeded with the atoms of seed.
func New(idx *fsplan.AtomIndex, seed *fsplan.State) *Index {
	n := idx.Size()
	g := &Index{
		idx:      idx,
		layer:    make([]int, n),
		achiever: make([]fsplan.ActionID, n),
		support:  make([][]fsplan.AtomID, n),
	}
	g.Reset(seed)
	return g
}

// Reset discards every layer and reseeds the graph, reusing its
// storage.
func (g *Index) Reset(seed *fsplan.State) {
	for i := range g.layer {
		g.layer[i] = unreached
		g.achiever[i] = fsplan.InvalidAction
		g.support[i] = nil
	}
	g.current = 0
	g.novel = g.novel[:0]
	g.reached = 0
	for i, v := range seed.Values() {
		if id, ok := g.idx.Lookup(fsplan.NewAtom(fsplan.VariableID(i), v)); ok {
			g.layer[id] = 0
			g.reached++
		}
	}
}

// Add records atom as reached by achiever from support. The first
// support recorded for an atom wins; Add reports whether atom was
// new.
func (g *Index) Add(atom fsplan.AtomID, achiever fsplan.ActionID, support []fsplan.AtomID) bool {
	if g.layer[atom] != unreached {
		return false
	}
	g.layer[atom] = g.current + 1
	g.achiever[atom] = achiever
	g.support[atom] = support
	g.novel = append(g.novel, atom)
	g.reached++
	return true
}

// Advance closes the layer under construction.
func (g *Index) Advance() {
	g.current++
	g.novel = g.novel[:0]
}

// HasNovelTuples reports whether the pass since the last Advance
// reached any new atom. False after a full pass means fixpoint.
func (g *Index) HasNovelTuples() bool {
	return len(g.novel) > 0
}

// NovelAtoms returns the atoms discovered since the last Advance.
func (g *Index) NovelAtoms() []fsplan.AtomID {
	return g.novel
}

// Reached reports whether atom belongs to a closed layer.
func (g *Index) Reached(atom fsplan.AtomID) bool {
	l := g.layer[atom]
	return l != unreached && l <= g.current
}

// Recorded reports whether atom has been added, including atoms of
// the layer under construction.
func (g *Index) Recorded(atom fsplan.AtomID) bool {
	return g.layer[atom] != unreached
}

// IsSeed reports whether atom holds in the seed state.
func (g *Index) IsSeed(atom fsplan.AtomID) bool {
	return g.layer[atom] == 0
}

// Support returns the TupleSupport of a recorded atom.
func (g *Index) Support(atom fsplan.AtomID) (TupleSupport, bool) {
	if g.layer[atom] == unreached {
		return TupleSupport{}, false
	}
	return TupleSupport{Layer: g.layer[atom], Achiever: g.achiever[atom], Support: g.support[atom]}, true
}

func (g *Index) CurrentLayer() int {
	return g.current
}

// NumReached counts recorded atoms.
func (g *Index) NumReached() int {
	return g.reached
}

// Size returns the number of atoms the graph can hold.
func (g *Index) Size() int {
	return len(g.layer)
}
