package formula

import (
	"fmt"
	"sync"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// UnindexedAtom is returned by Compile when a formula mentions an
// atom outside the atom universe.
type UnindexedAtom fsplan.Atom

func (e UnindexedAtom) Error() string {
	return fmt.Sprintf("atom %s is not indexed", fsplan.Atom(e))
}

// Checker evaluates a compiled Formula, both on concrete states and
// against the atoms reached by a relaxed planning graph. A Checker
// is safe for concurrent use.
type Checker struct {
	f         Formula
	atoms     []fsplan.AtomID
	conjuncts []Formula
	sat       *satSupport
}

// Compile prepares f for evaluation against idx. Conjunctions of
// atoms are answered directly; any other formula is translated to a
// circuit whose relaxed satisfiability is decided with a SAT solver.
func Compile(f Formula, idx *fsplan.AtomIndex) (*Checker, error) {
	c := &Checker{f: f, conjuncts: f.Conjuncts()}
	positions := make(map[fsplan.Atom]int)
	for _, atom := range f.Atoms() {
		id, ok := idx.Lookup(atom)
		if !ok {
			return nil, UnindexedAtom(atom)
		}
		positions[atom] = len(c.atoms)
		c.atoms = append(c.atoms, id)
	}
	if !f.IsConjunctive() {
		c.sat = newSatSupport(f, positions)
	}
	return c, nil
}

// Formula returns the compiled formula.
func (c *Checker) Formula() Formula {
	return c.f
}

// Atoms returns the AtomIDs the formula mentions.
func (c *Checker) Atoms() []fsplan.AtomID {
	return c.atoms
}

func (c *Checker) Holds(s *fsplan.State) bool {
	return c.f.Holds(s)
}

// Unsatisfied counts the root conjuncts of the formula that do not
// hold in s.
func (c *Checker) Unsatisfied(s *fsplan.State) int {
	n := 0
	for _, conjunct := range c.conjuncts {
		if !conjunct.Holds(s) {
			n++
		}
	}
	return n
}

// Support reports whether the formula can be satisfied using only
// atoms reached in layer. When it can, it returns a smallest set of
// reached atoms that satisfies it. The returned slice is owned by
// the caller.
func (c *Checker) Support(layer fsplan.RelaxedLayer) ([]fsplan.AtomID, bool) {
	if c.sat == nil {
		support := make([]fsplan.AtomID, 0, len(c.atoms))
		for _, id := range c.atoms {
			if !layer.Reached(id) {
				return nil, false
			}
			support = append(support, id)
		}
		return support, true
	}

	reached := make([]bool, len(c.atoms))
	for i, id := range c.atoms {
		reached[i] = layer.Reached(id)
	}
	selected, ok := c.sat.minimalModel(reached)
	if !ok {
		return nil, false
	}
	support := make([]fsplan.AtomID, 0, len(selected))
	for _, i := range selected {
		support = append(support, c.atoms[i])
	}
	return support, true
}

// satSupport holds the CNF encoding of a formula. One input literal
// stands for each atom of the formula; unreached atoms are assumed
// false and a sorting network over the inputs bounds how many
// reached atoms a model may select.
type satSupport struct {
	lits []z.Lit
	card *logic.CardSort
	pool sync.Pool
}

func newSatSupport(f Formula, positions map[fsplan.Atom]int) *satSupport {
	c := logic.NewCCap(4 * len(positions))
	s := &satSupport{lits: make([]z.Lit, len(positions))}
	for i := range s.lits {
		s.lits[i] = c.Lit()
	}
	root := s.encode(c, f, positions)
	s.card = c.CardSort(s.lits)

	template := gini.New()
	c.ToCnf(template)
	template.Add(root)
	template.Add(0)
	s.pool.New = func() interface{} {
		return template.Copy()
	}
	return s
}

func (s *satSupport) encode(c *logic.C, f Formula, positions map[fsplan.Atom]int) z.Lit {
	children := func() []z.Lit {
		ms := make([]z.Lit, len(f.Children))
		for i, child := range f.Children {
			ms[i] = s.encode(c, child, positions)
		}
		return ms
	}
	switch f.Op {
	case OpTrue:
		return c.T
	case OpAtom:
		return s.lits[positions[f.Atom]]
	case OpAll:
		return c.Ands(children()...)
	case OpAny:
		return c.Ors(children()...)
	case OpAtLeast:
		return c.CardSort(children()).Geq(f.K)
	}
	return c.F
}

// minimalModel returns the positions of a minimum-cardinality set of
// reached inputs that satisfies the formula.
func (s *satSupport) minimalModel(reached []bool) ([]int, bool) {
	g := s.pool.Get().(*gini.Gini)
	defer s.pool.Put(g)

	assume := func() {
		for i, m := range s.lits {
			if !reached[i] {
				g.Assume(m.Not())
			}
		}
	}

	assume()
	if g.Solve() != satisfiable {
		return nil, false
	}
	for w := 0; w <= s.card.N(); w++ {
		assume()
		g.Assume(s.card.Leq(w))
		if g.Solve() != satisfiable {
			continue
		}
		var selected []int
		max := g.MaxVar()
		for i, m := range s.lits {
			if m.Var() <= max && g.Value(m) {
				selected = append(selected, i)
			}
		}
		return selected, true
	}
	// Something is wrong if the unbounded model disappears once a
	// cardinality bound is added.
	return nil, false
}
