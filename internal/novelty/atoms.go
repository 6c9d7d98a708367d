package novelty

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Atoms is an Evaluator of width 1 or 2 over valuations of state
// variables only. Tuples are keyed by AtomID; pairs use a triangular
// index into a single bitset.
type Atoms struct {
	idx      *fsplan.AtomIndex
	maxWidth int
	singles  *bitset.BitSet
	pairs    *bitset.BitSet
	atoms    []fsplan.AtomID
	novel    []bool
	mask     []bool
}

var _ Evaluator = &Atoms{}

// AtomsBytes is the size of the tables of an Atoms evaluator over n
// atoms.
func AtomsBytes(n, maxWidth int) int64 {
	bits := int64(n)
	if maxWidth >= 2 {
		bits += int64(n) * int64(n-1) / 2
	}
	return (bits + 7) / 8
}

// NewAtoms panics unless maxWidth is 1 or 2.
func NewAtoms(idx *fsplan.AtomIndex, maxWidth int) *Atoms {
	if maxWidth < 1 || maxWidth > 2 {
		panic("atom novelty tables support widths 1 and 2 only")
	}
	n := uint(idx.Size())
	a := &Atoms{
		idx:      idx,
		maxWidth: maxWidth,
		singles:  bitset.New(n),
	}
	if maxWidth == 2 {
		a.pairs = bitset.New(n * (n - 1) / 2)
	}
	return a
}

func (a *Atoms) MaxWidth() int {
	return a.maxWidth
}

func (a *Atoms) Bytes() int64 {
	return AtomsBytes(a.idx.Size(), a.maxWidth)
}

func pairIndex(p, q fsplan.AtomID) uint {
	if p > q {
		p, q = q, p
	}
	return uint(q)*uint(q-1)/2 + uint(p)
}

func (a *Atoms) Evaluate(valuation []fsplan.Value, novel []int) int {
	a.atoms = a.atoms[:0]
	a.novel = a.novel[:0]
	if cap(a.mask) < len(valuation) {
		a.mask = make([]bool, len(valuation))
	}
	mark := a.mask[:len(valuation)]
	for i := range mark {
		mark[i] = novel == nil
	}
	for _, i := range novel {
		mark[i] = true
	}
	for i, v := range valuation {
		if !v.IsValid() {
			continue
		}
		id, ok := a.idx.Lookup(fsplan.NewAtom(fsplan.VariableID(i), v))
		if !ok {
			continue
		}
		a.atoms = append(a.atoms, id)
		a.novel = append(a.novel, mark[i])
	}

	result := a.maxWidth + 1
	for k, id := range a.atoms {
		if a.novel[k] && !a.singles.Test(uint(id)) {
			result = 1
		}
		a.singles.Set(uint(id))
	}
	if a.maxWidth < 2 {
		return result
	}
	for k, p := range a.atoms {
		for l := k + 1; l < len(a.atoms); l++ {
			if !a.novel[k] && !a.novel[l] {
				continue
			}
			pair := pairIndex(p, a.atoms[l])
			if !a.pairs.Test(pair) {
				a.pairs.Set(pair)
				if result > 2 {
					result = 2
				}
			}
		}
	}
	return result
}
