package novelty

import (
	"errors"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// DefaultTableBudget bounds the size of the specialised atom tables.
const DefaultTableBudget int64 = 64 << 20

// NewEvaluator returns the specialised atom tables when the
// valuations are plain state variables, the width is at most 2 and
// the tables fit in budget bytes. Otherwise it returns a Generic
// evaluator.
func NewEvaluator(idx *fsplan.AtomIndex, features *Featurizer, maxWidth int, budget int64) Evaluator {
	if ReservedBytes(idx, features, maxWidth, budget) > 0 {
		return NewAtoms(idx, maxWidth)
	}
	return NewGeneric(maxWidth)
}

// ReservedBytes is the memory NewEvaluator allocates up front for the
// given parameters.
func ReservedBytes(idx *fsplan.AtomIndex, features *Featurizer, maxWidth int, budget int64) int64 {
	if !features.HasExtraFeatures() && maxWidth <= 2 && AtomsBytes(idx.Size(), maxWidth) <= budget {
		return AtomsBytes(idx.Size(), maxWidth)
	}
	return 0
}

// ErrNoRoom is returned by Evaluate when the tables of a new partition
// cannot be reserved.
var ErrNoRoom = errors.New("no room for a new novelty partition")

// Table evaluates the novelty of states. States are compared only
// against states of the same partition; with a single partition key
// it is a plain novelty table.
type Table struct {
	idx        *fsplan.AtomIndex
	features   *Featurizer
	maxWidth   int
	budget     int64
	partitions map[int]Evaluator
	reserve    func(bytes int64) bool
	reserved   int64

	valuation []fsplan.Value
	parent    []fsplan.Value
	novel     []int
}

type TableOption func(*Table)

// WithReserve makes the table ask reserve for the fixed size of every
// partition before allocating it. A false answer fails the evaluation
// with ErrNoRoom.
func WithReserve(reserve func(bytes int64) bool) TableOption {
	return func(t *Table) {
		t.reserve = reserve
	}
}

func NewTable(idx *fsplan.AtomIndex, features *Featurizer, maxWidth int, budget int64, options ...TableOption) *Table {
	t := &Table{
		idx:        idx,
		features:   features,
		maxWidth:   maxWidth,
		budget:     budget,
		partitions: make(map[int]Evaluator),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *Table) MaxWidth() int {
	return t.maxWidth
}

// Evaluate returns the novelty of s within partition. When parent is
// not nil only the features that differ from the parent's are
// treated as novel, so parent must have been evaluated in the same
// partition.
func (t *Table) Evaluate(s *fsplan.State, partition int, parent *fsplan.State) (int, error) {
	e, ok := t.partitions[partition]
	if !ok {
		n := ReservedBytes(t.idx, t.features, t.maxWidth, t.budget)
		if t.reserve != nil && !t.reserve(n) {
			return 0, ErrNoRoom
		}
		t.reserved += n
		e = NewEvaluator(t.idx, t.features, t.maxWidth, t.budget)
		t.partitions[partition] = e
	}
	t.valuation = t.features.Valuation(s, t.valuation)
	if parent == nil {
		return e.Evaluate(t.valuation, nil), nil
	}
	t.parent = t.features.Valuation(parent, t.parent)
	// an empty, non-nil novel set means nothing changed
	if t.novel == nil {
		t.novel = make([]int, 0, len(t.valuation))
	}
	t.novel = t.novel[:0]
	for i, v := range t.valuation {
		if v != t.parent[i] {
			t.novel = append(t.novel, i)
		}
	}
	return e.Evaluate(t.valuation, t.novel), nil
}

// IsNovel reports whether a width returned by Evaluate is within
// MaxWidth.
func (t *Table) IsNovel(width int) bool {
	return width <= t.maxWidth
}

// Bytes estimates the memory held by every partition.
func (t *Table) Bytes() int64 {
	var n int64
	for _, e := range t.partitions {
		n += e.Bytes()
	}
	return n
}

// Reserved is the fixed size of the partitions allocated so far.
func (t *Table) Reserved() int64 {
	return t.reserved
}

// Partitions counts the partitions seen so far.
func (t *Table) Partitions() int {
	return len(t.partitions)
}
