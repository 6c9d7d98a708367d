package rpg

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Extractor chains backwards from a goal support through the
// supports recorded in an Index. Its buffers are reused across
// extractions, so an Extractor belongs to a single episode.
type Extractor struct {
	processed  *bitset.BitSet
	supporters []*bitset.BitSet
	depth      int
	queue      []fsplan.AtomID
	relevant   []fsplan.AtomID
}

func NewExtractor() *Extractor {
	return &Extractor{processed: bitset.New(0)}
}

// Cost returns the number of distinct achievers per layer summed over
// the layers of the relaxed plan that supports goal. Seed atoms cost
// nothing.
func (e *Extractor) Cost(g *Index, goal []fsplan.AtomID) int64 {
	e.extract(g, goal)
	var cost int64
	for _, s := range e.supporters[:e.depth] {
		cost += int64(s.Count())
	}
	return cost
}

// Plan returns the achievers of the relaxed plan that supports goal,
// grouped by layer starting at layer 1.
func (e *Extractor) Plan(g *Index, goal []fsplan.AtomID) [][]fsplan.ActionID {
	e.extract(g, goal)
	plan := make([][]fsplan.ActionID, 0, e.depth)
	for _, s := range e.supporters[:e.depth] {
		var layer []fsplan.ActionID
		for a, ok := s.NextSet(0); ok; a, ok = s.NextSet(a + 1) {
			layer = append(layer, fsplan.ActionID(a))
		}
		plan = append(plan, layer)
	}
	return plan
}

// Relevant returns the non-seed atoms processed by the last
// extraction, in processing order. The slice is reused by the next
// extraction.
func (e *Extractor) Relevant() []fsplan.AtomID {
	return e.relevant
}

func (e *Extractor) extract(g *Index, goal []fsplan.AtomID) {
	e.processed.ClearAll()
	for _, s := range e.supporters[:e.depth] {
		s.ClearAll()
	}
	e.depth = 0
	e.relevant = e.relevant[:0]
	e.queue = append(e.queue[:0], goal...)

	for head := 0; head < len(e.queue); head++ {
		atom := e.queue[head]
		if e.processed.Test(uint(atom)) || g.IsSeed(atom) {
			continue
		}
		e.processed.Set(uint(atom))
		ts, ok := g.Support(atom)
		if !ok {
			panic("atom in relaxed plan was never reached")
		}
		for e.depth < ts.Layer {
			if e.depth == len(e.supporters) {
				e.supporters = append(e.supporters, bitset.New(0))
			}
			e.depth++
		}
		e.supporters[ts.Layer-1].Set(uint(ts.Achiever))
		e.relevant = append(e.relevant, atom)
		e.queue = append(e.queue, ts.Support...)
	}
}

// MaxLayer returns the highest layer among the atoms of goal. It is
// the h_max estimate of goal.
func MaxLayer(g *Index, goal []fsplan.AtomID) int64 {
	var h int64
	for _, atom := range goal {
		if ts, ok := g.Support(atom); ok && int64(ts.Layer) > h {
			h = int64(ts.Layer)
		}
	}
	return h
}
