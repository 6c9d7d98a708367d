package novelty

import (
	"encoding/binary"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

// Evaluator classifies valuations by the smallest width at which they
// contain a tuple no earlier valuation contained. Evaluators
// accumulate every tuple they are shown and belong to one episode.
type Evaluator interface {
	// Evaluate returns the novelty of valuation and records its
	// tuples. Only tuples that include at least one index of novel
	// are considered; a nil novel means every index. The result is
	// MaxWidth()+1 when the valuation is not novel at any width.
	Evaluate(valuation []fsplan.Value, novel []int) int
	MaxWidth() int
	// Bytes estimates the memory held by the tables.
	Bytes() int64
}

// Generic is an Evaluator of any width backed by hash tables keyed by
// the encoded tuple.
type Generic struct {
	maxWidth int
	tables   []map[string]struct{}
	mask     []bool
	indices  []int
	combo    []int
	key      []byte
	bytes    int64
}

var _ Evaluator = &Generic{}

func NewGeneric(maxWidth int) *Generic {
	g := &Generic{maxWidth: maxWidth, tables: make([]map[string]struct{}, maxWidth+1)}
	for w := 1; w <= maxWidth; w++ {
		g.tables[w] = make(map[string]struct{})
	}
	return g
}

func (g *Generic) MaxWidth() int {
	return g.maxWidth
}

func (g *Generic) Bytes() int64 {
	return g.bytes
}

// Evaluate updates the tables of every width even after a smaller
// width already reported novelty.
func (g *Generic) Evaluate(valuation []fsplan.Value, novel []int) int {
	g.indices = g.indices[:0]
	for i, v := range valuation {
		if v.IsValid() {
			g.indices = append(g.indices, i)
		}
	}
	if cap(g.mask) < len(valuation) {
		g.mask = make([]bool, len(valuation))
	}
	g.mask = g.mask[:len(valuation)]
	for i := range g.mask {
		g.mask[i] = novel == nil
	}
	for _, i := range novel {
		g.mask[i] = true
	}

	result := g.maxWidth + 1
	for w := 1; w <= g.maxWidth && w <= len(g.indices); w++ {
		if g.insertAll(valuation, w) && w < result {
			result = w
		}
	}
	return result
}

// insertAll visits every w-combination of the valid indices and
// reports whether one that touches a novel index was new.
func (g *Generic) insertAll(valuation []fsplan.Value, w int) bool {
	table := g.tables[w]
	if cap(g.combo) < w {
		g.combo = make([]int, w)
	}
	combo := g.combo[:w]
	for i := range combo {
		combo[i] = i
	}
	n := len(g.indices)
	found := false
	for {
		touched := false
		for _, c := range combo {
			if g.mask[g.indices[c]] {
				touched = true
				break
			}
		}
		// singles are always recorded, wider tuples only when they
		// touch a novel index
		if touched || w == 1 {
			g.key = g.key[:0]
			for _, c := range combo {
				i := g.indices[c]
				g.key = binary.LittleEndian.AppendUint32(g.key, uint32(i))
				g.key = binary.LittleEndian.AppendUint64(g.key, valuation[i].Raw())
			}
			if _, ok := table[string(g.key)]; !ok {
				table[string(g.key)] = struct{}{}
				g.bytes += int64(len(g.key)) + 16
				found = found || touched
			}
		}

		// next combination in lexicographic order
		k := w - 1
		for k >= 0 && combo[k] == n-w+k {
			k--
		}
		if k < 0 {
			return found
		}
		combo[k]++
		for j := k + 1; j < w; j++ {
			combo[j] = combo[j-1] + 1
		}
	}
}
