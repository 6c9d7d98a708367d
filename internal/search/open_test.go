package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

func node(seq uint64, g uint32, h int64, novelty, unsat int) *Node {
	return &Node{seq: seq, g: g, h: h, novelty: novelty, unsat: unsat, index: -1}
}

func drain(q open) []uint64 {
	var order []uint64
	for q.len() > 0 {
		order = append(order, q.pop().seq)
	}
	return order
}

func TestPriorityOrder(t *testing.T) {
	type tc struct {
		Name  string
		Less  less
		Nodes []*Node
		Order []uint64
	}

	for _, tt := range []tc{
		{
			Name: "heuristic then g then insertion",
			Less: byHeuristic,
			Nodes: []*Node{
				node(0, 3, 2, 0, 0),
				node(1, 1, 2, 0, 0),
				node(2, 5, 1, 0, 0),
				node(3, 1, 2, 0, 0),
				node(4, 0, fsplan.Infinity, 0, 0),
			},
			Order: []uint64{2, 1, 3, 0, 4},
		},
		{
			Name: "novelty then unsatisfied goals then g",
			Less: byNovelty,
			Nodes: []*Node{
				node(0, 1, 0, 2, 0),
				node(1, 4, 0, 1, 3),
				node(2, 2, 0, 1, 1),
				node(3, 1, 0, 1, 1),
				node(4, 1, 0, 1, 1),
			},
			Order: []uint64{3, 4, 2, 1, 0},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			q := newPriority(tt.Less)
			for _, n := range tt.Nodes {
				q.push(n)
			}
			assert.Equal(t, tt.Order, drain(q))
		})
	}
}

func TestPriorityFixAfterReparent(t *testing.T) {
	root := node(0, 0, 5, 0, 0)
	q := newPriority(byHeuristic)
	a := node(1, 4, 3, 0, 0)
	b := node(2, 2, 3, 0, 0)
	a.evaluated, b.evaluated = true, true
	q.push(a)
	q.push(b)

	a.reparent(root, 7)
	q.fix(a)

	assert.Equal(t, uint32(1), a.g)
	assert.Equal(t, fsplan.ActionID(7), a.action)
	assert.Equal(t, []uint64{1, 2}, drain(q))
}

func TestReparentPendingEvaluation(t *testing.T) {
	q := newPriority(byNovelty)
	stale := node(0, 2, 4, 2, 3)
	cheap := node(1, 1, 1, 1, 1)
	cheap.evaluated = true

	pending := node(2, 3, 0, 0, 0)
	pending.inherit(stale)
	other := node(3, 2, 2, 2, 2)
	other.evaluated = true
	q.push(pending)
	q.push(other)

	pending.reparent(cheap, 5)
	q.fix(pending)

	assert.False(t, pending.evaluated)
	assert.Equal(t, uint32(2), pending.g)
	assert.Equal(t, int64(1), pending.h)
	assert.Equal(t, 1, pending.novelty)
	assert.Equal(t, 1, pending.unsat)
	assert.Equal(t, []uint64{2, 3}, drain(q))

	evaluated := node(4, 3, 7, 2, 5)
	evaluated.evaluated = true
	evaluated.reparent(cheap, 6)
	assert.Equal(t, int64(7), evaluated.h)
	assert.Equal(t, 2, evaluated.novelty)
	assert.Equal(t, 5, evaluated.unsat)
}

func TestFIFO(t *testing.T) {
	q := &fifo{}
	for i := uint64(0); i < 3000; i++ {
		q.push(node(i, 0, 0, 0, 0))
		if i%2 == 1 {
			q.pop()
		}
	}
	assert.Equal(t, 1500, q.len())
	order := drain(q)
	assert.Equal(t, uint64(1500), order[0])
	assert.Equal(t, uint64(2999), order[len(order)-1])
}

func TestNodePlan(t *testing.T) {
	root := &Node{action: fsplan.InvalidAction}
	a := &Node{parent: root, action: 4, g: 1}
	b := &Node{parent: a, action: 2, g: 2}
	assert.Empty(t, root.Plan())
	assert.Equal(t, []fsplan.ActionID{4, 2}, b.Plan())
}

func TestNodesLookup(t *testing.T) {
	table := newNodes()
	s := fsplan.NewState([]fsplan.Value{fsplan.Int(1), fsplan.Int(2)})
	n := &Node{state: s}
	table.put(n)

	assert.Same(t, n, table.get(fsplan.NewState([]fsplan.Value{fsplan.Int(1), fsplan.Int(2)})))
	assert.Nil(t, table.get(fsplan.NewState([]fsplan.Value{fsplan.Int(2), fsplan.Int(1)})))
	assert.Equal(t, 1, table.len())
}

func TestMemoryGuard(t *testing.T) {
	var heap uint64 = 100
	g := newMemoryGuard(50, func() uint64 { return heap })

	assert.True(t, g.charge(30))
	assert.False(t, g.charge(21))
	assert.True(t, g.charge(20))
	assert.False(t, g.charge(1))
	g.release(30)
	assert.True(t, g.charge(30))
	assert.False(t, g.charge(51))
	g.release(1 << 10)
	assert.True(t, g.charge(50))

	heap = 200
	for i := 0; i < memoryCheckInterval-1; i++ {
		assert.False(t, g.exceeded())
	}
	assert.True(t, g.exceeded())

	unbounded := newMemoryGuard(0, func() uint64 { return heap })
	assert.True(t, unbounded.charge(1<<40))
	assert.False(t, unbounded.exceeded())
}

func TestHeapBytes(t *testing.T) {
	assert.Greater(t, HeapBytes(), uint64(0))
}
