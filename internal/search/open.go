package search

import (
	"container/heap"
)

// open holds generated nodes awaiting expansion.
type open interface {
	push(n *Node)
	pop() *Node
	// fix restores the order after the key of n, which is in the
	// list, changed.
	fix(n *Node)
	len() int
}

type fifo struct {
	queue []*Node
	head  int
}

func (q *fifo) push(n *Node) {
	n.index = len(q.queue)
	q.queue = append(q.queue, n)
}

func (q *fifo) pop() *Node {
	n := q.queue[q.head]
	q.queue[q.head] = nil
	q.head++
	if q.head > 1024 && q.head*2 > len(q.queue) {
		q.queue = append(q.queue[:0], q.queue[q.head:]...)
		q.head = 0
	}
	n.index = -1
	return n
}

// fix is a no-op: FIFO order does not depend on g.
func (q *fifo) fix(*Node) {}

func (q *fifo) len() int {
	return len(q.queue) - q.head
}

// less orders nodes of a priority list. Ties are broken by insertion
// order through Node.seq.
type less func(a, b *Node) bool

// byHeuristic orders by (h, g).
func byHeuristic(a, b *Node) bool {
	switch {
	case a.h != b.h:
		return a.h < b.h
	case a.g != b.g:
		return a.g < b.g
	}
	return a.seq < b.seq
}

// byNovelty orders by (novelty, unsatisfied goals, g).
func byNovelty(a, b *Node) bool {
	switch {
	case a.novelty != b.novelty:
		return a.novelty < b.novelty
	case a.unsat != b.unsat:
		return a.unsat < b.unsat
	case a.g != b.g:
		return a.g < b.g
	}
	return a.seq < b.seq
}

type priority struct {
	nodes []*Node
	less  less
}

func newPriority(l less) *priority {
	return &priority{less: l}
}

func (p *priority) Len() int {
	return len(p.nodes)
}

func (p *priority) Less(i, j int) bool {
	return p.less(p.nodes[i], p.nodes[j])
}

func (p *priority) Swap(i, j int) {
	p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i]
	p.nodes[i].index = i
	p.nodes[j].index = j
}

func (p *priority) Push(x any) {
	n := x.(*Node)
	n.index = len(p.nodes)
	p.nodes = append(p.nodes, n)
}

func (p *priority) Pop() any {
	last := len(p.nodes) - 1
	n := p.nodes[last]
	p.nodes[last] = nil
	p.nodes = p.nodes[:last]
	n.index = -1
	return n
}

func (p *priority) push(n *Node) {
	heap.Push(p, n)
}

func (p *priority) pop() *Node {
	return heap.Pop(p).(*Node)
}

func (p *priority) fix(n *Node) {
	heap.Fix(p, n.index)
}

func (p *priority) len() int {
	return len(p.nodes)
}
