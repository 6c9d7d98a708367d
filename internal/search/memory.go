package search

import (
	"runtime/metrics"
)

const heapObjects = "/memory/classes/heap/objects:bytes"

// HeapBytes reports the bytes occupied by live and not yet swept heap
// objects.
func HeapBytes() uint64 {
	sample := []metrics.Sample{{Name: heapObjects}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return sample[0].Value.Uint64()
}

// memoryGuard compares heap growth since the start of an episode
// against a budget. Fixed-size allocations are charged up front and
// add up until they are released.
type memoryGuard struct {
	budget   uint64
	baseline uint64
	reserved uint64
	read     func() uint64
	ticks    int
}

// memoryCheckInterval is the number of expansions between two heap
// samples.
const memoryCheckInterval = 64

func newMemoryGuard(budget uint64, read func() uint64) *memoryGuard {
	return &memoryGuard{budget: budget, baseline: read(), read: read}
}

// charge reserves n more bytes, reporting false and reserving nothing
// when they do not fit next to what is already reserved.
func (m *memoryGuard) charge(n int64) bool {
	if m.budget == 0 || n <= 0 {
		return true
	}
	if uint64(n) > m.budget-m.reserved {
		return false
	}
	m.reserved += uint64(n)
	return true
}

// release returns n reserved bytes.
func (m *memoryGuard) release(n int64) {
	if n <= 0 {
		return
	}
	m.reserved -= min(uint64(n), m.reserved)
}

// exceeded samples the heap every memoryCheckInterval calls.
func (m *memoryGuard) exceeded() bool {
	if m.budget == 0 {
		return false
	}
	m.ticks++
	if m.ticks < memoryCheckInterval {
		return false
	}
	m.ticks = 0
	used := m.read()
	return used > m.baseline && used-m.baseline > m.budget
}
