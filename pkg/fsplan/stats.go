package fsplan

import (
	"sort"
	"time"
)

// NotNovel is the novelty histogram key of evaluated nodes that were
// not novel at the width bound in force. Novel widths start at 1.
const NotNovel = 0

// Stats are the counters a search episode accumulates.
type Stats struct {
	Generated  uint64
	Expanded   uint64
	Evaluated  uint64
	DeadEnds   uint64
	Pruned     uint64
	Duplicates uint64
	Reparented uint64
	// Novelty counts evaluated nodes per novelty width. The key
	// NotNovel counts nodes that were not novel.
	Novelty map[int]uint64
	Elapsed time.Duration
}

// RecordNovelty adds one observation of width w to the novelty
// histogram.
func (s *Stats) RecordNovelty(w int) {
	if s.Novelty == nil {
		s.Novelty = make(map[int]uint64)
	}
	s.Novelty[w]++
}

// NoveltyWidths returns the observed novelty values in ascending
// order.
func (s *Stats) NoveltyWidths() []int {
	widths := make([]int, 0, len(s.Novelty))
	for w := range s.Novelty {
		widths = append(widths, w)
	}
	sort.Ints(widths)
	return widths
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Generated += o.Generated
	s.Expanded += o.Expanded
	s.Evaluated += o.Evaluated
	s.DeadEnds += o.DeadEnds
	s.Pruned += o.Pruned
	s.Duplicates += o.Duplicates
	s.Reparented += o.Reparented
	for w, n := range o.Novelty {
		if s.Novelty == nil {
			s.Novelty = make(map[int]uint64)
		}
		s.Novelty[w] += n
	}
	s.Elapsed += o.Elapsed
}
