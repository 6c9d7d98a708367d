package fsplan

import (
	"fmt"
	"io"
)

// SearchPosition describes a node at the moment it is expanded.
type SearchPosition interface {
	State() *State
	Action() ActionID
	G() uint32
	H() int64
	Novelty() int
}

type Tracer interface {
	Trace(p SearchPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ SearchPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p SearchPosition) {
	fmt.Fprintf(t.Writer, "---\nExpand (g=%d", p.G())
	if h := p.H(); h == Infinity {
		fmt.Fprintf(t.Writer, ", h=inf")
	} else {
		fmt.Fprintf(t.Writer, ", h=%d", h)
	}
	fmt.Fprintf(t.Writer, ", w=%d):\n", p.Novelty())
	if p.Action() != InvalidAction {
		fmt.Fprintf(t.Writer, "- via action %d\n", p.Action())
	}
	fmt.Fprintf(t.Writer, "- %s\n", p.State())
}
