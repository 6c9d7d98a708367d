// Package metrics exports search statistics to Prometheus.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

const (
	namespace = "fsplan"
	subsystem = "search"

	AlgorithmLabel = "algorithm"
	OutcomeLabel   = "outcome"
	KindLabel      = "kind"
	WidthLabel     = "width"
)

// Recorder holds the collectors fed by finished episodes.
type Recorder struct {
	Episodes *prometheus.CounterVec
	Nodes    *prometheus.CounterVec
	Novelty  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// New registers the collectors with reg. Recorders created on the
// same registry share their collectors.
func New(reg prometheus.Registerer) *Recorder {
	return &Recorder{
		Episodes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "episodes_total",
			Help:      "Search episodes by algorithm and outcome.",
		}, []string{AlgorithmLabel, OutcomeLabel})),
		Nodes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "nodes_total",
			Help:      "Search nodes by algorithm and what happened to them.",
		}, []string{AlgorithmLabel, KindLabel})),
		Novelty: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "novelty_total",
			Help:      "Evaluated nodes by novelty width.",
		}, []string{AlgorithmLabel, WidthLabel})),
		Duration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of search episodes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{AlgorithmLabel, OutcomeLabel})),
	}
}

// Observe records one finished episode.
func (r *Recorder) Observe(algorithm, outcome string, stats fsplan.Stats) {
	r.Episodes.WithLabelValues(algorithm, outcome).Inc()
	r.Duration.WithLabelValues(algorithm, outcome).Observe(stats.Elapsed.Seconds())
	for kind, n := range map[string]uint64{
		"generated":  stats.Generated,
		"expanded":   stats.Expanded,
		"evaluated":  stats.Evaluated,
		"dead_end":   stats.DeadEnds,
		"pruned":     stats.Pruned,
		"duplicate":  stats.Duplicates,
		"reparented": stats.Reparented,
	} {
		r.Nodes.WithLabelValues(algorithm, kind).Add(float64(n))
	}
	for w, n := range stats.Novelty {
		width := strconv.Itoa(w)
		if w == fsplan.NotNovel {
			width = "none"
		}
		r.Novelty.WithLabelValues(algorithm, width).Add(float64(n))
	}
}
