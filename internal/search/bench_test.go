package search

import (
	"context"
	"testing"

	"github.com/operator-framework/fsplan/internal/domains"
)

func BenchmarkGripper(b *testing.B) {
	problem, err := domains.Gripper(4)
	if err != nil {
		b.Fatal(err)
	}
	for _, algorithm := range []Algorithm{BFS, GBFS, BFWS} {
		b.Run(string(algorithm), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				e, err := New(problem, WithAlgorithm(algorithm))
				if err != nil {
					b.Fatal(err)
				}
				if _, err := e.Run(context.Background()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkHanoi(b *testing.B) {
	problem, err := domains.Hanoi(6)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		e, err := New(problem, WithAlgorithm(BFWS), WithPolicy(Delayed))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := e.Run(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
