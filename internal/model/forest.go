// Package model loads persisted classifier artifacts and runs
// random-forest inference. Artifacts are opaque msgpack blobs produced
// by the offline trainer (via cmd/model-pack); they are loaded once at
// startup and are immutable for the process lifetime, so a loaded
// Forest is safe for concurrent use without locking.
package model

import (
	"fmt"
)

// Tree is a flattened decision tree. Node i branches on
// Feature[i] <= Threshold[i] (left) vs > (right); leaf nodes carry
// Feature[i] == -1 and a normalized class distribution in Value[i].
type Tree struct {
	Feature   []int32     `msgpack:"feature"`
	Threshold []float64   `msgpack:"threshold"`
	Left      []int32     `msgpack:"left"`
	Right     []int32     `msgpack:"right"`
	Value     [][]float64 `msgpack:"value"`
}

// validate checks internal consistency of the flattened layout.
func (t *Tree) validate(classes int) error {
	n := len(t.Feature)
	if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
		return fmt.Errorf("tree arrays have inconsistent lengths")
	}
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i := 0; i < n; i++ {
		if t.Feature[i] >= 0 {
			if t.Left[i] < 0 || int(t.Left[i]) >= n || t.Right[i] < 0 || int(t.Right[i]) >= n {
				return fmt.Errorf("node %d has child index out of range", i)
			}
		}
		if len(t.Value[i]) != classes {
			return fmt.Errorf("node %d has %d class values, expected %d", i, len(t.Value[i]), classes)
		}
	}
	return nil
}

// leafDistribution walks the tree for the given feature vector and
// returns the class distribution at the reached leaf.
func (t *Tree) leafDistribution(x []float64) []float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = int(t.Left[node])
		} else {
			node = int(t.Right[node])
		}
	}
	return t.Value[node]
}

// Forest is an ensemble of decision trees voting by averaged class
// distributions.
type Forest struct {
	trees    []Tree
	features int
	classes  int
}

// NewForest builds a Forest after validating every tree against the
// declared feature and class counts.
func NewForest(trees []Tree, features, classes int) (*Forest, error) {
	if features <= 0 || classes <= 0 {
		return nil, fmt.Errorf("forest must declare positive feature and class counts")
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	for i := range trees {
		if err := trees[i].validate(classes); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		for j, f := range trees[i].Feature {
			if int(f) >= features {
				return nil, fmt.Errorf("tree %d node %d references feature %d, only %d available", i, j, f, features)
			}
		}
	}
	return &Forest{trees: trees, features: features, classes: classes}, nil
}

// Features returns the expected feature vector length.
func (f *Forest) Features() int { return f.features }

// Classes returns the number of output classes.
func (f *Forest) Classes() int { return f.classes }

// Predict returns the class index with the highest averaged
// probability across all trees. Ties resolve to the lowest index.
func (f *Forest) Predict(x []float64) (int, error) {
	probs, err := f.Proba(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best, nil
}

// Proba returns the averaged class distribution across all trees.
func (f *Forest) Proba(x []float64) ([]float64, error) {
	if len(x) != f.features {
		return nil, fmt.Errorf("feature vector has %d entries, model expects %d", len(x), f.features)
	}
	probs := make([]float64, f.classes)
	for i := range f.trees {
		dist := f.trees[i].leafDistribution(x)
		for c, p := range dist {
			probs[c] += p
		}
	}
	inv := 1.0 / float64(len(f.trees))
	for c := range probs {
		probs[c] *= inv
	}
	return probs, nil
}
