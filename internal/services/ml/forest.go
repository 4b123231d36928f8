package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of CART classifiers. Exported fields are its
// persisted form.
type RandomForest struct {
	NEstimators int            `json:"n_estimators"`
	MaxFeatures int            `json:"max_features"`
	Seed        int64          `json:"seed"`
	NFeatures   int            `json:"n_features"`
	NClasses    int            `json:"n_classes"`
	Trees       []DecisionTree `json:"trees"`
}

func NewRandomForest(nEstimators int, seed int64) *RandomForest {
	return &RandomForest{NEstimators: nEstimators, Seed: seed}
}

// Fit grows NEstimators trees on bootstrap samples. Labels must be 0..k-1.
func (f *RandomForest) Fit(x [][]float64, y []int) error {
	if len(x) == 0 {
		return fmt.Errorf("forest fit: %w", ErrEmptyInput)
	}
	if len(x) != len(y) {
		return fmt.Errorf("forest fit: %d rows but %d labels", len(x), len(y))
	}
	if err := checkMatrix(x, len(x[0])); err != nil {
		return fmt.Errorf("forest fit: %w", err)
	}
	if f.NEstimators < 1 {
		return fmt.Errorf("forest fit: n_estimators must be positive")
	}

	nClasses := 0
	for _, label := range y {
		if label < 0 {
			return fmt.Errorf("forest fit: negative label %d", label)
		}
		if label+1 > nClasses {
			nClasses = label + 1
		}
	}

	f.NFeatures = len(x[0])
	f.NClasses = nClasses
	f.MaxFeatures = int(math.Max(1, math.Floor(math.Sqrt(float64(f.NFeatures)))))
	f.Trees = make([]DecisionTree, f.NEstimators)

	rng := rand.New(rand.NewSource(f.Seed))
	n := len(x)
	sample := make([]int, n)
	for t := range f.Trees {
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		f.Trees[t] = growTree(x, y, sample, nClasses, f.MaxFeatures, rng)
	}
	return nil
}

// PredictProba averages the leaf class distributions of all trees.
func (f *RandomForest) PredictProba(x [][]float64) ([][]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest predict: %w", ErrNotFitted)
	}
	if err := checkMatrix(x, f.NFeatures); err != nil {
		return nil, fmt.Errorf("forest predict: %w", err)
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		acc := make([]float64, f.NClasses)
		for _, t := range f.Trees {
			for c, p := range t.predictProba(row) {
				acc[c] += p
			}
		}
		for c := range acc {
			acc[c] /= float64(len(f.Trees))
		}
		out[i] = acc
	}
	return out, nil
}

// Predict returns the most probable class per row; ties go to the lower class.
func (f *RandomForest) Predict(x [][]float64) ([]int, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		best := 0
		for c := 1; c < len(p); c++ {
			if p[c] > p[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out, nil
}
