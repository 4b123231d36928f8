package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrEmptyInput is returned when a model is fitted on no rows.
var ErrEmptyInput = errors.New("empty input")

// ErrNotFitted is returned when a model is used before Fit.
var ErrNotFitted = errors.New("model not fitted")

// TrainTestSplit shuffles 0..n-1 with seed and returns ceil(testSize*n) test indices
// and the rest as train indices.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("split %d rows: %w", n, ErrEmptyInput)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size %v outside (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Accuracy is the fraction of predictions equal to truth.
func Accuracy(pred, truth []int) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for i := range truth {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// Fraction is the share of true values.
func Fraction(flags []bool) float64 {
	if len(flags) == 0 {
		return 0
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return float64(n) / float64(len(flags))
}

func checkMatrix(x [][]float64, width int) error {
	if len(x) == 0 {
		return ErrEmptyInput
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return nil
}
