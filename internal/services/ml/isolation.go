package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const eulerGamma = 0.5772156649015329

// IsolationNode is one node of an isolation tree. Leaves keep the number of training
// samples that reached them.
type IsolationNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Size      int     `json:"size"`
}

type IsolationTree struct {
	Nodes []IsolationNode `json:"nodes"`
}

// IsolationForest scores rows by how quickly random splits isolate them.
type IsolationForest struct {
	NEstimators   int             `json:"n_estimators"`
	MaxSamples    int             `json:"max_samples"`
	Contamination float64         `json:"contamination"`
	Seed          int64           `json:"seed"`
	NFeatures     int             `json:"n_features"`
	SampleSize    int             `json:"sample_size"`
	Threshold     float64         `json:"threshold"`
	Trees         []IsolationTree `json:"trees"`
}

func NewIsolationForest(nEstimators int, contamination float64, seed int64) *IsolationForest {
	return &IsolationForest{
		NEstimators:   nEstimators,
		MaxSamples:    256,
		Contamination: contamination,
		Seed:          seed,
	}
}

func (f *IsolationForest) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("isolation fit: %w", ErrEmptyInput)
	}
	if err := checkMatrix(x, len(x[0])); err != nil {
		return fmt.Errorf("isolation fit: %w", err)
	}
	if f.Contamination <= 0 || f.Contamination >= 0.5 {
		return fmt.Errorf("isolation fit: contamination %v outside (0, 0.5)", f.Contamination)
	}

	n := len(x)
	f.NFeatures = len(x[0])
	f.SampleSize = n
	if f.MaxSamples > 0 && f.MaxSamples < n {
		f.SampleSize = f.MaxSamples
	}
	heightLimit := int(math.Ceil(math.Log2(math.Max(float64(f.SampleSize), 2))))

	rng := rand.New(rand.NewSource(f.Seed))
	f.Trees = make([]IsolationTree, f.NEstimators)
	for t := range f.Trees {
		sample := rng.Perm(n)[:f.SampleSize]
		b := &isolationBuilder{x: x, rng: rng, limit: heightLimit}
		b.build(sample, 0)
		f.Trees[t] = IsolationTree{Nodes: b.nodes}
	}

	scores := f.scores(x)
	sort.Float64s(scores)
	f.Threshold = stat.Quantile(1-f.Contamination, stat.LinInterp, scores, nil)
	return nil
}

// Score returns the anomaly score 2^(-E[h(x)]/c(psi)) per row; higher is more anomalous.
func (f *IsolationForest) Score(x [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("isolation score: %w", ErrNotFitted)
	}
	if err := checkMatrix(x, f.NFeatures); err != nil {
		return nil, fmt.Errorf("isolation score: %w", err)
	}
	return f.scores(x), nil
}

// Predict flags rows scoring above the training threshold.
func (f *IsolationForest) Predict(x [][]float64) ([]bool, error) {
	scores, err := f.Score(x)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(scores))
	for i, s := range scores {
		out[i] = s > f.Threshold
	}
	return out, nil
}

func (f *IsolationForest) scores(x [][]float64) []float64 {
	norm := averagePathLength(f.SampleSize)
	out := make([]float64, len(x))
	for i, row := range x {
		depth := 0.0
		for _, t := range f.Trees {
			depth += t.pathLength(row)
		}
		depth /= float64(len(f.Trees))
		if norm == 0 {
			out[i] = 0.5
			continue
		}
		out[i] = math.Pow(2, -depth/norm)
	}
	return out
}

func (t IsolationTree) pathLength(row []float64) float64 {
	n, depth := 0, 0
	for t.Nodes[n].Feature != leaf {
		if row[t.Nodes[n].Feature] <= t.Nodes[n].Threshold {
			n = t.Nodes[n].Left
		} else {
			n = t.Nodes[n].Right
		}
		depth++
	}
	return float64(depth) + averagePathLength(t.Nodes[n].Size)
}

// averagePathLength is c(n), the mean unsuccessful search depth of a BST with n keys.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

type isolationBuilder struct {
	x     [][]float64
	rng   *rand.Rand
	limit int
	nodes []IsolationNode
}

func (b *isolationBuilder) build(idx []int, depth int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, IsolationNode{Feature: leaf, Left: leaf, Right: leaf, Size: len(idx)})
	if depth >= b.limit || len(idx) <= 1 {
		return id
	}

	// only features that vary within this node can split it
	nFeatures := len(b.x[idx[0]])
	var candidates []int
	lo := make([]float64, nFeatures)
	hi := make([]float64, nFeatures)
	for f := 0; f < nFeatures; f++ {
		lo[f], hi[f] = math.Inf(1), math.Inf(-1)
		for _, i := range idx {
			v := b.x[i][f]
			lo[f] = math.Min(lo[f], v)
			hi[f] = math.Max(hi[f], v)
		}
		if hi[f] > lo[f] {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return id
	}

	f := candidates[b.rng.Intn(len(candidates))]
	threshold := lo[f] + b.rng.Float64()*(hi[f]-lo[f])

	var left, right []int
	for _, i := range idx {
		if b.x[i][f] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[id] = IsolationNode{Feature: f, Threshold: threshold, Left: l, Right: r, Size: len(idx)}
	return id
}
