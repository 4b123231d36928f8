package ml

import (
	"math"
	"math/rand"
	"sort"
)

// leaf marks a TreeNode without children.
const leaf = -1

// TreeNode is one node of a classification tree stored in a flat slice.
// Internal nodes send x[Feature] <= Threshold to Left.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Proba     []float64 `json:"proba,omitempty"`
}

// DecisionTree is a CART classifier grown with gini impurity to full depth.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type treeBuilder struct {
	x           [][]float64
	y           []int
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []TreeNode
}

// growTree fits a tree on the rows listed in idx (duplicates allowed).
func growTree(x [][]float64, y []int, idx []int, nClasses, maxFeatures int, rng *rand.Rand) DecisionTree {
	b := &treeBuilder{x: x, y: y, nClasses: nClasses, maxFeatures: maxFeatures, rng: rng}
	b.build(idx)
	return DecisionTree{Nodes: b.nodes}
}

func (b *treeBuilder) build(idx []int) int {
	counts := b.classCounts(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: leaf, Left: leaf, Right: leaf})

	if len(idx) < 2 || pure(counts) {
		b.nodes[id].Proba = proba(counts, len(idx))
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[id].Proba = proba(counts, len(idx))
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left)
	r := b.build(right)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit visits features in random order. After maxFeatures candidates it stops as
// soon as any split has been found, so a node only stays a leaf when no feature splits it.
func (b *treeBuilder) bestSplit(idx []int, parent []int) (int, float64, bool) {
	nFeatures := len(b.x[idx[0]])
	order := b.rng.Perm(nFeatures)

	bestFeature, bestThreshold := -1, 0.0
	bestScore := math.Inf(1)
	found := false

	sorted := make([]int, len(idx))
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)

	for visited, f := range order {
		if visited >= b.maxFeatures && found {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool { return b.x[sorted[i]][f] < b.x[sorted[j]][f] })

		for c := range left {
			left[c] = 0
			right[c] = parent[c]
		}
		n := len(sorted)
		for k := 0; k < n-1; k++ {
			cls := b.y[sorted[k]]
			left[cls]++
			right[cls]--
			v, next := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if v == next {
				continue
			}
			nl, nr := k+1, n-k-1
			score := gini(left, nl)*float64(nl) + gini(right, nr)*float64(nr)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = v + (next-v)/2
				if bestThreshold >= next {
					bestThreshold = v
				}
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

// predictProba walks the tree for one row.
func (t DecisionTree) predictProba(row []float64) []float64 {
	n := 0
	for t.Nodes[n].Feature != leaf {
		if row[t.Nodes[n].Feature] <= t.Nodes[n].Threshold {
			n = t.Nodes[n].Left
		} else {
			n = t.Nodes[n].Right
		}
	}
	return t.Nodes[n].Proba
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func proba(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(n)
	}
	return out
}
