package ranker

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a regression tree. Numeric features split on
// value <= Threshold; categorical features split on equality with
// Category. A node with no children is a leaf.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Equality  bool      `json:"equality,omitempty"`
	Category  float64   `json:"category,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

func (n *TreeNode) leaf() bool {
	return n.Left == nil && n.Right == nil
}

// Predict walks the tree for one feature row.
func (n *TreeNode) Predict(row []float64) float64 {
	node := n
	for !node.leaf() {
		v := row[node.Feature]
		var goLeft bool
		if node.Equality {
			goLeft = v == node.Category
		} else {
			goLeft = v <= node.Threshold
		}
		if goLeft {
			node = node.Left
		} else {
			node = node.Right
		}
	}

	return node.Value
}

// regularization added to every hessian sum
const lambda = 1.0

type splitCandidate struct {
	feature   int
	threshold float64
	equality  bool
	category  float64
	gain      float64
}

type treeBuilder struct {
	X          [][]float64
	grad       []float64
	hess       []float64
	maxDepth   int
	minChild   int
	categorial map[int]bool
	gains      map[int]float64 // accumulated split gain per feature
}

func (b *treeBuilder) build(rows []int, feats []int, depth int) *TreeNode {
	var sumG, sumH float64
	for _, i := range rows {
		sumG += b.grad[i]
		sumH += b.hess[i]
	}

	leaf := &TreeNode{Value: -sumG / (sumH + lambda)}
	if depth >= b.maxDepth || len(rows) < 2*b.minChild {
		return leaf
	}

	best := b.bestSplit(rows, feats, sumG, sumH)
	if best == nil {
		return leaf
	}
	b.gains[best.feature] += best.gain

	var left, right []int
	for _, i := range rows {
		v := b.X[i][best.feature]
		var goLeft bool
		if best.equality {
			goLeft = v == best.category
		} else {
			goLeft = v <= best.threshold
		}
		if goLeft {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &TreeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Equality:  best.equality,
		Category:  best.category,
		Left:      b.build(left, feats, depth+1),
		Right:     b.build(right, feats, depth+1),
	}
}

// bestSplit scans every allowed feature for the split with the highest
// gain. Numeric features use threshold splits between adjacent distinct
// values; categorical features use one-vs-rest equality splits.
func (b *treeBuilder) bestSplit(rows []int, feats []int, sumG, sumH float64) *splitCandidate {
	parentScore := sumG * sumG / (sumH + lambda)

	var best *splitCandidate
	consider := func(c splitCandidate) {
		if best == nil || c.gain > best.gain {
			cc := c
			best = &cc
		}
	}

	for _, f := range feats {
		if b.categorial[f] {
			b.scanCategorical(rows, f, sumG, sumH, parentScore, consider)
		} else {
			b.scanNumeric(rows, f, sumG, sumH, parentScore, consider)
		}
	}

	if best == nil || best.gain <= 0 {
		return nil
	}

	return best
}

func (b *treeBuilder) scanNumeric(rows []int, f int, sumG, sumH, parentScore float64, consider func(splitCandidate)) {
	sorted := make([]int, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(a, c int) bool {
		return b.X[sorted[a]][f] < b.X[sorted[c]][f]
	})

	var leftG, leftH float64
	for i := 0; i < len(sorted)-1; i++ {
		idx := sorted[i]
		leftG += b.grad[idx]
		leftH += b.hess[idx]

		cur, next := b.X[idx][f], b.X[sorted[i+1]][f]
		if cur == next {
			continue
		}

		nLeft := i + 1
		nRight := len(sorted) - nLeft
		if nLeft < b.minChild || nRight < b.minChild {
			continue
		}

		rightG := sumG - leftG
		rightH := sumH - leftH
		gain := leftG*leftG/(leftH+lambda) + rightG*rightG/(rightH+lambda) - parentScore
		consider(splitCandidate{
			feature:   f,
			threshold: (cur + next) / 2,
			gain:      gain,
		})
	}
}

func (b *treeBuilder) scanCategorical(rows []int, f int, sumG, sumH, parentScore float64, consider func(splitCandidate)) {
	type bucket struct {
		g, h float64
		n    int
	}
	buckets := make(map[float64]*bucket)
	for _, i := range rows {
		v := b.X[i][f]
		if buckets[v] == nil {
			buckets[v] = &bucket{}
		}
		buckets[v].g += b.grad[i]
		buckets[v].h += b.hess[i]
		buckets[v].n++
	}

	for cat, bk := range buckets {
		nRight := len(rows) - bk.n
		if bk.n < b.minChild || nRight < b.minChild {
			continue
		}

		rightG := sumG - bk.g
		rightH := sumH - bk.h
		gain := bk.g*bk.g/(bk.h+lambda) + rightG*rightG/(rightH+lambda) - parentScore
		consider(splitCandidate{
			feature:  f,
			equality: true,
			category: cat,
			gain:     gain,
		})
	}
}

// sampleWithout returns a random subset of indices of size n*fraction,
// or all of them when the fraction covers everything.
func sampleWithout(n int, fraction float64, rng *rand.Rand) []int {
	k := int(float64(n) * fraction)
	if k >= n || k == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	perm := rng.Perm(n)
	out := perm[:k]
	sort.Ints(out)
	return out
}
