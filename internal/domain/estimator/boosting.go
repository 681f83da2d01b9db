package estimator

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// GradientBoosting fits an additive model of shallow regression trees.
// Regression minimizes squared error; classification minimizes log loss on
// 0/1 targets with Newton leaf values.
type GradientBoosting struct {
	Classifier     bool    `json:"classifier"`
	NEstimators    int     `json:"n_estimators"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	MinSamplesLeaf int     `json:"min_samples_leaf"`
	Init           float64 `json:"init"`
	Trees          []Tree  `json:"trees"`
	NFeatures      int     `json:"n_features"`
}

// Tree is a binary regression tree stored as a flat node list; node 0 is
// the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split on Feature at Threshold (rows with value <=
// Threshold go Left) or a leaf carrying Value.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

func (t *Tree) eval(X mat.Matrix, row int) float64 {
	k := 0
	for {
		n := t.Nodes[k]
		if n.Leaf {
			return n.Value
		}
		if X.At(row, n.Feature) <= n.Threshold {
			k = n.Left
		} else {
			k = n.Right
		}
	}
}

func (m *GradientBoosting) Fit(X mat.Matrix, y []float64, _ []int) error {
	r, c, err := checkShape(X, y)
	if err != nil {
		return err
	}
	if m.NEstimators <= 0 || m.LearningRate <= 0 {
		return fmt.Errorf("gradient boosting: n_estimators and learning_rate must be positive")
	}
	m.NFeatures = c
	m.Trees = m.Trees[:0]

	m.Init = stat.Mean(y, nil)
	if m.Classifier {
		p := math.Min(math.Max(m.Init, 1e-6), 1-1e-6)
		m.Init = math.Log(p / (1 - p))
	}
	f := make([]float64, r)
	for i := range f {
		f[i] = m.Init
	}

	residual := make([]float64, r)
	hessian := make([]float64, r)
	all := make([]int, r)
	for i := range all {
		all[i] = i
	}
	for t := 0; t < m.NEstimators; t++ {
		for i := range residual {
			if m.Classifier {
				p := sigmoid(f[i])
				residual[i] = y[i] - p
				hessian[i] = p * (1 - p)
			} else {
				residual[i] = y[i] - f[i]
			}
		}
		g := grower{X: X, residual: residual, hessian: hessian, newton: m.Classifier,
			maxDepth: max(m.MaxDepth, 1), minLeaf: max(m.MinSamplesLeaf, 1)}
		tree := Tree{}
		g.grow(&tree, append([]int(nil), all...), 0)
		for i := range f {
			f[i] += m.LearningRate * tree.eval(X, i)
		}
		m.Trees = append(m.Trees, tree)
	}
	return nil
}

// Predict returns raw regression values, or hard 0/1 labels for classifiers.
func (m *GradientBoosting) Predict(X mat.Matrix) ([]float64, error) {
	raw, err := m.raw(X)
	if err != nil {
		return nil, err
	}
	if m.Classifier {
		for i, v := range raw {
			if sigmoid(v) >= 0.5 {
				raw[i] = 1
			} else {
				raw[i] = 0
			}
		}
	}
	return raw, nil
}

// PredictProba returns the positive-class probability of a classifier.
func (m *GradientBoosting) PredictProba(X mat.Matrix) ([]float64, error) {
	if !m.Classifier {
		return nil, fmt.Errorf("gradient boosting regressor has no probabilities: %w", ErrUnsupported)
	}
	raw, err := m.raw(X)
	if err != nil {
		return nil, err
	}
	for i, v := range raw {
		raw[i] = sigmoid(v)
	}
	return raw, nil
}

func (m *GradientBoosting) raw(X mat.Matrix) ([]float64, error) {
	if m.Trees == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, fmt.Errorf("%d columns, model has %d: %w", c, m.NFeatures, ErrShape)
	}
	out := make([]float64, r)
	for i := range out {
		out[i] = m.Init
		for k := range m.Trees {
			out[i] += m.LearningRate * m.Trees[k].eval(X, i)
		}
	}
	return out, nil
}

type grower struct {
	X        mat.Matrix
	residual []float64
	hessian  []float64
	newton   bool
	maxDepth int
	minLeaf  int
}

// grow appends the subtree for rows idx and returns its node index.
func (g *grower) grow(t *Tree, idx []int, depth int) int {
	at := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{})

	feature, threshold, split, ok := g.bestSplit(idx)
	if depth >= g.maxDepth || !ok {
		t.Nodes[at] = Node{Leaf: true, Value: g.leafValue(idx)}
		return at
	}
	left := g.grow(t, idx[:split], depth+1)
	right := g.grow(t, idx[split:], depth+1)
	t.Nodes[at] = Node{Feature: feature, Threshold: threshold, Left: left, Right: right}
	return at
}

// bestSplit finds the variance-reducing split of idx. On success idx is left
// sorted by the chosen feature so that idx[:split] is the left child.
func (g *grower) bestSplit(idx []int) (feature int, threshold float64, split int, ok bool) {
	n := len(idx)
	if n < 2*g.minLeaf {
		return 0, 0, 0, false
	}
	_, c := g.X.Dims()
	var total float64
	for _, i := range idx {
		total += g.residual[i]
	}
	base := total * total / float64(n)
	best := base + 1e-12

	sorted := make([]int, n)
	for j := 0; j < c; j++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.X.At(sorted[a], j) < g.X.At(sorted[b], j)
		})
		var left float64
		for k := 0; k < n-1; k++ {
			left += g.residual[sorted[k]]
			nl := k + 1
			if nl < g.minLeaf || n-nl < g.minLeaf {
				continue
			}
			lo, hi := g.X.At(sorted[k], j), g.X.At(sorted[k+1], j)
			if lo == hi {
				continue
			}
			right := total - left
			gain := left*left/float64(nl) + right*right/float64(n-nl)
			if gain > best {
				best = gain
				feature, threshold, split, ok = j, (lo+hi)/2, nl, true
			}
		}
	}
	if ok {
		sort.SliceStable(idx, func(a, b int) bool {
			return g.X.At(idx[a], feature) < g.X.At(idx[b], feature)
		})
	}
	return feature, threshold, split, ok
}

func (g *grower) leafValue(idx []int) float64 {
	var num, den float64
	for _, i := range idx {
		num += g.residual[i]
		if g.newton {
			den += g.hessian[i]
		} else {
			den++
		}
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}
