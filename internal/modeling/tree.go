package modeling

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Classifier predicts a binary class from a feature vector.
type Classifier interface {
	Predict(features []float64) int
}

// Trainer fits a Classifier to a feature matrix and 0/1 labels.
type Trainer interface {
	Train(x [][]float64, y []int) (Classifier, error)
}

// ImportanceReporter is implemented by classifiers that can rank their
// inputs. Importances are non-negative and sum to 1 when any split exists.
type ImportanceReporter interface {
	Importances() []float64
}

// ErrNoTrainingData is returned when a trainer receives no rows.
var ErrNoTrainingData = errors.New("no training rows")

// TreeTrainer grows a binary CART decision tree on Gini impurity.
// A MaxDepth of 1 yields a decision stump.
type TreeTrainer struct {
	MaxDepth       int  // 0 means unlimited
	MinSamplesLeaf int  // at least 1
	Balanced       bool // weight classes inversely to their frequency
}

// Tree is a fitted decision tree.
type Tree struct {
	root        *treeNode
	importances []float64
}

type treeNode struct {
	leaf      bool
	class     int
	prob      float64 // weighted share of class 1 at a leaf
	feature   int
	threshold float64
	left      *treeNode // feature <= threshold
	right     *treeNode
}

// Train fits a tree to x and y.
func (tr TreeTrainer) Train(x [][]float64, y []int) (Classifier, error) {
	if err := checkShape(x, y); err != nil {
		return nil, err
	}

	b := &treeBuilder{
		x:          x,
		y:          y,
		w:          sampleWeights(y, tr.Balanced),
		maxDepth:   tr.MaxDepth,
		minLeaf:    max(tr.MinSamplesLeaf, 1),
		importance: make([]float64, len(x[0])),
	}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	return b.fit(idx), nil
}

func checkShape(x [][]float64, y []int) error {
	if len(x) == 0 {
		return ErrNoTrainingData
	}
	if len(x) != len(y) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", len(x), len(y))
	}
	return nil
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(features []float64) int {
	return t.leaf(features).class
}

// Proba returns the weighted share of class 1 in the leaf reached by features.
func (t *Tree) Proba(features []float64) float64 {
	return t.leaf(features).prob
}

func (t *Tree) leaf(features []float64) *treeNode {
	n := t.root
	for !n.leaf {
		if features[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n
}

// Importances returns the normalized total impurity decrease per feature.
func (t *Tree) Importances() []float64 {
	return slices.Clone(t.importances)
}

// sampleWeights returns 1 per row, or n / (2 * n_class) when balanced.
func sampleWeights(y []int, balanced bool) []float64 {
	w := make([]float64, len(y))
	var counts [2]int
	for _, label := range y {
		counts[label&1]++
	}
	for i, label := range y {
		w[i] = 1
		if balanced && counts[label&1] > 0 {
			w[i] = float64(len(y)) / (2 * float64(counts[label&1]))
		}
	}
	return w
}

type treeBuilder struct {
	x          [][]float64
	y          []int
	w          []float64
	maxDepth   int
	minLeaf    int
	importance []float64

	// When rng is set, each split samples features in random order and stops
	// after maxFeatures non-constant ones.
	rng         *rand.Rand
	maxFeatures int
}

// fit grows a tree over the rows in idx, which may repeat, and normalizes
// the accumulated importances.
func (b *treeBuilder) fit(idx []int) *Tree {
	root := b.grow(idx, 0)

	total := 0.0
	for _, v := range b.importance {
		total += v
	}
	if total > 0 {
		for i := range b.importance {
			b.importance[i] /= total
		}
	}
	return &Tree{root: root, importances: b.importance}
}

type candidate struct {
	ok        bool
	feature   int
	threshold float64
	gain      float64
	position  int // rows [0, position) of the sorted index go left
	order     []int
}

func (b *treeBuilder) grow(idx []int, depth int) *treeNode {
	w0, w1 := b.classWeights(idx)
	n := &treeNode{leaf: true}
	if w1 > w0 {
		n.class = 1
	}
	if w0+w1 > 0 {
		n.prob = w1 / (w0 + w1)
	}

	if (b.maxDepth > 0 && depth >= b.maxDepth) || w0 == 0 || w1 == 0 || len(idx) < 2*b.minLeaf {
		return n
	}

	best := b.bestSplit(idx, w0, w1)
	if !best.ok {
		return n
	}

	b.importance[best.feature] += best.gain
	n.leaf = false
	n.feature = best.feature
	n.threshold = best.threshold
	n.left = b.grow(best.order[:best.position], depth+1)
	n.right = b.grow(best.order[best.position:], depth+1)
	return n
}

func (b *treeBuilder) classWeights(idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if b.y[i] == 1 {
			w1 += b.w[i]
		} else {
			w0 += b.w[i]
		}
	}
	return w0, w1
}

// bestSplit scans the candidate features for the threshold with the largest
// weighted impurity decrease. Ties keep the first feature visited and the
// lowest threshold.
func (b *treeBuilder) bestSplit(idx []int, w0, w1 float64) candidate {
	total := w0 + w1
	parent := total * gini(w0, w1)
	best := candidate{}

	visited := 0
	for _, f := range b.featureOrder() {
		if b.rng != nil && visited >= b.maxFeatures {
			break
		}
		order := slices.Clone(idx)
		slices.SortStableFunc(order, func(i, j int) int {
			switch {
			case b.x[i][f] < b.x[j][f]:
				return -1
			case b.x[i][f] > b.x[j][f]:
				return 1
			}
			return 0
		})
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}
		visited++

		var l0, l1 float64
		for pos := 1; pos < len(order); pos++ {
			prev := order[pos-1]
			if b.y[prev] == 1 {
				l1 += b.w[prev]
			} else {
				l0 += b.w[prev]
			}

			lo, hi := b.x[prev][f], b.x[order[pos]][f]
			if lo == hi || pos < b.minLeaf || len(order)-pos < b.minLeaf {
				continue
			}

			r0, r1 := w0-l0, w1-l1
			children := (l0+l1)*gini(l0, l1) + (r0+r1)*gini(r0, r1)
			gain := parent - children
			if gain > best.gain+1e-12 {
				best = candidate{
					ok:        true,
					feature:   f,
					threshold: lo + (hi-lo)/2,
					gain:      gain,
					position:  pos,
					order:     order,
				}
			}
		}
	}
	return best
}

// featureOrder is every feature in order, or a random permutation when
// features are sampled.
func (b *treeBuilder) featureOrder() []int {
	if b.rng == nil {
		order := make([]int, len(b.importance))
		for i := range order {
			order[i] = i
		}
		return order
	}
	return b.rng.Perm(len(b.importance))
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total == 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}
