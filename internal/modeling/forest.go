package modeling

import (
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForestTrainer fits a random forest: every tree grows on a bootstrap sample
// of the rows and tries a random subset of the features at each split.
// Predictions average the leaf probabilities of all trees.
type ForestTrainer struct {
	Trees          int    // at least 1
	MaxDepth       int    // 0 means unlimited
	MinSamplesLeaf int    // at least 1
	MaxFeatures    int    // features tried per split; 0 means sqrt of the feature count
	Balanced       bool   // weight classes inversely to their frequency in each sample
	Seed           uint64 // fixes the bootstrap samples and feature draws
}

// DefaultTrainer is the trainer used by the pipeline: 300 fully grown trees
// with per-sample class balancing.
var DefaultTrainer = ForestTrainer{Trees: 300, MinSamplesLeaf: 1, Balanced: true, Seed: 42}

// Forest is a fitted random forest.
type Forest struct {
	trees       []*Tree
	importances []float64
}

// Train fits the forest. Trees are grown in parallel; the result depends only
// on the inputs and Seed.
func (ft ForestTrainer) Train(x [][]float64, y []int) (Classifier, error) {
	if err := checkShape(x, y); err != nil {
		return nil, err
	}

	nFeatures := len(x[0])
	maxFeatures := ft.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	maxFeatures = min(maxFeatures, nFeatures)

	trees := make([]*Tree, max(ft.Trees, 1))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(ft.Seed, uint64(i)))
			idx := bootstrap(rng, len(x))
			b := &treeBuilder{
				x:           x,
				y:           y,
				w:           bootstrapWeights(y, idx, ft.Balanced),
				maxDepth:    ft.MaxDepth,
				minLeaf:     max(ft.MinSamplesLeaf, 1),
				importance:  make([]float64, nFeatures),
				rng:         rng,
				maxFeatures: maxFeatures,
			}
			trees[i] = b.fit(idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{trees: trees, importances: meanImportances(trees, nFeatures)}, nil
}

// Predict returns 1 when the mean class-1 probability exceeds one half.
func (f *Forest) Predict(features []float64) int {
	if f.Proba(features) > 0.5 {
		return 1
	}
	return 0
}

// Proba returns the mean class-1 probability over all trees.
func (f *Forest) Proba(features []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.Proba(features)
	}
	return sum / float64(len(f.trees))
}

// Importances returns the mean of the per-tree importances, normalized to 1.
func (f *Forest) Importances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

// Size returns the number of trees.
func (f *Forest) Size() int {
	return len(f.trees)
}

// bootstrap draws n row indexes with replacement.
func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// bootstrapWeights returns per-row weights for one bootstrap sample. When
// balanced, a row of class c weighs len(idx) / (2 * count of c in the sample).
func bootstrapWeights(y []int, idx []int, balanced bool) []float64 {
	w := make([]float64, len(y))
	for i := range w {
		w[i] = 1
	}
	if !balanced {
		return w
	}

	var counts [2]int
	for _, i := range idx {
		counts[y[i]&1]++
	}
	for i, label := range y {
		if c := counts[label&1]; c > 0 {
			w[i] = float64(len(idx)) / (2 * float64(c))
		}
	}
	return w
}

func meanImportances(trees []*Tree, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	for _, t := range trees {
		for i, v := range t.importances {
			out[i] += v
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}
