package model

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// RandomForest for classification
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => all features per split
	Bootstrap       bool
	RandomState     int64
	Workers         int // trees fit concurrently; <= 1 fits sequentially

	// Fitted state
	Classes   []int
	NFeatures int
	Trees     []*DecisionTreeClassifier
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithForestMinSamplesSplit(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesSplit = n }
}
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesLeaf = n }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}
func WithSeed(seed int64) RandomForestOption { return func(rf *RandomForest) { rf.RandomState = seed } }
func WithWorkers(n int) RandomForestOption   { return func(rf *RandomForest) { rf.Workers = n } }

var ErrForestNotTrained = errors.New("randomforest: not trained")

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     42,
		Workers:         1,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the random forest. Each tree gets its own seed and its own slot,
// so the fitted forest does not depend on Workers.
func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("randomforest: empty X")
	}
	n := len(X)
	if len(y) != n {
		return errors.New("randomforest: X and y length mismatch")
	}
	if rf.NEstimators <= 0 {
		return fmt.Errorf("randomforest: NEstimators must be positive, got %d", rf.NEstimators)
	}
	classes := uniqueSorted(y)

	trees := make([]*DecisionTreeClassifier, rf.NEstimators)
	errs := make([]error, rf.NEstimators)
	fitOne := func(idx int) {
		// Use a new rand source per tree to keep trees independent of scheduling.
		treeRand := rand.New(rand.NewSource(rf.RandomState + int64(idx)))

		// Bootstrap sampling: an index slice, not a copy of the data.
		sampleIndices := make([]int, n)
		for j := 0; j < n; j++ {
			if rf.Bootstrap {
				sampleIndices[j] = treeRand.Intn(n)
			} else {
				sampleIndices[j] = j
			}
		}

		tree := NewDecisionTreeClassifier(
			WithMaxDepth(rf.MaxDepth),
			WithMinSamplesSplit(rf.MinSamplesSplit),
			WithMinSamplesLeaf(rf.MinSamplesLeaf),
			WithMaxFeatures(rf.MaxFeatures),
			WithRandomState(treeRand.Int63()), // unique seed for each tree
		)
		if err := tree.FitSample(X, y, sampleIndices, classes); err != nil {
			errs[idx] = err
			return
		}
		trees[idx] = tree
	}

	if rf.Workers <= 1 {
		for i := 0; i < rf.NEstimators; i++ {
			fitOne(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < min(rf.Workers, rf.NEstimators); w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					fitOne(idx)
				}
			}()
		}
		for i := 0; i < rf.NEstimators; i++ {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	rf.Trees = trees
	rf.Classes = classes
	rf.NFeatures = len(X[0])
	return nil
}

// PredictProba averages the class distributions of all trees. Columns follow
// rf.Classes.
func (rf *RandomForest) PredictProba(X [][]float64) ([][]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrForestNotTrained
	}
	out := make([][]float64, len(X))
	for i, x := range X {
		if len(x) != rf.NFeatures {
			return nil, fmt.Errorf("randomforest: row %d has %d features, want %d", i, len(x), rf.NFeatures)
		}
		acc := make([]float64, len(rf.Classes))
		for _, t := range rf.Trees {
			for c, p := range t.predictProbaSingle(x) {
				acc[c] += p
			}
		}
		for c := range acc {
			acc[c] /= float64(len(rf.Trees))
		}
		out[i] = acc
	}
	return out, nil
}

// MaxTreeDepth returns the depth of the deepest fitted tree.
func (rf *RandomForest) MaxTreeDepth() int {
	d := 0
	for _, t := range rf.Trees {
		d = max(d, t.Depth())
	}
	return d
}

// Predict returns the class with the highest averaged probability; ties go to
// the smaller label.
func (rf *RandomForest) Predict(X [][]float64) ([]int, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		out[i] = rf.Classes[argmaxFloat(p)]
	}
	return out, nil
}
