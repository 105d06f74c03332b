package loader

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

var (
	ErrDegenerateLabels = errors.New("labels contain a single class")
	ErrDegenerateSplit  = errors.New("stratified split impossible")
)

// StratifiedSplit splits row indices into train and test partitions so that
// each class keeps its share of rows in both. The same labels and seed always
// produce the same partitions.
func StratifiedSplit(labels []int, testRatio float64, seed int64) (trainIdx, testIdx []int, err error) {
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio %v outside (0,1)", testRatio)
	}
	byClass := map[int][]int{}
	for i, y := range labels {
		byClass[y] = append(byClass[y], i)
	}
	if len(byClass) < 2 {
		return nil, nil, ErrDegenerateLabels
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rnd := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		n := len(idx)
		if n < 2 {
			return nil, nil, fmt.Errorf("%w: class %d has %d example(s), need at least 2", ErrDegenerateSplit, c, n)
		}
		nTest := int(math.Round(float64(n) * testRatio))
		nTest = max(1, min(nTest, n-1))
		rnd.Shuffle(n, func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		testIdx = append(testIdx, idx[:nTest]...)
		trainIdx = append(trainIdx, idx[nTest:]...)
	}
	rnd.Shuffle(len(trainIdx), func(a, b int) { trainIdx[a], trainIdx[b] = trainIdx[b], trainIdx[a] })
	rnd.Shuffle(len(testIdx), func(a, b int) { testIdx[a], testIdx[b] = testIdx[b], testIdx[a] })
	return trainIdx, testIdx, nil
}

// Take returns the elements of xs at the given indices.
func Take[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}
