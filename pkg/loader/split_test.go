package loader

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelsWithRate(n int, rate float64, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	y := make([]int, n)
	for i := range y {
		if rng.Float64() < rate {
			y[i] = 1
		}
	}
	return y
}

func leaveRate(y []int) float64 {
	s := 0
	for _, v := range y {
		s += v
	}
	return float64(s) / float64(len(y))
}

func TestStratifiedSplitPreservesRatio(t *testing.T) {
	for _, rate := range []float64{0.1, 0.24, 0.5} {
		y := labelsWithRate(1500, rate, 3)
		train, test, err := StratifiedSplit(y, 0.2, 42)
		require.NoError(t, err)
		overall := leaveRate(y)
		assert.InDelta(t, overall, leaveRate(Take(y, train)), 0.02)
		assert.InDelta(t, overall, leaveRate(Take(y, test)), 0.02)
		assert.InDelta(t, 300, len(test), 2)
	}
}

func TestStratifiedSplitPartitions(t *testing.T) {
	y := labelsWithRate(101, 0.3, 9)
	train, test, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	all := append(append([]int(nil), train...), test...)
	sort.Ints(all)
	for i, v := range all {
		assert.Equal(t, i, v)
	}
}

func TestStratifiedSplitDeterministic(t *testing.T) {
	y := labelsWithRate(200, 0.3, 1)
	a1, b1, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	a2, b2, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)

	a3, _, err := StratifiedSplit(y, 0.2, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a1, a3)
}

func TestStratifiedSplitDegenerate(t *testing.T) {
	_, _, err := StratifiedSplit([]int{0, 0, 0, 0}, 0.2, 42)
	assert.ErrorIs(t, err, ErrDegenerateLabels)

	_, _, err = StratifiedSplit([]int{0, 0, 0, 0, 1}, 0.2, 42)
	assert.ErrorIs(t, err, ErrDegenerateSplit)

	_, _, err = StratifiedSplit([]int{0, 1}, 1.5, 42)
	assert.Error(t, err)
}

func TestStratifiedSplitSmallClassesKeepBothSides(t *testing.T) {
	train, test, err := StratifiedSplit([]int{0, 0, 0, 1, 1}, 0.2, 42)
	require.NoError(t, err)
	assert.Contains(t, Take([]int{0, 0, 0, 1, 1}, test), 1)
	assert.Contains(t, Take([]int{0, 0, 0, 1, 1}, train), 1)
}

func TestTake(t *testing.T) {
	assert.Equal(t, []string{"c", "a"}, Take([]string{"a", "b", "c"}, []int{2, 0}))
}
