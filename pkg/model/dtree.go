package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART-style classifier over float features.
// All fields are exported so a fitted tree encodes with encoding/gob as-is.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => use all features, >0 => number of features to sample when looking for split
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// Fitted state
	Classes   []int  // sorted class labels, order used by probas
	NFeatures int    // width of the training rows
	Nodes     []Node // Nodes[0] is the root
}

// Node is one node of a fitted tree. Leaves have Left == Right == -1.
type Node struct {
	Feature   int
	Threshold float64 // x <= Threshold => Left
	Left      int
	Right     int
	N         int       // training samples that reached the node
	Probas    []float64 // class distribution, aligned with Classes
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.Left < 0 }

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

var (
	ErrEmptyX       = errors.New("dtree: empty X")
	ErrLenMismatch  = errors.New("dtree: X and y length mismatch")
	ErrRaggedX      = errors.New("dtree: inconsistent number of features in X rows")
	ErrUnknownClass = errors.New("dtree: label not in class list")
)

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MaxDepth:            0,
		MinSamplesSplit:     2,
		MinSamplesLeaf:      1,
		Criterion:           "gini",
		MaxFeatures:         0,
		MinImpurityDecrease: 0.0,
		RandomState:         1,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API: Fit / Predict / PredictProba
// ---------------------------

// Fit trains the tree on every row of X.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.FitSample(X, y, idx, uniqueSorted(y))
}

// FitSample trains the tree on the rows of X listed in idx (duplicates allowed,
// as produced by bootstrap sampling). classes fixes the order of the
// probability vectors so trees fit on different samples stay aligned.
func (t *DecisionTreeClassifier) FitSample(X [][]float64, y []int, idx []int, classes []int) error {
	if len(X) == 0 || len(idx) == 0 {
		return ErrEmptyX
	}
	if len(y) != len(X) {
		return ErrLenMismatch
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return ErrRaggedX
		}
	}
	if len(classes) == 0 {
		return errors.New("dtree: no classes in y")
	}
	t.Classes = append([]int(nil), classes...)
	t.NFeatures = p

	// class index per row, computed once
	yc := make([]int, len(y))
	for i, lab := range y {
		ci := classIndex(lab, t.Classes)
		if ci < 0 {
			return ErrUnknownClass
		}
		yc[i] = ci
	}

	b := &builder{
		tree:     t,
		X:        X,
		yc:       yc,
		p:        p,
		nClasses: len(t.Classes),
		rnd:      rand.New(rand.NewSource(t.RandomState)),
		impurity: giniFromCounts,
	}
	if t.Criterion == "entropy" {
		b.impurity = entropyFromCounts
	}
	t.Nodes = t.Nodes[:0]
	b.build(append([]int(nil), idx...), 0)
	return nil
}

// Predict returns predicted class labels aligned with the labels the tree was trained on.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		out[i] = t.Classes[argmaxFloat(t.predictProbaSingle(X[i]))]
	}
	return out
}

// PredictProba returns the per-class probability vectors for rows in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.predictProbaSingle(X[i])
	}
	return out
}

// Depth returns the depth of the deepest leaf (root only => 0).
func (t *DecisionTreeClassifier) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i, d int) int
	walk = func(i, d int) int {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return d
		}
		return max(walk(n.Left, d+1), walk(n.Right, d+1))
	}
	return walk(0, 0)
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

type builder struct {
	tree     *DecisionTreeClassifier
	X        [][]float64
	yc       []int
	p        int
	nClasses int
	rnd      *rand.Rand
	impurity func([]int) float64
}

// A struct to hold the results of a single feature's best split search.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
}

// pair is a feature value with the class index of its row.
type pair struct {
	v  float64
	ci int
	i  int
}

// build appends the subtree for idx and returns its node index.
func (b *builder) build(idx []int, depth int) int {
	t := b.tree
	counts := make([]int, b.nClasses)
	for _, ii := range idx {
		counts[b.yc[ii]]++
	}
	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Left: -1, Right: -1, N: len(idx), Probas: countsToProbas(counts)})

	if isPure(counts) || (t.MinSamplesSplit > 0 && len(idx) < t.MinSamplesSplit) {
		return self
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return self
	}

	// determine features to try
	featIndices := make([]int, b.p)
	for j := 0; j < b.p; j++ {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < b.p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + b.rnd.Intn(b.p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	parentImpurity := b.impurity(counts)
	best := splitResult{feature: -1}
	for _, f := range featIndices {
		r := b.bestSplitForFeature(idx, f, counts, parentImpurity)
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 || best.gain <= t.MinImpurityDecrease {
		return self
	}

	var left, right []int
	for _, ii := range idx {
		v := b.X[ii][best.feature]
		if v <= best.threshold || math.IsNaN(v) {
			left = append(left, ii)
		} else {
			right = append(right, ii)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	t.Nodes[self].Feature = best.feature
	t.Nodes[self].Threshold = best.threshold
	t.Nodes[self].Left = l
	t.Nodes[self].Right = r
	return self
}

// bestSplitForFeature sorts the node's rows on feature f once and sweeps the
// candidate thresholds, keeping running class counts on each side. NaNs are
// sent left.
func (b *builder) bestSplitForFeature(idx []int, f int, total []int, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}
	minLeaf := max(b.tree.MinSamplesLeaf, 1)

	valid := make([]pair, 0, len(idx))
	nanCounts := make([]int, b.nClasses)
	nNaN := 0
	for _, ii := range idx {
		v := b.X[ii][f]
		if math.IsNaN(v) {
			nanCounts[b.yc[ii]]++
			nNaN++
			continue
		}
		valid = append(valid, pair{v: v, ci: b.yc[ii], i: ii})
	}
	if len(valid) < 2 {
		return result
	}
	sort.Slice(valid, func(a, c int) bool {
		if valid[a].v != valid[c].v {
			return valid[a].v < valid[c].v
		}
		return valid[a].i < valid[c].i
	})

	n := float64(len(idx))
	leftCounts := append([]int(nil), nanCounts...)
	rightCounts := make([]int, b.nClasses)
	for c := range total {
		rightCounts[c] = total[c] - nanCounts[c]
	}
	nLeft := nNaN
	for s := 1; s < len(valid); s++ {
		ci := valid[s-1].ci
		leftCounts[ci]++
		rightCounts[ci]--
		nLeft++
		if valid[s].v == valid[s-1].v {
			continue
		}
		nRight := len(idx) - nLeft
		if nLeft < minLeaf || nRight < minLeaf {
			continue
		}
		weighted := (float64(nLeft)/n)*b.impurity(leftCounts) + (float64(nRight)/n)*b.impurity(rightCounts)
		gain := parentImpurity - weighted
		if gain > result.gain {
			result = splitResult{gain: gain, feature: f, threshold: (valid[s-1].v + valid[s].v) / 2.0}
		}
	}
	return result
}

// ---------------------------
// Prediction helper
// ---------------------------

func (t *DecisionTreeClassifier) predictProbaSingle(x []float64) []float64 {
	if len(t.Nodes) == 0 {
		p := make([]float64, len(t.Classes))
		for i := range p {
			p[i] = 1.0 / float64(len(p))
		}
		return p
	}
	node := &t.Nodes[0]
	for !node.IsLeaf() {
		val := x[node.Feature]
		if math.IsNaN(val) || val <= node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node.Probas
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / n
		res += p * (1 - p)
	}
	return res
}

func entropyFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

// argmaxFloat returns the first index of the largest value.
func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}

// classIndex returns index of label in classes slice, or -1.
func classIndex(label int, classes []int) int {
	for i, v := range classes {
		if v == label {
			return i
		}
	}
	return -1
}

func uniqueSorted(y []int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
