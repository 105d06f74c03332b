package dataprep

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/stats"
)

var ErrImputerNotFitted = errors.New("imputer: not fitted")

// IsMissing reports whether a raw cell should be treated as a missing value.
func IsMissing(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

// MeanImputer replaces NaN entries with the column mean seen while fitting.
type MeanImputer struct {
	Means  []float64
	Fitted bool
}

// Fit computes the mean of the non-missing values of every column. A column
// with no observed values gets a mean of 0.
func (m *MeanImputer) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("imputer: empty input")
	}
	c := len(X[0])
	m.Means = make([]float64, c)
	for j := 0; j < c; j++ {
		var vals []float64
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				vals = append(vals, X[i][j])
			}
		}
		m.Means[j] = stats.Mean(vals)
	}
	m.Fitted = true
	return nil
}

// TransformRow returns a copy of x with NaNs filled, and the indices that were filled.
func (m *MeanImputer) TransformRow(x []float64) ([]float64, []int, error) {
	if !m.Fitted {
		return nil, nil, ErrImputerNotFitted
	}
	if len(x) != len(m.Means) {
		return nil, nil, fmt.Errorf("imputer: got %d columns, want %d", len(x), len(m.Means))
	}
	out := make([]float64, len(x))
	var filled []int
	for j, v := range x {
		if math.IsNaN(v) {
			out[j] = m.Means[j]
			filled = append(filled, j)
			continue
		}
		out[j] = v
	}
	return out, filled, nil
}
