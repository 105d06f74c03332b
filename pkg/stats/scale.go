package stats

import (
	"errors"
	"fmt"
)

var (
	ErrNotFitted     = errors.New("scaler: not fitted")
	ErrEmptyInput    = errors.New("scaler: empty input")
	ErrWidthMismatch = errors.New("scaler: row width mismatch")
)

// StandardScaler standardizes each column to zero mean and unit variance.
// Mean and Std are the raw training statistics; a zero Std is kept as-is and
// replaced by 1 when transforming so constant columns map to 0 instead of NaN.
type StandardScaler struct {
	Mean   []float64
	Std    []float64
	Fitted bool
}

// Fit computes per-column mean and population standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return ErrEmptyInput
	}
	c := len(X[0])
	for i := range X {
		if len(X[i]) != c {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrWidthMismatch, i, len(X[i]), c)
		}
	}
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	for j := 0; j < c; j++ {
		col := Column(X, j)
		s.Mean[j] = Mean(col)
		s.Std[j] = Std(col)
	}
	s.Fitted = true
	return nil
}

// Transform scales every row of X using the fitted statistics. X is not modified.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i := range X {
		row, err := s.TransformRow(X[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = row
	}
	return out, nil
}

// TransformRow scales a single feature vector.
func (s *StandardScaler) TransformRow(x []float64) ([]float64, error) {
	if !s.Fitted {
		return nil, ErrNotFitted
	}
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrWidthMismatch, len(x), len(s.Mean))
	}
	row := make([]float64, len(x))
	for j, v := range x {
		row[j] = (v - s.Mean[j]) / s.denominator(j)
	}
	return row, nil
}

// FitTransform fits on X and returns the scaled copy.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *StandardScaler) denominator(j int) float64 {
	if s.Std[j] == 0 {
		return 1
	}
	return s.Std[j]
}
