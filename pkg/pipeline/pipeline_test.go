package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/Gopika-sys/Employee-Retention-Analysis/internal/hrtest"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/dataprep"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitSample(t *testing.T, n int) (*Transformer, []Record, [][]float64) {
	t.Helper()
	records, _, err := ParseRecords(hrtest.Dataset(n, 7), true)
	require.NoError(t, err)
	tr := NewTransformer()
	X, err := tr.Fit(records)
	require.NoError(t, err)
	return tr, records, X
}

func TestFeatureOrder(t *testing.T) {
	assert.Equal(t, 9, NumFeatures)
	assert.Equal(t, 7, NumNumeric)
	assert.Equal(t, "satisfaction_level", FeatureOrder[0])
	assert.Equal(t, "promotion_last_5years", FeatureOrder[6])
	assert.Equal(t, "department_encoded", FeatureOrder[7])
	assert.Equal(t, "salary_encoded", FeatureOrder[8])
}

func TestFitScalesToUnitVariance(t *testing.T) {
	tr, _, X := fitSample(t, 400)
	require.Len(t, X[0], NumFeatures)
	for j := 0; j < NumFeatures; j++ {
		if tr.Scaler.Std[j] == 0 {
			continue
		}
		col := stats.Column(X, j)
		assert.InDelta(t, 0.0, stats.Mean(col), 1e-9, FeatureOrder[j])
		assert.InDelta(t, 1.0, stats.Std(col), 1e-9, FeatureOrder[j])
	}
}

func TestTransformMatchesFit(t *testing.T) {
	tr, records, X := fitSample(t, 200)
	again, err := tr.Transform(records)
	require.NoError(t, err)
	assert.Equal(t, X, again)
}

func TestTransformIdempotent(t *testing.T) {
	tr, records, _ := fitSample(t, 100)
	a, _, err := tr.TransformRecord(records[3])
	require.NoError(t, err)
	b, _, err := tr.TransformRecord(records[3])
	require.NoError(t, err)
	for j := range a {
		assert.Equal(t, math.Float64bits(a[j]), math.Float64bits(b[j]))
	}
}

func TestTransformDoesNotRefit(t *testing.T) {
	tr, _, _ := fitSample(t, 100)
	mean := append([]float64(nil), tr.Scaler.Mean...)
	means := append([]float64(nil), tr.Imputer.Means...)
	_, _, err := tr.TransformRecord(Record{
		SatisfactionLevel: 100, LastEvaluation: 100, NumberProject: 100, AverageMonthlyHours: 1e6,
		TimeSpendCompany: 100, Department: "sales", Salary: "low",
	})
	require.NoError(t, err)
	assert.Equal(t, mean, tr.Scaler.Mean)
	assert.Equal(t, means, tr.Imputer.Means)
}

func TestTransformUnknownCategory(t *testing.T) {
	tr, records, _ := fitSample(t, 100)
	r := records[0]
	r.Department = "astronauts"
	_, _, err := tr.TransformRecord(r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataprep.ErrUnknownCategory))
	var uce *UnknownCategoryError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, ColDepartment, uce.Field)
	assert.Equal(t, "astronauts", uce.Value)

	r = records[0]
	r.Salary = "executive"
	_, err = tr.Transform([]Record{r})
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, ColSalary, uce.Field)
}

func TestTransformImputesWithTrainingMean(t *testing.T) {
	tr, records, _ := fitSample(t, 100)
	r := records[0]
	r.AverageMonthlyHours = math.NaN()
	vec, imputed, err := tr.TransformRecord(r)
	require.NoError(t, err)
	assert.Equal(t, []string{ColAverageMonthlyHours}, imputed)

	r.AverageMonthlyHours = tr.Imputer.Means[IdxAverageMonthlyHours]
	want, imputed, err := tr.TransformRecord(r)
	require.NoError(t, err)
	assert.Empty(t, imputed)
	assert.Equal(t, want, vec)
}

func TestFitImputesMissingTrainingValues(t *testing.T) {
	ds := data.NewDataset(hrtest.Header, [][]string{
		{"0.2", "0.5", "3", "", "3", "0", "0", "sales", "low", "1"},
		{"0.8", "0.9", "4", "200", "3", "0", "0", "IT", "high", "0"},
		{"0.6", "0.7", "5", "100", "NA", "0", "0", "IT", "medium", "0"},
	})
	records, _, err := ParseRecords(ds, true)
	require.NoError(t, err)
	tr := NewTransformer()
	X, err := tr.Fit(records)
	require.NoError(t, err)
	assert.Equal(t, 150.0, tr.Imputer.Means[IdxAverageMonthlyHours])
	assert.Equal(t, 3.0, tr.Imputer.Means[IdxTimeSpendCompany])
	for _, row := range X {
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestZeroVarianceFeatureStaysFinite(t *testing.T) {
	// promotion_last_5years is constant here.
	ds := data.NewDataset(hrtest.Header, [][]string{
		{"0.2", "0.5", "3", "150", "3", "0", "0", "sales", "low", "1"},
		{"0.8", "0.9", "4", "200", "3", "1", "0", "IT", "high", "0"},
	})
	records, _, err := ParseRecords(ds, true)
	require.NoError(t, err)
	tr := NewTransformer()
	X, err := tr.Fit(records)
	require.NoError(t, err)
	assert.Equal(t, 0.0, tr.Scaler.Std[IdxPromotionLast5Years])
	assert.Equal(t, 0.0, tr.Scaler.Std[IdxTimeSpendCompany])
	for _, row := range X {
		assert.Equal(t, 0.0, row[IdxPromotionLast5Years])
	}

	r := records[0]
	r.PromotionLast5Years = 1
	vec, _, err := tr.TransformRecord(r)
	require.NoError(t, err)
	assert.Equal(t, 1.0, vec[IdxPromotionLast5Years])
	for _, v := range vec {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestFitTwiceFails(t *testing.T) {
	tr, records, _ := fitSample(t, 50)
	_, err := tr.Fit(records)
	assert.ErrorIs(t, err, ErrAlreadyFitted)
}

func TestTransformBeforeFit(t *testing.T) {
	_, _, err := NewTransformer().TransformRecord(Record{})
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = NewTransformer().Fit(nil)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestFitKeepsEncodersFromFullDataset(t *testing.T) {
	records, _, err := ParseRecords(hrtest.Dataset(120, 3), true)
	require.NoError(t, err)
	rare := records[0]
	rare.Department = "legal"
	rare.Salary = "executive"
	all := append(append([]Record(nil), records...), rare)

	tr := NewTransformer()
	require.NoError(t, tr.FitEncoders(all))
	dept, salary := tr.Department, tr.Salary

	X, err := tr.Fit(records)
	require.NoError(t, err)
	require.Len(t, X, len(records))
	assert.Same(t, dept, tr.Department)
	assert.Same(t, salary, tr.Salary)

	vec, _, err := tr.TransformRecord(rare)
	require.NoError(t, err)
	code, err := tr.Department.Encode("legal")
	require.NoError(t, err)
	require.NotZero(t, tr.Scaler.Std[IdxDepartment])
	want := (float64(code) - tr.Scaler.Mean[IdxDepartment]) / tr.Scaler.Std[IdxDepartment]
	assert.InDelta(t, want, vec[IdxDepartment], 1e-9)
}

func TestFitEncodersErrors(t *testing.T) {
	assert.ErrorIs(t, NewTransformer().FitEncoders(nil), ErrNoRecords)

	tr, records, _ := fitSample(t, 40)
	assert.ErrorIs(t, tr.FitEncoders(records), ErrAlreadyFitted)
}
