package pipeline

import (
	"errors"
	"fmt"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/dataprep"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/stats"
)

var (
	ErrAlreadyFitted = errors.New("transformer: already fitted")
	ErrNotFitted     = errors.New("transformer: not fitted")
	ErrNoRecords     = errors.New("transformer: no records")
)

// UnknownCategoryError reports a categorical value absent from a frozen
// encoding table. It matches dataprep.ErrUnknownCategory with errors.Is.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for %s", e.Value, e.Field)
}

func (e *UnknownCategoryError) Unwrap() error { return dataprep.ErrUnknownCategory }

// Transformer turns records into the scaled 9-column feature matrix. The
// encoders may be built from the whole dataset with FitEncoders; Fit then
// learns the imputer and scaler from training records only. Afterwards every
// field is frozen and Transform reuses it verbatim.
type Transformer struct {
	Imputer    dataprep.MeanImputer
	Department *dataprep.LabelEncoder
	Salary     *dataprep.LabelEncoder
	Scaler     stats.StandardScaler
}

func NewTransformer() *Transformer { return &Transformer{} }

// Fitted reports whether every part of the transformer has been fit.
func (t *Transformer) Fitted() bool {
	return t.Imputer.Fitted && t.Scaler.Fitted && t.Department != nil && t.Salary != nil
}

// FitEncoders builds both category tables from records. Training calls it on
// every parsed record before splitting so a category seen only in the
// evaluation split still has a code.
func (t *Transformer) FitEncoders(records []Record) error {
	if t.Department != nil || t.Salary != nil {
		return ErrAlreadyFitted
	}
	if len(records) == 0 {
		return ErrNoRecords
	}
	departments := make([]string, len(records))
	salaries := make([]string, len(records))
	for i, r := range records {
		departments[i] = r.Department
		salaries[i] = r.Salary
	}
	dept, err := dataprep.FitLabelEncoder(ColDepartment, departments)
	if err != nil {
		return err
	}
	salary, err := dataprep.FitLabelEncoder(ColSalary, salaries)
	if err != nil {
		return err
	}
	t.Department, t.Salary = dept, salary
	return nil
}

// Fit imputes, encodes and scales the training records and freezes the
// parameters it learned. Encoders built by FitEncoders are kept; otherwise
// they are fit on records too. It returns the scaled matrix in FeatureOrder.
func (t *Transformer) Fit(records []Record) ([][]float64, error) {
	if t.Fitted() {
		return nil, ErrAlreadyFitted
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	numeric := make([][]float64, len(records))
	for i, r := range records {
		n := r.Numeric()
		numeric[i] = n[:]
	}
	if err := t.Imputer.Fit(numeric); err != nil {
		return nil, err
	}
	if t.Department == nil || t.Salary == nil {
		t.Department, t.Salary = nil, nil
		if err := t.FitEncoders(records); err != nil {
			return nil, err
		}
	}

	var err error
	raw := make([][]float64, len(records))
	for i, r := range records {
		if raw[i], _, err = t.assemble(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return t.Scaler.FitTransform(raw)
}

// Transform applies the frozen parameters to records. Nothing is refit.
func (t *Transformer) Transform(records []Record) ([][]float64, error) {
	out := make([][]float64, len(records))
	for i, r := range records {
		vec, _, err := t.TransformRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// TransformRecord scales one record and returns the names of the numeric
// fields that were filled with the training mean.
func (t *Transformer) TransformRecord(r Record) ([]float64, []string, error) {
	if !t.Fitted() {
		return nil, nil, ErrNotFitted
	}
	raw, imputed, err := t.assemble(r)
	if err != nil {
		return nil, nil, err
	}
	vec, err := t.Scaler.TransformRow(raw)
	if err != nil {
		return nil, nil, err
	}
	return vec, imputed, nil
}

// assemble builds the unscaled vector in FeatureOrder.
func (t *Transformer) assemble(r Record) ([]float64, []string, error) {
	n := r.Numeric()
	filled, idx, err := t.Imputer.TransformRow(n[:])
	if err != nil {
		return nil, nil, err
	}
	var imputed []string
	for _, j := range idx {
		imputed = append(imputed, FeatureOrder[j])
	}
	dept, err := t.Department.Encode(r.Department)
	if err != nil {
		return nil, nil, &UnknownCategoryError{Field: ColDepartment, Value: r.Department}
	}
	salary, err := t.Salary.Encode(r.Salary)
	if err != nil {
		return nil, nil, &UnknownCategoryError{Field: ColSalary, Value: r.Salary}
	}

	vec := make([]float64, NumFeatures)
	copy(vec, filled)
	vec[IdxDepartment] = float64(dept)
	vec[IdxSalary] = float64(salary)
	return vec, imputed, nil
}
