package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/dataprep"
)

// Column names of the training file. They are case-sensitive.
const (
	ColSatisfactionLevel   = "satisfaction_level"
	ColLastEvaluation      = "last_evaluation"
	ColNumberProject       = "number_project"
	ColAverageMonthlyHours = "average_monthly_hours"
	ColTimeSpendCompany    = "time_spend_company"
	ColWorkAccident        = "work_accident"
	ColPromotionLast5Years = "promotion_last_5years"
	ColDepartment          = "department"
	ColSalary              = "salary"
	ColLeft                = "left"
)

// Positions inside a feature vector.
const (
	IdxSatisfactionLevel = iota
	IdxLastEvaluation
	IdxNumberProject
	IdxAverageMonthlyHours
	IdxTimeSpendCompany
	IdxWorkAccident
	IdxPromotionLast5Years
	IdxDepartment
	IdxSalary

	NumFeatures
	NumNumeric = IdxDepartment
)

// FeatureOrder is the column order of every feature vector, at training and at
// inference. Both transformer modes build vectors through this table only.
var FeatureOrder = [NumFeatures]string{
	IdxSatisfactionLevel:   ColSatisfactionLevel,
	IdxLastEvaluation:      ColLastEvaluation,
	IdxNumberProject:       ColNumberProject,
	IdxAverageMonthlyHours: ColAverageMonthlyHours,
	IdxTimeSpendCompany:    ColTimeSpendCompany,
	IdxWorkAccident:        ColWorkAccident,
	IdxPromotionLast5Years: ColPromotionLast5Years,
	IdxDepartment:          ColDepartment + "_encoded",
	IdxSalary:              ColSalary + "_encoded",
}

var (
	ErrEmptyDataset = errors.New("dataset empty")
	ErrInvalidLabel = errors.New("label must be 0 or 1")
	ErrMissingValue = errors.New("missing value")
)

// SchemaError lists the required columns a dataset lacks.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// RowError pins a parse failure to a line of the source file (header is line 1).
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RequiredColumns returns the columns a dataset must carry.
func RequiredColumns(withLabel bool) []string {
	cols := []string{
		ColSatisfactionLevel, ColLastEvaluation, ColNumberProject, ColAverageMonthlyHours,
		ColTimeSpendCompany, ColWorkAccident, ColPromotionLast5Years, ColDepartment, ColSalary,
	}
	if withLabel {
		cols = append(cols, ColLeft)
	}
	return cols
}

// Validate checks the dataset before anything is fit on it. It returns the
// missing columns (empty when valid) and ErrEmptyDataset or a *SchemaError.
func Validate(ds *data.Dataset, withLabel bool) ([]string, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	var missing []string
	for _, col := range RequiredColumns(withLabel) {
		if !ds.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return missing, &SchemaError{Missing: missing}
	}
	return nil, nil
}

// Record is one employee row. A NaN numeric field is missing and gets imputed.
type Record struct {
	SatisfactionLevel   float64 `json:"satisfaction_level"`
	LastEvaluation      float64 `json:"last_evaluation"`
	NumberProject       float64 `json:"number_project"`
	AverageMonthlyHours float64 `json:"average_monthly_hours"`
	TimeSpendCompany    float64 `json:"time_spend_company"`
	WorkAccident        float64 `json:"work_accident"`
	PromotionLast5Years float64 `json:"promotion_last_5years"`
	Department          string  `json:"department"`
	Salary              string  `json:"salary"`
}

// RecordInput is the JSON form of a Record. An absent or null numeric field
// becomes NaN and is imputed.
type RecordInput struct {
	SatisfactionLevel   *float64 `json:"satisfaction_level"`
	LastEvaluation      *float64 `json:"last_evaluation"`
	NumberProject       *float64 `json:"number_project"`
	AverageMonthlyHours *float64 `json:"average_monthly_hours"`
	TimeSpendCompany    *float64 `json:"time_spend_company"`
	WorkAccident        *float64 `json:"work_accident"`
	PromotionLast5Years *float64 `json:"promotion_last_5years"`
	Department          string   `json:"department" binding:"required"`
	Salary              string   `json:"salary" binding:"required"`
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Record converts the input, trimming the categorical values.
func (in RecordInput) Record() Record {
	return Record{
		SatisfactionLevel:   orNaN(in.SatisfactionLevel),
		LastEvaluation:      orNaN(in.LastEvaluation),
		NumberProject:       orNaN(in.NumberProject),
		AverageMonthlyHours: orNaN(in.AverageMonthlyHours),
		TimeSpendCompany:    orNaN(in.TimeSpendCompany),
		WorkAccident:        orNaN(in.WorkAccident),
		PromotionLast5Years: orNaN(in.PromotionLast5Years),
		Department:          strings.TrimSpace(in.Department),
		Salary:              strings.TrimSpace(in.Salary),
	}
}

// Numeric returns the numeric fields in FeatureOrder.
func (r Record) Numeric() [NumNumeric]float64 {
	var out [NumNumeric]float64
	out[IdxSatisfactionLevel] = r.SatisfactionLevel
	out[IdxLastEvaluation] = r.LastEvaluation
	out[IdxNumberProject] = r.NumberProject
	out[IdxAverageMonthlyHours] = r.AverageMonthlyHours
	out[IdxTimeSpendCompany] = r.TimeSpendCompany
	out[IdxWorkAccident] = r.WorkAccident
	out[IdxPromotionLast5Years] = r.PromotionLast5Years
	return out
}

// ParseRecords converts a validated dataset into records and, when withLabel is
// set, their labels.
func ParseRecords(ds *data.Dataset, withLabel bool) ([]Record, []int, error) {
	if _, err := Validate(ds, withLabel); err != nil {
		return nil, nil, err
	}
	var numericIdx [NumNumeric]int
	for j := 0; j < NumNumeric; j++ {
		numericIdx[j] = ds.Index(FeatureOrder[j])
	}
	deptIdx, salaryIdx, labelIdx := ds.Index(ColDepartment), ds.Index(ColSalary), ds.Index(ColLeft)

	records := make([]Record, ds.Len())
	var labels []int
	if withLabel {
		labels = make([]int, ds.Len())
	}
	for i, row := range ds.Rows {
		line := i + 2
		var num [NumNumeric]float64
		for j, col := range numericIdx {
			raw := cell(row, col)
			v, err := ParseNumeric(raw)
			if err != nil {
				return nil, nil, &RowError{Line: line, Column: FeatureOrder[j], Value: raw, Err: err}
			}
			num[j] = v
		}
		rec := Record{
			SatisfactionLevel:   num[IdxSatisfactionLevel],
			LastEvaluation:      num[IdxLastEvaluation],
			NumberProject:       num[IdxNumberProject],
			AverageMonthlyHours: num[IdxAverageMonthlyHours],
			TimeSpendCompany:    num[IdxTimeSpendCompany],
			WorkAccident:        num[IdxWorkAccident],
			PromotionLast5Years: num[IdxPromotionLast5Years],
			Department:          strings.TrimSpace(cell(row, deptIdx)),
			Salary:              strings.TrimSpace(cell(row, salaryIdx)),
		}
		if rec.Department == "" {
			return nil, nil, &RowError{Line: line, Column: ColDepartment, Err: ErrMissingValue}
		}
		if rec.Salary == "" {
			return nil, nil, &RowError{Line: line, Column: ColSalary, Err: ErrMissingValue}
		}
		records[i] = rec
		if withLabel {
			raw := cell(row, labelIdx)
			label, err := ParseLabel(raw)
			if err != nil {
				return nil, nil, &RowError{Line: line, Column: ColLeft, Value: raw, Err: err}
			}
			labels[i] = label
		}
	}
	return records, labels, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseNumeric parses a numeric cell; missing tokens become NaN.
func ParseNumeric(v string) (float64, error) {
	if dataprep.IsMissing(v) {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("non-finite value")
	}
	return f, nil
}

// ParseLabel parses the left column.
func ParseLabel(v string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, ErrInvalidLabel
	}
	switch f {
	case 0:
		return 0, nil
	case 1:
		return 1, nil
	}
	return 0, ErrInvalidLabel
}
