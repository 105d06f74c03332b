// Package hrtest generates synthetic HR attrition datasets for tests.
package hrtest

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/data"
	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/loader"
)

// Rare department names planted by RareRows.
const (
	EvalOnlyDepartment = "legal"
	PairDepartment     = "procurement"
)

var Header = []string{
	"satisfaction_level", "last_evaluation", "number_project", "average_monthly_hours",
	"time_spend_company", "work_accident", "promotion_last_5years", "department", "salary", "left",
}

var Departments = []string{"sales", "technical", "support", "IT", "hr", "accounting", "marketing", "product_mng", "RandD", "management"}

// Rows returns n labeled rows. About a quarter of the employees leave, drawn
// from three profiles: overworked with very low satisfaction, under-used with
// middling satisfaction, and long-tenured high performers. Every department
// and salary tier appears in the first 30 rows.
func Rows(n int, seed int64) [][]string {
	rng := rand.New(rand.NewSource(seed))
	salaries := []string{"low", "medium", "high"}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		var sat, eval, hours float64
		var projects, tenure, left int
		p := rng.Float64()
		switch {
		case p < 0.09:
			sat = 0.09 + rng.Float64()*0.03
			eval = 0.77 + rng.Float64()*0.23
			projects = 6 + rng.Intn(2)
			hours = 245 + float64(rng.Intn(65))
			tenure = 4 + rng.Intn(2)
			left = 1
		case p < 0.19:
			sat = 0.36 + rng.Float64()*0.10
			eval = 0.45 + rng.Float64()*0.12
			projects = 2
			hours = 126 + float64(rng.Intn(35))
			tenure = 3
			left = 1
		case p < 0.25:
			sat = 0.72 + rng.Float64()*0.20
			eval = 0.81 + rng.Float64()*0.19
			projects = 4 + rng.Intn(2)
			hours = 215 + float64(rng.Intn(60))
			tenure = 5 + rng.Intn(2)
			left = 1
		default:
			sat = 0.50 + rng.Float64()*0.50
			eval = 0.40 + rng.Float64()*0.60
			projects = 3 + rng.Intn(3)
			hours = 140 + float64(rng.Intn(90))
			tenure = 2 + rng.Intn(3)
			left = 0
		}
		salary := salaries[rng.Intn(3)]
		if left == 1 && rng.Float64() < 0.5 {
			salary = "low"
		}
		dept := Departments[rng.Intn(len(Departments))]
		if i < 30 {
			dept = Departments[i%len(Departments)]
			salary = salaries[i%len(salaries)]
		}
		accident := 0
		if rng.Float64() < 0.14 {
			accident = 1
		}
		promoted := 0
		if left == 0 && rng.Float64() < 0.03 {
			promoted = 1
		}
		rows[i] = []string{
			fmt.Sprintf("%.2f", sat), fmt.Sprintf("%.2f", eval), fmt.Sprint(projects),
			fmt.Sprint(int(hours)), fmt.Sprint(tenure), fmt.Sprint(accident), fmt.Sprint(promoted),
			dept, salary, fmt.Sprint(left),
		}
	}
	return rows
}

// RareRows returns Rows(n, seed) with two departments planted so that, under
// a stratified split with testRatio and splitSeed, EvalOnlyDepartment occurs
// in a single evaluation row and PairDepartment in one training row and one
// evaluation row.
func RareRows(n int, seed int64, testRatio float64, splitSeed int64) [][]string {
	rows := Rows(n, seed)
	labels := make([]int, len(rows))
	for i, r := range rows {
		if r[9] == "1" {
			labels[i] = 1
		}
	}
	trainIdx, testIdx, err := loader.StratifiedSplit(labels, testRatio, splitSeed)
	if err != nil || len(trainIdx) == 0 || len(testIdx) < 2 {
		panic(fmt.Sprintf("hrtest: cannot plant rare departments: %v", err))
	}
	rows[testIdx[0]][7] = EvalOnlyDepartment
	rows[testIdx[1]][7] = PairDepartment
	rows[trainIdx[0]][7] = PairDepartment
	return rows
}

// Dataset returns n labeled rows as a data.Dataset.
func Dataset(n int, seed int64) *data.Dataset {
	return data.NewDataset(append([]string(nil), Header...), Rows(n, seed))
}

// CSV returns n labeled rows as file contents with a header line.
func CSV(n int, seed int64) string {
	return Encode(Rows(n, seed))
}

// Encode renders rows as CSV contents under Header.
func Encode(rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(Header, ",") + "\n")
	for _, row := range rows {
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	return b.String()
}
