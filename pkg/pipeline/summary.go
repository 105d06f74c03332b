package pipeline

import (
	"math"
	"sort"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/stats"
)

// GroupRate is the attrition of one category value.
type GroupRate struct {
	Name          string  `json:"name"`
	Employees     int     `json:"employees"`
	Left          int     `json:"left"`
	AttritionRate float64 `json:"attrition_rate"`
}

// Summary holds the headline numbers shown before training.
type Summary struct {
	TotalEmployees  int         `json:"total_employees"`
	AttritionRate   float64     `json:"attrition_rate"`
	AvgSatisfaction float64     `json:"avg_satisfaction"`
	ByDepartment    []GroupRate `json:"by_department"`
	BySalary        []GroupRate `json:"by_salary"`
}

// Summarize computes attrition statistics over labeled records. Rates are
// percentages rounded to two decimals; missing satisfaction values are skipped.
func Summarize(records []Record, labels []int) Summary {
	s := Summary{TotalEmployees: len(records)}
	if len(records) == 0 {
		return s
	}
	left := 0
	var satisfaction []float64
	for i, r := range records {
		left += labels[i]
		if !math.IsNaN(r.SatisfactionLevel) {
			satisfaction = append(satisfaction, r.SatisfactionLevel)
		}
	}
	s.AttritionRate = stats.Round(100*float64(left)/float64(len(records)), 2)
	s.AvgSatisfaction = stats.Round(stats.Mean(satisfaction), 2)
	s.ByDepartment = groupRates(records, labels, func(r Record) string { return r.Department })
	s.BySalary = groupRates(records, labels, func(r Record) string { return r.Salary })
	return s
}

// groupRates is sorted by attrition rate, highest first, then by name.
func groupRates(records []Record, labels []int, key func(Record) string) []GroupRate {
	groups := map[string]*GroupRate{}
	for i, r := range records {
		k := key(r)
		g, ok := groups[k]
		if !ok {
			g = &GroupRate{Name: k}
			groups[k] = g
		}
		g.Employees++
		g.Left += labels[i]
	}
	out := make([]GroupRate, 0, len(groups))
	for _, g := range groups {
		g.AttritionRate = stats.Round(100*float64(g.Left)/float64(g.Employees), 2)
		out = append(out, *g)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].AttritionRate != out[b].AttritionRate {
			return out[a].AttritionRate > out[b].AttritionRate
		}
		return out[a].Name < out[b].Name
	})
	return out
}
