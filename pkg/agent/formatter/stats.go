package formatter

import (
	"math"
	"strconv"
	"strings"
)

// maxValueCounts is the distinct-value ceiling for reporting value frequencies.
const maxValueCounts = 10

type ColumnStats struct {
	Column      string         `json:"column"`
	Numeric     bool           `json:"numeric"`
	Min         *float64       `json:"min,omitempty"`
	Max         *float64       `json:"max,omitempty"`
	Mean        *float64       `json:"avg,omitempty"`
	Sum         *float64       `json:"sum,omitempty"`
	Distinct    *int           `json:"unique_values,omitempty"`
	ValueCounts map[string]int `json:"value_counts,omitempty"`
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ComputeStats summarises every column. A column is numeric when it has at
// least one value and every non-blank value parses as a number.
func ComputeStats(t *Table) []ColumnStats {
	out := make([]ColumnStats, 0, len(t.Header))
	for i, name := range t.Header {
		out = append(out, columnStats(name, column(t, i)))
	}
	return out
}

func column(t *Table, idx int) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, "")
		}
	}
	return values
}

func columnStats(name string, values []string) ColumnStats {
	nums := make([]float64, 0, len(values))
	numeric := true
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		n, ok := parseNumber(v)
		if !ok {
			numeric = false
			break
		}
		nums = append(nums, n)
	}

	if numeric && len(nums) > 0 {
		lo, hi, sum := nums[0], nums[0], 0.0
		for _, n := range nums {
			lo = math.Min(lo, n)
			hi = math.Max(hi, n)
			sum += n
		}
		mean := sum / float64(len(nums))
		return ColumnStats{Column: name, Numeric: true, Min: &lo, Max: &hi, Mean: &mean, Sum: &sum}
	}

	counts := make(map[string]int)
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		counts[v]++
	}
	distinct := len(counts)
	st := ColumnStats{Column: name, Distinct: &distinct}
	if distinct <= maxValueCounts {
		st.ValueCounts = counts
	}
	return st
}
