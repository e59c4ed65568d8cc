// Package mathutil provides common numerical helpers and descriptive
// statistics.
package mathutil

import (
	"encoding/json"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Summary describes the distribution of a sample.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
}

// Empty reports whether the summary describes no observations.
func (s Summary) Empty() bool {
	return s.Count == 0
}

// Describe summarizes x. The standard deviation is the unbiased estimate and
// is NaN for fewer than two observations; all statistics are NaN for an
// empty sample.
func Describe(x []float64) Summary {
	if len(x) == 0 {
		nan := math.NaN()
		return Summary{Mean: nan, StdDev: nan, Q25: nan, Median: nan, Q75: nan}
	}

	sorted := slices.Clone(x)
	slices.Sort(sorted)

	s := Summary{
		Count:  len(x),
		Mean:   stat.Mean(sorted, nil),
		StdDev: math.NaN(),
		Q25:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		Median: stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		Q75:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s
}

// Select returns the elements of x whose mask entry equals want.
func Select(x []float64, mask []int, want int) []float64 {
	var out []float64
	for i, v := range x {
		if mask[i] == want {
			out = append(out, v)
		}
	}
	return out
}

// MarshalJSON encodes undefined statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		StdDev *float64 `json:"stdDev"`
		Q25    *float64 `json:"q25"`
		Median *float64 `json:"median"`
		Q75    *float64 `json:"q75"`
	}{
		Count:  s.Count,
		Mean:   defined(s.Mean),
		StdDev: defined(s.StdDev),
		Q25:    defined(s.Q25),
		Median: defined(s.Median),
		Q75:    defined(s.Q75),
	})
}

func defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
