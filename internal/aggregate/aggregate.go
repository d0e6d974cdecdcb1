// Package aggregate computes scalar and chart-ready aggregates over filtered
// record subsets. Every function is pure and safe for concurrent use.
//
// Empty subsets never yield NaN: numeric aggregates return Empty (0) and the
// *Of variants report Valid=false so callers can tell "no data" from a real 0.
package aggregate

import (
	"math"

	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/montanaflynn/stats"
)

// Empty is the sentinel returned for aggregates over an empty subset.
const Empty = 0.0

// Result is a scalar aggregate with an explicit validity flag.
type Result struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Round2 rounds to two decimal places for display.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return Empty
	}
	return math.Round(x*100) / 100
}

// values extracts the numeric column field from rows, skipping rows where the
// column is not numeric.
func values(field string, rows []dataset.Record) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Number(field); ok {
			out = append(out, v)
		}
	}
	return out
}

// MeanOf is Mean with validity.
func MeanOf(field string, rows []dataset.Record) Result {
	m, err := stats.Mean(values(field, rows))
	if err != nil {
		return Result{Value: Empty}
	}
	return Result{Value: Round2(m), Valid: true}
}

// Mean is the arithmetic mean of field, rounded to 2 decimals.
func Mean(field string, rows []dataset.Record) float64 { return MeanOf(field, rows).Value }

// MaxOf is Max with validity.
func MaxOf(field string, rows []dataset.Record) Result {
	m, err := stats.Max(values(field, rows))
	if err != nil {
		return Result{Value: Empty}
	}
	return Result{Value: Round2(m), Valid: true}
}

// Max is the maximum of field, rounded to 2 decimals.
func Max(field string, rows []dataset.Record) float64 { return MaxOf(field, rows).Value }

// Sum is the unrounded sum of field; Empty for no rows.
func Sum(field string, rows []dataset.Record) float64 {
	s, err := stats.Sum(values(field, rows))
	if err != nil {
		return Empty
	}
	return s
}

// CategoricalRate is the percentage of rows whose field equals target,
// rounded to 2 decimals. It is 0 for an empty subset.
func CategoricalRate(field, target string, rows []dataset.Record) float64 {
	if len(rows) == 0 {
		return Empty
	}
	var hits int
	for _, r := range rows {
		if r.Value(field) == target {
			hits++
		}
	}
	return Round2(float64(hits) / float64(len(rows)) * 100)
}
