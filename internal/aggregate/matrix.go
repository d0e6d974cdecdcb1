package aggregate

import (
	"math"
	"sort"

	"github.com/KaramelBytes/churnboard/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Matrix is a labelled dense matrix, row-major: Values[i][j] is (Rows[i], Cols[j]).
type Matrix struct {
	Rows   []string    `json:"rows"`
	Cols   []string    `json:"cols"`
	Values [][]float64 `json:"values"`
}

// At returns the cell for the given labels.
func (m Matrix) At(row, col string) (float64, bool) {
	i, j := indexOf(m.Rows, row), indexOf(m.Cols, col)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}

func newMatrix(rows, cols []string) Matrix {
	vals := make([][]float64, len(rows))
	for i := range vals {
		vals[i] = make([]float64, len(cols))
	}
	return Matrix{Rows: rows, Cols: cols, Values: vals}
}

// Density builds a heatmap table: columns are xField categories, rows are
// yField categories and each cell sums zField. Labels keep first-appearance order.
func Density(xField, yField, zField string, rows []dataset.Record) Matrix {
	xs, _ := partition(xField, rows)
	ys, _ := partition(yField, rows)
	m := newMatrix(ys, xs)
	xi := make(map[string]int, len(xs))
	for i, x := range xs {
		xi[x] = i
	}
	yi := make(map[string]int, len(ys))
	for i, y := range ys {
		yi[y] = i
	}
	for _, r := range rows {
		z, ok := r.Number(zField)
		if !ok {
			continue
		}
		m.Values[yi[r.Value(yField)]][xi[r.Value(xField)]] += z
	}
	return m
}

// CorrelationMatrix returns pairwise Pearson correlations across fields. The
// matrix is symmetric with a diagonal of 1. Off-diagonal cells are Empty when
// fewer than 2 rows are given or a field has zero variance.
func CorrelationMatrix(fields []string, rows []dataset.Record) Matrix {
	m := newMatrix(fields, fields)
	cols := make([][]float64, len(fields))
	for i, f := range fields {
		cols[i] = make([]float64, len(rows))
		for k, r := range rows {
			v, _ := r.Number(f)
			cols[i][k] = v
		}
	}
	for i := range fields {
		m.Values[i][i] = 1
		for j := 0; j < i; j++ {
			r := Empty
			if len(rows) >= 2 {
				r = stat.Correlation(cols[i], cols[j], nil)
				if math.IsNaN(r) || math.IsInf(r, 0) {
					r = Empty
				}
				r = math.Max(-1, math.Min(1, r))
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// XY is one point of a line series.
type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a line-chart series.
type Series struct {
	X      string `json:"x"`
	Y      string `json:"y"`
	Points []XY   `json:"points"`
}

// SeriesBy averages yField for every distinct xField value, ascending by x.
func SeriesBy(xField, yField string, rows []dataset.Record) Series {
	type acc struct {
		sum float64
		n   int
	}
	byX := make(map[float64]*acc)
	for _, r := range rows {
		x, okx := r.Number(xField)
		y, oky := r.Number(yField)
		if !okx || !oky {
			continue
		}
		a := byX[x]
		if a == nil {
			a = &acc{}
			byX[x] = a
		}
		a.sum += y
		a.n++
	}
	out := Series{X: xField, Y: yField, Points: make([]XY, 0, len(byX))}
	for x, a := range byX {
		out.Points = append(out.Points, XY{X: x, Y: a.sum / float64(a.n)})
	}
	sort.Slice(out.Points, func(i, j int) bool { return out.Points[i].X < out.Points[j].X })
	return out
}

// Point is one scatter marker.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// Points projects rows onto scatter markers in row order.
func Points(xField, yField, sizeField, colorField string, rows []dataset.Record) []Point {
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		x, _ := r.Number(xField)
		y, _ := r.Number(yField)
		s, _ := r.Number(sizeField)
		out = append(out, Point{X: x, Y: y, Size: s, Color: r.Value(colorField)})
	}
	return out
}
