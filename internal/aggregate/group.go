package aggregate

import (
	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/montanaflynn/stats"
)

// Func names the aggregation applied to each group.
type Func string

const (
	SumFunc   Func = "sum"
	MeanFunc  Func = "mean"
	CountFunc Func = "count"
	MaxFunc   Func = "max"
)

func (f Func) apply(vals stats.Float64Data, n int) float64 {
	var (
		v   float64
		err error
	)
	switch f {
	case CountFunc:
		return float64(n)
	case MeanFunc:
		v, err = stats.Mean(vals)
	case MaxFunc:
		v, err = stats.Max(vals)
	default:
		v, err = stats.Sum(vals)
	}
	if err != nil {
		return Empty
	}
	return v
}

// Group is one bucket of a grouped aggregate.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// GroupTable is a chart-ready list of (key, value) pairs.
type GroupTable struct {
	GroupBy string  `json:"group_by"`
	Field   string  `json:"field"`
	Func    Func    `json:"func"`
	Groups  []Group `json:"groups"`
}

// Total sums the group values.
func (g GroupTable) Total() float64 {
	var t float64
	for _, gr := range g.Groups {
		t += gr.Value
	}
	return t
}

// Lookup returns the group with key.
func (g GroupTable) Lookup(key string) (Group, bool) {
	for _, gr := range g.Groups {
		if gr.Key == key {
			return gr, true
		}
	}
	return Group{}, false
}

// partition buckets rows by the value of field. A key always maps to the
// same bucket; buckets are ordered by first appearance.
func partition(field string, rows []dataset.Record) ([]string, map[string][]dataset.Record) {
	buckets := make(map[string][]dataset.Record)
	var order []string
	for _, r := range rows {
		k := r.Value(field)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}
	return order, buckets
}

// GroupAggregate partitions rows by groupBy and aggregates field per group.
func GroupAggregate(groupBy, field string, fn Func, rows []dataset.Record) GroupTable {
	out := GroupTable{GroupBy: groupBy, Field: field, Func: fn}
	order, buckets := partition(groupBy, rows)
	for _, k := range order {
		b := buckets[k]
		out.Groups = append(out.Groups, Group{Key: k, Value: fn.apply(values(field, b), len(b)), Count: len(b)})
	}
	return out
}

// Stacked is a two-level grouping: one GroupTable over inner per outer key.
type Stacked struct {
	Outer  string         `json:"outer"`
	Inner  string         `json:"inner"`
	Field  string         `json:"field"`
	Func   Func           `json:"func"`
	Series []StackedGroup `json:"series"`
}

// StackedGroup holds the inner groups of one outer key.
type StackedGroup struct {
	Key    string  `json:"key"`
	Groups []Group `json:"groups"`
}

// Total sums every inner group value.
func (s Stacked) Total() float64 {
	var t float64
	for _, sg := range s.Series {
		for _, g := range sg.Groups {
			t += g.Value
		}
	}
	return t
}

// GroupAggregate2 groups by outer, then by inner within each outer bucket.
func GroupAggregate2(outer, inner, field string, fn Func, rows []dataset.Record) Stacked {
	out := Stacked{Outer: outer, Inner: inner, Field: field, Func: fn}
	order, buckets := partition(outer, rows)
	for _, k := range order {
		gt := GroupAggregate(inner, field, fn, buckets[k])
		out.Series = append(out.Series, StackedGroup{Key: k, Groups: gt.Groups})
	}
	return out
}
