package filter

import (
	"sort"

	"github.com/KaramelBytes/churnboard/internal/dataset"
)

// All is the selection sentinel meaning "no restriction on this dimension".
const All = "All"

// Selection maps a dimension (column identifier) to the selected value or All.
type Selection map[string]string

// Clone returns an independent copy of s.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Dimensions returns the restricted dimensions in sorted order.
func (s Selection) Dimensions() []string {
	dims := make([]string, 0, len(s))
	for d, v := range s {
		if v != "" && v != All {
			dims = append(dims, d)
		}
	}
	sort.Strings(dims)
	return dims
}

// Predicate accepts or rejects a record.
type Predicate func(dataset.Record) bool

// Build turns a selection into a predicate. Dimensions are AND-combined and
// values match exactly (case-sensitive). All or empty values accept everything.
func Build(sel Selection) Predicate {
	type clause struct{ dim, value string }
	var clauses []clause
	for _, dim := range sel.Dimensions() {
		clauses = append(clauses, clause{dim: dim, value: sel[dim]})
	}
	if len(clauses) == 0 {
		return func(dataset.Record) bool { return true }
	}
	return func(r dataset.Record) bool {
		for _, c := range clauses {
			if r.Value(c.dim) != c.value {
				return false
			}
		}
		return true
	}
}

// Apply returns the records of t accepted by p, in table order.
func Apply(t *dataset.Table, p Predicate) []dataset.Record {
	out := make([]dataset.Record, 0, t.Len())
	t.Each(func(r dataset.Record) bool {
		if p(r) {
			out = append(out, r)
		}
		return true
	})
	return out
}

// Resolve fills every dimension in dims that has no selected value with the
// first category observed for that column in t. Explicit values, including
// All and values unknown to t, are kept as-is.
func Resolve(sel Selection, dims []string, t *dataset.Table) Selection {
	out := sel.Clone()
	for _, dim := range dims {
		if out[dim] != "" {
			continue
		}
		if cats := t.Categories(dim); len(cats) > 0 {
			out[dim] = cats[0]
		} else {
			out[dim] = All
		}
	}
	return out
}

// Known reports whether value is All or occurs in column dim of t.
func Known(t *dataset.Table, dim, value string) bool {
	return value == "" || value == All || t.Has(dim, value)
}
