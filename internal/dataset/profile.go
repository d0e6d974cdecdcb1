package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name   string
	Kind   string // numeric|categorical
	Unique int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []CategoryCount
}

// CategoryCount is one categorical value and its frequency.
type CategoryCount struct {
	Value string
	Count int
}

// Profile is a markdown-friendly summary of a loaded base table.
type Profile struct {
	Name    string
	Input   int
	Rows    int
	Dropped int
	Cols    []ColumnSummary
}

var numericColumns = map[string]bool{ColTenure: true, ColMonthlyCharges: true, ColTotalCharges: true}

// Summarize profiles every column of t.
func Summarize(t *Table) *Profile {
	p := &Profile{Name: t.name, Input: t.inputRows, Rows: t.Len(), Dropped: t.Dropped()}
	for _, col := range t.header {
		if numericColumns[col] {
			p.Cols = append(p.Cols, summarizeNumeric(t, col))
			continue
		}
		p.Cols = append(p.Cols, summarizeCategorical(t, col))
	}
	return p
}

func summarizeNumeric(t *Table, col string) ColumnSummary {
	data := make(stats.Float64Data, 0, t.Len())
	for _, r := range t.records {
		if v, ok := r.Number(col); ok {
			data = append(data, v)
		}
	}
	s := ColumnSummary{Name: col, Kind: "numeric"}
	if len(data) == 0 {
		return s
	}
	s.Min, _ = stats.Min(data)
	s.Max, _ = stats.Max(data)
	s.Mean, _ = stats.Mean(data)
	if len(data) > 1 {
		s.Std, _ = stats.StandardDeviationSample(data)
	}
	return s
}

func summarizeCategorical(t *Table, col string) ColumnSummary {
	counts := make(map[string]int)
	for _, r := range t.records {
		counts[r.Value(col)]++
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	unique := len(tops)
	if len(tops) > 8 {
		tops = tops[:8]
	}
	return ColumnSummary{Name: col, Kind: "categorical", Unique: unique, TopValues: tops}
}

// Markdown renders a compact profile.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d (read %d, dropped %d)\n", p.Rows, p.Input, p.Dropped))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s", c.Name, c.Kind))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if p.Dropped > 0 {
		b.WriteString("\n[NOTES]\n")
		b.WriteString(fmt.Sprintf("- %d rows excluded: %s not numeric\n", p.Dropped, ColTotalCharges))
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
