package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/churnboard/internal/aggregate"
	"github.com/KaramelBytes/churnboard/internal/views"
)

// Markdown renders a session snapshot as a compact report.
func Markdown(in views.Inputs, entries []views.Entry) string {
	var b strings.Builder
	b.WriteString("[DASHBOARD]\n")
	dims := make([]string, 0, len(in.Selection))
	for d := range in.Selection {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	for _, d := range dims {
		b.WriteString(fmt.Sprintf("- %s: %s\n", d, in.Selection[d]))
	}
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("\n[%s] (%s)\n", strings.ToUpper(e.ID), e.State))
		if e.Error != "" {
			b.WriteString(fmt.Sprintf("! %s\n", e.Error))
		}
		writeOutput(&b, e.Output)
	}
	return b.String()
}

func writeOutput(b *strings.Builder, out any) {
	switch v := out.(type) {
	case nil:
		b.WriteString("(not computed)\n")
	case string:
		if v == "" {
			b.WriteString("(empty)\n")
			return
		}
		b.WriteString(v + "\n")
	case KPIs:
		if v.NoData {
			b.WriteString("(no matching rows)\n")
		}
		b.WriteString(fmt.Sprintf("- rows: %d\n- avg monthly: $%.2f\n- avg total: $%.2f\n- churn rate: %.2f%%\n- max monthly: $%.2f\n- max total: $%.2f\n",
			v.Rows, v.AvgMonthly, v.AvgTotal, v.ChurnRate, v.MaxMonthly, v.MaxTotal))
	case Chart:
		b.WriteString(v.Title + "\n")
		writeChartData(b, v.Data)
	default:
		b.WriteString(fmt.Sprintf("%v\n", v))
	}
}

func writeChartData(b *strings.Builder, data any) {
	switch v := data.(type) {
	case aggregate.GroupTable:
		for _, g := range v.Groups {
			b.WriteString(fmt.Sprintf("- %s: %.2f (n=%d)\n", g.Key, g.Value, g.Count))
		}
	case aggregate.Stacked:
		for _, s := range v.Series {
			b.WriteString(fmt.Sprintf("- %s\n", s.Key))
			for _, g := range s.Groups {
				b.WriteString(fmt.Sprintf("  • %s: %.2f (n=%d)\n", g.Key, g.Value, g.Count))
			}
		}
	case aggregate.Series:
		b.WriteString(fmt.Sprintf("%d points of %s by %s\n", len(v.Points), v.Y, v.X))
		lim := len(v.Points)
		if lim > 10 {
			lim = 10
		}
		for _, p := range v.Points[:lim] {
			b.WriteString(fmt.Sprintf("- %g: %.2f\n", p.X, p.Y))
		}
	case []aggregate.Point:
		b.WriteString(fmt.Sprintf("%d points\n", len(v)))
	case aggregate.Matrix:
		writeMatrix(b, v)
	}
}

func writeMatrix(b *strings.Builder, m aggregate.Matrix) {
	b.WriteString("| |")
	for _, c := range m.Cols {
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n|---|")
	for range m.Cols {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, r := range m.Rows {
		b.WriteString("| " + r + " |")
		for j := range m.Cols {
			b.WriteString(fmt.Sprintf(" %.2f |", m.Values[i][j]))
		}
		b.WriteString("\n")
	}
}
