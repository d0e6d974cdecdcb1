package dashboard

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/churnboard/internal/aggregate"
	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/KaramelBytes/churnboard/internal/filter"
	"github.com/KaramelBytes/churnboard/internal/views"
)

// View identifiers.
const (
	ViewHome         = "home"
	ViewBar          = "bar_chart"
	ViewPie          = "pie_chart"
	ViewLine         = "line_chart"
	ViewScatter      = "scatter_chart"
	ViewInsight      = "insight"
	ViewMoreInsights = "more_insights"
	ViewKPIs         = "kpis"
	ViewHeatmap      = "heatmap"
	ViewCorrelation  = "correlation"
)

const welcome = "Welcome! Use the tabs to explore insights about Telco customers."

// CorrelationFields are the numeric columns of the correlation view.
var CorrelationFields = []string{dataset.ColTenure, dataset.ColMonthlyCharges, dataset.ColTotalCharges}

// Chart is a chart-ready dataset with a title.
type Chart struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Data  any    `json:"data"`
}

// KPIs are the scalar panel values for the current category.
type KPIs struct {
	Rows       int     `json:"rows"`
	AvgMonthly float64 `json:"avg_monthly"`
	AvgTotal   float64 `json:"avg_total"`
	ChurnRate  float64 `json:"churn_rate"`
	MaxMonthly float64 `json:"max_monthly"`
	MaxTotal   float64 `json:"max_total"`
	// NoData is set when the selection matched no rows and every value is the empty sentinel.
	NoData bool `json:"no_data"`
}

// Views returns the full view catalog. Every call returns fresh closures over
// the shared read-only table.
func (d *Dashboard) Views() []views.View {
	cat := d.table.CategoryColumn()
	byCategory := []string{cat}
	return []views.View{
		{ID: ViewHome, Compute: func(context.Context, views.Inputs) (any, error) { return welcome, nil }},
		{ID: ViewBar, Deps: byCategory, Compute: d.barChart},
		{ID: ViewPie, Deps: byCategory, Compute: d.pieChart},
		{ID: ViewLine, Deps: byCategory, Compute: d.lineChart},
		{ID: ViewScatter, Deps: byCategory, Compute: d.scatterChart},
		{ID: ViewInsight, Deps: byCategory, Compute: d.insight},
		{ID: ViewMoreInsights, Deps: []string{cat, MoreInsights}, Compute: d.moreInsights},
		{ID: ViewKPIs, Deps: byCategory, Compute: d.kpis},
		{ID: ViewHeatmap, Compute: d.heatmap},
		{ID: ViewCorrelation, Deps: d.Dimensions(), Compute: d.correlation},
	}
}

// rows filters the table on the given dimensions only, so a view never reads
// a filter it did not declare.
func (d *Dashboard) rows(in views.Inputs, dims ...string) []dataset.Record {
	sel := filter.Selection{}
	for _, dim := range dims {
		sel[dim] = in.Selection[dim]
	}
	return filter.Apply(d.table, filter.Build(sel))
}

func (d *Dashboard) category(in views.Inputs) string {
	v := in.Selection[d.table.CategoryColumn()]
	if v == "" {
		return filter.All
	}
	return v
}

func (d *Dashboard) barChart(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.table.CategoryColumn())
	return Chart{
		Kind:  "bar",
		Title: fmt.Sprintf("Monthly Charges by Internet Service (%s)", d.category(in)),
		Data:  aggregate.GroupAggregate2(dataset.ColInternetService, dataset.ColContract, dataset.ColMonthlyCharges, aggregate.SumFunc, rows),
	}, nil
}

func (d *Dashboard) pieChart(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.table.CategoryColumn())
	return Chart{
		Kind:  "pie",
		Title: fmt.Sprintf("Contract Type Distribution (%s)", d.category(in)),
		Data:  aggregate.GroupAggregate(dataset.ColContract, dataset.ColMonthlyCharges, aggregate.SumFunc, rows),
	}, nil
}

func (d *Dashboard) lineChart(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.table.CategoryColumn())
	return Chart{
		Kind:  "line",
		Title: fmt.Sprintf("Monthly Charges over Tenure (%s)", d.category(in)),
		Data:  aggregate.SeriesBy(dataset.ColTenure, dataset.ColMonthlyCharges, rows),
	}, nil
}

func (d *Dashboard) scatterChart(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.table.CategoryColumn())
	return Chart{
		Kind:  "scatter",
		Title: fmt.Sprintf("Total vs Tenure (%s)", d.category(in)),
		Data:  aggregate.Points(dataset.ColTenure, dataset.ColTotalCharges, dataset.ColMonthlyCharges, dataset.ColInternetService, rows),
	}, nil
}

func (d *Dashboard) insight(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.table.CategoryColumn())
	return fmt.Sprintf("For %s customers, average monthly charges are $%.2f, average total charges are $%.2f.",
		d.category(in),
		aggregate.Mean(dataset.ColMonthlyCharges, rows),
		aggregate.Mean(dataset.ColTotalCharges, rows)), nil
}

// moreInsights stays empty until the trigger has fired at least once.
func (d *Dashboard) moreInsights(_ context.Context, in views.Inputs) (any, error) {
	if in.Count(MoreInsights) == 0 {
		return "", nil
	}
	rows := d.rows(in, d.table.CategoryColumn())
	return fmt.Sprintf("Additional Insights: Churn Rate = %.2f%%, Max Monthly Charges = $%.2f, Max Total Charges = $%.2f",
		aggregate.CategoricalRate(dataset.ColChurn, "Yes", rows),
		aggregate.Max(dataset.ColMonthlyCharges, rows),
		aggregate.Max(dataset.ColTotalCharges, rows)), nil
}

func (d *Dashboard) kpis(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.table.CategoryColumn())
	return KPIs{
		Rows:       len(rows),
		AvgMonthly: aggregate.Mean(dataset.ColMonthlyCharges, rows),
		AvgTotal:   aggregate.Mean(dataset.ColTotalCharges, rows),
		ChurnRate:  aggregate.CategoricalRate(dataset.ColChurn, "Yes", rows),
		MaxMonthly: aggregate.Max(dataset.ColMonthlyCharges, rows),
		MaxTotal:   aggregate.Max(dataset.ColTotalCharges, rows),
		NoData:     len(rows) == 0,
	}, nil
}

// heatmap covers the whole table and depends on no filter.
func (d *Dashboard) heatmap(_ context.Context, in views.Inputs) (any, error) {
	return Chart{
		Kind:  "heatmap",
		Title: "Heatmap of Monthly Charges by Service & Payment",
		Data:  aggregate.Density(dataset.ColInternetService, dataset.ColPaymentMethod, dataset.ColMonthlyCharges, d.rows(in)),
	}, nil
}

func (d *Dashboard) correlation(_ context.Context, in views.Inputs) (any, error) {
	rows := d.rows(in, d.Dimensions()...)
	return Chart{
		Kind:  "correlation",
		Title: fmt.Sprintf("Correlation of Tenure and Charges (%s)", d.category(in)),
		Data:  aggregate.CorrelationMatrix(CorrelationFields, rows),
	}, nil
}
