package aggregate

import (
	"math"
	"testing"

	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/KaramelBytes/churnboard/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioTable() *dataset.Table {
	return dataset.FromRecords(dataset.ColGender, []dataset.Record{
		{Category: "Male", Tenure: 10, MonthlyCharges: 50.00, TotalCharges: 500.00, Churn: "Yes", InternetService: "DSL", Contract: "Month-to-month", PaymentMethod: "Electronic check"},
		{Category: "Male", Tenure: 20, MonthlyCharges: 70.00, TotalCharges: 1400.00, Churn: "No", InternetService: "Fiber optic", Contract: "One year", PaymentMethod: "Mailed check"},
		{Category: "Female", Tenure: 5, MonthlyCharges: 30.00, TotalCharges: 150.00, Churn: "No", InternetService: "DSL", Contract: "Month-to-month", PaymentMethod: "Electronic check"},
	})
}

func subset(t *testing.T, gender string) []dataset.Record {
	t.Helper()
	return filter.Apply(scenarioTable(), filter.Build(filter.Selection{dataset.ColGender: gender}))
}

func TestScenario_Male(t *testing.T) {
	rows := subset(t, "Male")
	assert.Equal(t, 60.00, Mean(dataset.ColMonthlyCharges, rows))
	assert.Equal(t, 950.00, Mean(dataset.ColTotalCharges, rows))
	assert.Equal(t, 50.00, CategoricalRate(dataset.ColChurn, "Yes", rows))
	assert.Equal(t, 70.00, Max(dataset.ColMonthlyCharges, rows))
}

func TestScenario_Female(t *testing.T) {
	rows := subset(t, "Female")
	assert.Equal(t, 0.00, CategoricalRate(dataset.ColChurn, "Yes", rows))
	assert.Equal(t, 30.00, Mean(dataset.ColMonthlyCharges, rows))
}

func TestScenario_UnknownCategoryYieldsSentinels(t *testing.T) {
	rows := subset(t, "Unknown")
	require.Empty(t, rows)
	assert.Equal(t, Empty, Mean(dataset.ColMonthlyCharges, rows))
	assert.Equal(t, Empty, Max(dataset.ColTotalCharges, rows))
	assert.Equal(t, Empty, Sum(dataset.ColTotalCharges, rows))
	assert.Equal(t, Empty, CategoricalRate(dataset.ColChurn, "Yes", rows))
	assert.False(t, MeanOf(dataset.ColMonthlyCharges, rows).Valid)
	assert.False(t, MaxOf(dataset.ColMonthlyCharges, rows).Valid)
	assert.Empty(t, GroupAggregate(dataset.ColContract, dataset.ColMonthlyCharges, SumFunc, rows).Groups)

	m := CorrelationMatrix([]string{dataset.ColTenure, dataset.ColMonthlyCharges}, rows)
	assert.Equal(t, 1.0, m.Values[0][0])
	assert.Equal(t, Empty, m.Values[0][1])
}

func TestCategoricalRate_Bounds(t *testing.T) {
	for _, g := range []string{filter.All, "Male", "Female"} {
		r := CategoricalRate(dataset.ColChurn, "Yes", subset(t, g))
		assert.GreaterOrEqual(t, r, 0.0, g)
		assert.LessOrEqual(t, r, 100.0, g)
	}
	assert.Equal(t, 33.33, CategoricalRate(dataset.ColChurn, "Yes", subset(t, filter.All)))
}

func TestGroupAggregate_SumsMatchUngrouped(t *testing.T) {
	for _, g := range []string{filter.All, "Male", "Female", "Unknown"} {
		rows := subset(t, g)
		want := Sum(dataset.ColMonthlyCharges, rows)
		gt := GroupAggregate(dataset.ColContract, dataset.ColMonthlyCharges, SumFunc, rows)
		assert.InDelta(t, want, gt.Total(), 1e-9, g)
		st := GroupAggregate2(dataset.ColInternetService, dataset.ColContract, dataset.ColMonthlyCharges, SumFunc, rows)
		assert.InDelta(t, want, st.Total(), 1e-9, g)
	}
}

func TestGroupAggregate_StableBuckets(t *testing.T) {
	rows := subset(t, filter.All)
	gt := GroupAggregate(dataset.ColContract, dataset.ColMonthlyCharges, SumFunc, rows)
	require.Len(t, gt.Groups, 2)
	assert.Equal(t, "Month-to-month", gt.Groups[0].Key)
	assert.Equal(t, 80.0, gt.Groups[0].Value)
	assert.Equal(t, 2, gt.Groups[0].Count)

	counts := GroupAggregate(dataset.ColGender, dataset.ColMonthlyCharges, CountFunc, rows)
	male, ok := counts.Lookup("Male")
	require.True(t, ok)
	assert.Equal(t, 2.0, male.Value)

	means := GroupAggregate(dataset.ColGender, dataset.ColTotalCharges, MeanFunc, rows)
	male, _ = means.Lookup("Male")
	assert.Equal(t, 950.0, male.Value)
}

func TestIdempotence(t *testing.T) {
	a := subset(t, "Male")
	b := subset(t, "Male")
	assert.Equal(t, Mean(dataset.ColMonthlyCharges, a), Mean(dataset.ColMonthlyCharges, b))
	assert.Equal(t,
		CorrelationMatrix([]string{dataset.ColTenure, dataset.ColTotalCharges}, a),
		CorrelationMatrix([]string{dataset.ColTenure, dataset.ColTotalCharges}, b))
	assert.Equal(t,
		GroupAggregate2(dataset.ColInternetService, dataset.ColContract, dataset.ColMonthlyCharges, SumFunc, a),
		GroupAggregate2(dataset.ColInternetService, dataset.ColContract, dataset.ColMonthlyCharges, SumFunc, b))
}

func TestCorrelationMatrix(t *testing.T) {
	fields := []string{dataset.ColTenure, dataset.ColMonthlyCharges, dataset.ColTotalCharges}
	m := CorrelationMatrix(fields, subset(t, filter.All))
	for i := range fields {
		assert.Equal(t, 1.0, m.Values[i][i])
		for j := range fields {
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
			assert.False(t, math.IsNaN(m.Values[i][j]))
		}
	}
	r, ok := m.At(dataset.ColTenure, dataset.ColMonthlyCharges)
	require.True(t, ok)
	assert.InDelta(t, 0.982, r, 1e-3)

	single := CorrelationMatrix(fields, subset(t, "Female"))
	assert.Equal(t, Empty, single.Values[1][2])

	// Two identical tenures: zero variance must not leak NaN.
	flat := []dataset.Record{{Tenure: 3, MonthlyCharges: 1}, {Tenure: 3, MonthlyCharges: 2}}
	assert.Equal(t, Empty, CorrelationMatrix(fields[:2], flat).Values[0][1])
}

func TestDensity(t *testing.T) {
	m := Density(dataset.ColInternetService, dataset.ColPaymentMethod, dataset.ColMonthlyCharges, subset(t, filter.All))
	assert.Equal(t, []string{"DSL", "Fiber optic"}, m.Cols)
	assert.Equal(t, []string{"Electronic check", "Mailed check"}, m.Rows)
	v, ok := m.At("Electronic check", "DSL")
	require.True(t, ok)
	assert.Equal(t, 80.0, v)
	v, _ = m.At("Electronic check", "Fiber optic")
	assert.Zero(t, v)
}

func TestSeriesAndPoints(t *testing.T) {
	rows := subset(t, filter.All)
	s := SeriesBy(dataset.ColTenure, dataset.ColMonthlyCharges, rows)
	require.Len(t, s.Points, 3)
	assert.Equal(t, XY{X: 5, Y: 30}, s.Points[0])
	assert.Equal(t, XY{X: 20, Y: 70}, s.Points[2])

	pts := Points(dataset.ColTenure, dataset.ColTotalCharges, dataset.ColMonthlyCharges, dataset.ColInternetService, rows)
	require.Len(t, pts, 3)
	assert.Equal(t, Point{X: 10, Y: 500, Size: 50, Color: "DSL"}, pts[0])
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.235000001))
	assert.Equal(t, Empty, Round2(math.NaN()))
}
