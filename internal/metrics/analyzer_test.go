package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sampleOrders() []models.Order {
	return []models.Order{
		withCustomer(order(day(2026, time.October, 15, 9), 0, line("Taco", "food", 2, 3)), "Ana"),
		withCustomer(order(day(2026, time.October, 14, 13), 0, line("Soda", "drinks", 1, 2)), "Ana"),
		withCustomer(order(day(2026, time.October, 12, 20), 0, line("Taco", "food", 1, 3), line("Flan", "dessert", 1, 4)), "Ana"),
		withPayment(order(day(2026, time.September, 30, 13), 0, line("Nachos", "food", 3, 5)), models.PaymentMethodCash),
		withStatus(order(day(2026, time.October, 15, 10), 0, line("Taco", "food", 9, 3)), models.OrderStatusCancelled),
	}
}

func TestDashboardMatchesIndividualCalls(t *testing.T) {
	orders := sampleOrders()
	catalog := []models.Product{
		{ID: "p-Taco", Name: "Taco", Category: "food", Price: 3},
		{ID: "p-Soda", Name: "Soda", Category: "drinks", Price: 2},
		{ID: "p-Mole", Name: "Mole", Category: "food", Price: 12},
	}
	filter := models.Filter{Anchor: models.AnchorLastMonth}
	a := NewAnalyzer(models.DefaultScoringConfig(), WithClock(fixedClock(testNow)), WithLocale(Spanish))

	d, err := a.Dashboard(context.Background(), orders, catalog, filter, models.PeriodMonth)

	require.NoError(t, err)
	assert.Equal(t, testNow, d.GeneratedAt)
	assert.Equal(t, a.KPIs(orders, models.PeriodMonth), d.KPIs)
	assert.Equal(t, a.Series(orders, SeriesTime, 7), d.TimeSeries)
	assert.Equal(t, a.Series(orders, SeriesCategory, 0), d.CategorySeries)
	assert.Equal(t, a.Series(orders, SeriesPayment, 0), d.PaymentSeries)
	assert.Equal(t, a.Compare(orders, filter), d.Comparison)
	assert.Equal(t, a.Patterns(orders, filter), d.Patterns)
	assert.Equal(t, a.Underperforming(orders, catalog, filter), d.Underperforming)

	assert.Equal(t, 4, d.KPIs.TotalOrders)
	assert.Equal(t, "Octubre 2026", d.Comparison.SeasonalComparison.Labels.Current)
	assert.Equal(t, "Mole", d.Underperforming.AllProducts[0].Name)
}

func TestDashboardScopesKPIsAndSeriesByFilter(t *testing.T) {
	orders := []models.Order{
		withPayment(order(day(2026, time.October, 15, 12), 60, line("Taco", "food", 20, 3)), models.PaymentMethodCash),
		order(day(2026, time.October, 15, 13), 0, line("Mole", "food", 25, 20)),
	}
	filter := models.Filter{PaymentMethod: models.PaymentMethodCash}
	a := NewAnalyzer(models.DefaultScoringConfig(), WithClock(fixedClock(testNow)))

	d, err := a.Dashboard(context.Background(), orders, nil, filter, models.PeriodToday)

	require.NoError(t, err)
	assert.Equal(t, 60.0, d.KPIs.TotalSales)
	assert.Equal(t, 1, d.KPIs.TotalOrders)
	require.Len(t, d.PaymentSeries, 1)
	assert.Equal(t, models.PaymentMethodCash, d.PaymentSeries[0].Label)
	assert.Equal(t, 60.0, d.PaymentSeries[0].Sales)
	require.Len(t, d.CategorySeries, 1)
	assert.Equal(t, 60.0, d.CategorySeries[0].Sales)
	var daily float64
	for _, pt := range d.TimeSeries {
		daily += pt.Sales
	}
	assert.Equal(t, 60.0, daily)
	require.Len(t, d.Patterns.PeakHours, 1)
	assert.Equal(t, d.KPIs.TotalSales, d.Patterns.PeakHours[0].Sales)
}

func TestDashboardCustomPeriodUsesRange(t *testing.T) {
	orders := []models.Order{
		order(day(2026, time.October, 2, 12), 40),
		order(day(2026, time.October, 9, 12), 70),
	}
	filter := models.Filter{DateRange: rangeOf(day(2026, time.October, 1, 0), endOfDay(day(2026, time.October, 5, 0)))}
	a := NewAnalyzer(models.DefaultScoringConfig(), WithClock(fixedClock(testNow)))

	d, err := a.Dashboard(context.Background(), orders, nil, filter, models.PeriodCustom)

	require.NoError(t, err)
	assert.Equal(t, 40.0, d.KPIs.TotalSales)
	assert.Equal(t, 1, d.KPIs.TotalOrders)
}

func TestDashboardCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := NewAnalyzer(models.DefaultScoringConfig(), WithClock(fixedClock(testNow)))
	d, err := a.Dashboard(ctx, sampleOrders(), nil, models.Filter{}, models.PeriodToday)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, d)
}

func TestAnalyzerReadsClockOncePerCall(t *testing.T) {
	calls := 0
	clock := func() time.Time {
		calls++
		return testNow.Add(time.Duration(calls) * time.Hour)
	}
	a := NewAnalyzer(models.DefaultScoringConfig(), WithClock(clock))

	_, err := a.Dashboard(context.Background(), sampleOrders(), nil, models.Filter{}, models.PeriodWeek)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	a.Compare(sampleOrders(), models.Filter{})
	assert.Equal(t, 2, calls)
}

func TestNewAnalyzerDefaults(t *testing.T) {
	a := NewAnalyzer(models.ScoringConfig{}, WithClock(nil), WithLocale(nil))

	assert.Same(t, English, a.Locale())
	assert.WithinDuration(t, time.Now(), a.clock(), time.Minute)
}

func TestAnalyzerIdempotent(t *testing.T) {
	a := NewAnalyzer(models.DefaultScoringConfig(), WithClock(fixedClock(testNow)))
	orders := sampleOrders()
	filter := models.Filter{DateRange: rangeOf(day(2026, time.September, 1, 0), day(2026, time.October, 15, 23))}

	first, err := a.Dashboard(context.Background(), orders, nil, filter, models.PeriodCustom)
	require.NoError(t, err)
	second, err := a.Dashboard(context.Background(), orders, nil, filter, models.PeriodCustom)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
