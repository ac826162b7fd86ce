package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

func TestBuildSeriesTime(t *testing.T) {
	orders := []models.Order{
		order(day(2026, time.October, 15, 9), 10),
		order(day(2026, time.October, 15, 11), 15),
		order(day(2026, time.October, 12, 9), 30),
		order(day(2026, time.October, 1, 9), 99), // outside the window
		withStatus(order(day(2026, time.October, 14, 9), 50), models.OrderStatusPending),
	}

	points := BuildSeries(orders, SeriesTime, 0, testNow, English)

	require.Len(t, points, 7)
	assert.Equal(t, "09 Oct", points[0].Label)
	assert.Equal(t, "15 Oct", points[6].Label)
	assert.Equal(t, SeriesPoint{Label: "12 Oct", Sales: 30, Orders: 1}, points[3])
	assert.Equal(t, SeriesPoint{Label: "15 Oct", Sales: 25, Orders: 2}, points[6])
	assert.Equal(t, SeriesPoint{Label: "14 Oct"}, points[5])
}

func TestBuildSeriesTimeWindow(t *testing.T) {
	points := BuildSeries(nil, SeriesTime, 14, testNow, Spanish)

	require.Len(t, points, 14)
	assert.Equal(t, "02 Oct", points[0].Label)
	for _, p := range points {
		assert.Zero(t, p.Orders)
	}
}

func TestBuildSeriesCategory(t *testing.T) {
	ts := day(2026, time.October, 15, 9)
	orders := []models.Order{
		order(ts, 0, line("Taco", "food", 2, 3), line("Nachos", "food", 1, 5), line("Soda", "drinks", 1, 2)),
		order(ts, 0, line("Soda", "drinks", 3, 2)),
		withStatus(order(ts, 0, line("Flan", "dessert", 1, 4)), models.OrderStatusCancelled),
	}

	points := BuildSeries(orders, SeriesCategory, 0, testNow, English)

	assert.Equal(t, []SeriesPoint{
		{Label: "food", Sales: 11, Orders: 1},
		{Label: "drinks", Sales: 8, Orders: 2},
	}, points)
}

func TestBuildSeriesPayment(t *testing.T) {
	ts := day(2026, time.October, 15, 9)
	orders := []models.Order{
		withPayment(order(ts, 20), models.PaymentMethodCash),
		order(ts, 35),
		withPayment(order(ts, 5), models.PaymentMethodCash),
	}

	points := BuildSeries(orders, SeriesPayment, 0, testNow, English)

	assert.Equal(t, []SeriesPoint{
		{Label: models.PaymentMethodCash, Sales: 25, Orders: 2},
		{Label: models.PaymentMethodCard, Sales: 35, Orders: 1},
	}, points)
}

func TestBuildSeriesUnknownKind(t *testing.T) {
	points := BuildSeries([]models.Order{order(testNow, 10)}, SeriesKind("hourly"), 0, testNow, English)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}
