package metrics

import (
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

type SeriesKind string

const (
	SeriesTime     SeriesKind = "time"
	SeriesCategory SeriesKind = "category"
	SeriesPayment  SeriesKind = "payment"

	defaultSeriesWindow = 7
)

type SeriesPoint struct {
	Label  string  `json:"label"`
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

// BuildSeries reshapes completed orders into a chart series. For SeriesTime,
// window is the number of trailing calendar days ending today (7 when <= 0);
// it is ignored for the other kinds.
func BuildSeries(orders []models.Order, kind SeriesKind, window int, now time.Time, loc *Locale) []SeriesPoint {
	switch kind {
	case SeriesTime:
		return timeSeries(orders, window, now, loc)
	case SeriesCategory:
		return categorySeries(orders)
	case SeriesPayment:
		return paymentSeries(orders)
	}
	return []SeriesPoint{}
}

func timeSeries(orders []models.Order, window int, now time.Time, loc *Locale) []SeriesPoint {
	if window <= 0 {
		window = defaultSeriesWindow
	}
	today := startOfDay(now)
	points := make([]SeriesPoint, window)
	index := make(map[string]int, window)
	for i := 0; i < window; i++ {
		day := today.AddDate(0, 0, i-window+1)
		points[i].Label = loc.ShortDate(day)
		index[dayKey(day)] = i
	}

	for _, o := range orders {
		if !o.IsCompleted() {
			continue
		}
		i, ok := index[dayKey(o.Timestamp.In(now.Location()))]
		if !ok {
			continue
		}
		points[i].Sales += o.Total
		points[i].Orders++
	}
	return points
}

func categorySeries(orders []models.Order) []SeriesPoint {
	g := newGrouping()
	for _, o := range orders {
		if !o.IsCompleted() {
			continue
		}
		counted := make(map[string]bool, len(o.Items))
		for _, item := range o.Items {
			p := g.point(item.Category)
			p.Sales += item.Subtotal
			if !counted[item.Category] {
				counted[item.Category] = true
				p.Orders++
			}
		}
	}
	return g.points
}

func paymentSeries(orders []models.Order) []SeriesPoint {
	g := newGrouping()
	for _, o := range orders {
		if !o.IsCompleted() {
			continue
		}
		p := g.point(o.PaymentMethod)
		p.Sales += o.Total
		p.Orders++
	}
	return g.points
}

// grouping keeps one point per label in first-seen order.
type grouping struct {
	index  map[string]int
	points []SeriesPoint
}

func newGrouping() *grouping {
	return &grouping{index: make(map[string]int), points: []SeriesPoint{}}
}

func (g *grouping) point(label string) *SeriesPoint {
	i, ok := g.index[label]
	if !ok {
		i = len(g.points)
		g.index[label] = i
		g.points = append(g.points, SeriesPoint{Label: label})
	}
	return &g.points[i]
}
