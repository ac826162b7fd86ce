package metrics

import (
	"sort"
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

const topProductsLimit = 5

type ProductSales struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type KPIs struct {
	TotalSales    float64        `json:"totalSales"`
	TotalOrders   int            `json:"totalOrders"`
	AverageTicket float64        `json:"averageTicket"`
	TopProducts   []ProductSales `json:"topProducts"`
	TotalTax      float64        `json:"totalTax"`
	TotalDiscount float64        `json:"totalDiscount"`
}

// CalculateKPIs reduces the completed orders of a period to headline figures.
// PeriodCustom expects the caller to have narrowed the orders already.
func CalculateKPIs(orders []models.Order, period models.Period, now time.Time) KPIs {
	window, narrow := periodWindow(period, now)

	var k KPIs
	tally := newProductTally()
	for _, o := range orders {
		if !o.IsCompleted() {
			continue
		}
		if narrow && !window.Contains(o.Timestamp) {
			continue
		}
		k.TotalSales += o.Total
		k.TotalOrders++
		k.TotalTax += o.Tax
		k.TotalDiscount += o.Discount
		for _, item := range o.Items {
			tally.add(item.ProductName, item.Quantity, item.Subtotal)
		}
	}
	k.AverageTicket = ratio(k.TotalSales, float64(k.TotalOrders))
	k.TopProducts = tally.top(topProductsLimit)
	return k
}

func periodWindow(period models.Period, now time.Time) (models.DateRange, bool) {
	switch period {
	case models.PeriodToday:
		return dayWindow(now), true
	case models.PeriodWeek:
		return trailing(now, 7), true
	case models.PeriodMonth:
		return trailing(now, 30), true
	}
	return models.DateRange{}, false
}

// productTally aggregates by product name and remembers first-seen order.
type productTally struct {
	index map[string]int
	rows  []ProductSales
}

func newProductTally() *productTally {
	return &productTally{index: make(map[string]int)}
}

func (t *productTally) add(name string, quantity int, revenue float64) {
	i, ok := t.index[name]
	if !ok {
		i = len(t.rows)
		t.index[name] = i
		t.rows = append(t.rows, ProductSales{Name: name})
	}
	t.rows[i].Quantity += quantity
	t.rows[i].Revenue += revenue
}

func (t *productTally) top(n int) []ProductSales {
	out := make([]ProductSales, len(t.rows))
	copy(out, t.rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity > out[j].Quantity
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
