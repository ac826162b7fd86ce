package factories

import (
	"time"

	"github.com/lucsky/cuid"
	"github.com/shopspring/decimal"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

type OrderFactory struct {
	src    *Source
	config *models.Config
}

func NewOrderFactory(src *Source, config *models.Config) *OrderFactory {
	return &OrderFactory{src: src, config: config}
}

// CreateOrder builds an order placed at ts. Orders placed after now stay
// pending; older ones are completed unless they roll a cancel or pending.
func (of *OrderFactory) CreateOrder(ts time.Time, customer string, catalog []models.Product, now time.Time) models.Order {
	order := models.Order{
		ID:            cuid.New(),
		Timestamp:     ts,
		CustomerName:  customer,
		Items:         of.pickItems(catalog),
		PaymentMethod: of.pickPaymentMethod(),
		CreatedAt:     ts,
	}

	if of.src.Chance(of.config.TakeoutRate) {
		order.Mode = models.OrderModeTakeout
	} else {
		order.Mode = models.OrderModeDineIn
		table := of.src.IntBetween(1, max(1, of.config.Tables))
		order.TableNumber = &table
	}

	order.Subtotal, order.Tax, order.Discount, order.Total = PriceOrder(order.Items, of.config)
	order.PrepTimeMinutes = of.src.IntBetween(of.config.MinPrepTime, of.config.MaxPrepTime)

	r := of.src.Rng.Float64()
	switch {
	case ts.After(now):
		order.Status = models.OrderStatusPending
	case r < of.config.CancelRate:
		order.Status = models.OrderStatusCancelled
	case r < of.config.CancelRate+of.config.PendingRate:
		order.Status = models.OrderStatusPending
	default:
		order.Status = models.OrderStatusCompleted
		completed := ts.Add(time.Duration(order.PrepTimeMinutes) * time.Minute)
		order.CompletedAt = &completed
	}
	return order
}

// pickItems draws one to four distinct products with quantities of one to
// three.
func (of *OrderFactory) pickItems(catalog []models.Product) []models.OrderItem {
	if len(catalog) == 0 {
		return []models.OrderItem{}
	}
	n := min(of.src.IntBetween(1, 4), len(catalog))
	items := make([]models.OrderItem, 0, n)
	for _, i := range of.src.Rng.Perm(len(catalog))[:n] {
		p := catalog[i]
		qty := of.src.IntBetween(1, 3)
		line := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(qty))).Round(2)
		items = append(items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Category:    p.Category,
			UnitPrice:   p.Price,
			Quantity:    qty,
			Subtotal:    line.InexactFloat64(),
		})
	}
	return items
}

func (of *OrderFactory) pickPaymentMethod() string {
	var total float64
	for _, w := range of.config.PaymentWeights {
		total += w.Weight
	}
	if total <= 0 {
		return models.PaymentMethodCash
	}
	r := of.src.Rng.Float64() * total
	for _, w := range of.config.PaymentWeights {
		if r < w.Weight {
			return w.Method
		}
		r -= w.Weight
	}
	return of.config.PaymentWeights[len(of.config.PaymentWeights)-1].Method
}

// PriceOrder works out the money columns of an order in cents. Tax applies
// to the subtotal; the discount is a percentage of the subtotal granted
// from MinOrderForDiscount upwards and capped at MaxDiscountAmount.
func PriceOrder(items []models.OrderItem, config *models.Config) (subtotal, tax, discount, total float64) {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(decimal.NewFromFloat(item.Subtotal))
	}
	sum = sum.Round(2)

	t := sum.Mul(decimal.NewFromFloat(config.TaxRate)).Round(2)

	d := decimal.Zero
	if config.DiscountPercentage > 0 && sum.GreaterThanOrEqual(decimal.NewFromFloat(config.MinOrderForDiscount)) {
		d = sum.Mul(decimal.NewFromFloat(config.DiscountPercentage)).Round(2)
		if limit := decimal.NewFromFloat(config.MaxDiscountAmount); config.MaxDiscountAmount > 0 && d.GreaterThan(limit) {
			d = limit
		}
		if d.GreaterThan(sum) {
			d = sum
		}
	}

	return sum.InexactFloat64(), t.InexactFloat64(), d.InexactFloat64(), sum.Add(t).Sub(d).InexactFloat64()
}
