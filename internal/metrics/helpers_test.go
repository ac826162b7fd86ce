package metrics

import (
	"fmt"
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

// Thursday afternoon.
var testNow = time.Date(2026, time.October, 15, 14, 0, 0, 0, time.UTC)

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func line(name, category string, quantity int, price float64) models.OrderItem {
	return models.OrderItem{
		ProductID:   "p-" + name,
		ProductName: name,
		Category:    category,
		UnitPrice:   price,
		Quantity:    quantity,
		Subtotal:    price * float64(quantity),
	}
}

var orderSeq int

// order builds a completed order whose total is the sum of its lines, or
// total when no lines are given.
func order(ts time.Time, total float64, items ...models.OrderItem) models.Order {
	orderSeq++
	subtotal := total
	if len(items) > 0 {
		subtotal = 0
		for _, item := range items {
			subtotal += item.Subtotal
		}
	}
	return models.Order{
		ID:            fmt.Sprintf("o-%d", orderSeq),
		Timestamp:     ts,
		Mode:          models.OrderModeTakeout,
		Items:         items,
		Subtotal:      subtotal,
		Total:         subtotal,
		PaymentMethod: models.PaymentMethodCard,
		Status:        models.OrderStatusCompleted,
		CreatedAt:     ts,
	}
}

func withStatus(o models.Order, s models.OrderStatus) models.Order {
	o.Status = s
	return o
}

func withCustomer(o models.Order, name string) models.Order {
	o.CustomerName = name
	return o
}

func withPayment(o models.Order, method string) models.Order {
	o.PaymentMethod = method
	return o
}

func rangeOf(start, end time.Time) *models.DateRange {
	return &models.DateRange{Start: start, End: end}
}
