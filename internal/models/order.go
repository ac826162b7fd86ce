package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidOrder = errors.New("invalid order")

type OrderMode string

type OrderStatus string

type Order struct {
	ID              string      `json:"id"`
	Timestamp       time.Time   `json:"timestamp"`
	CustomerName    string      `json:"customerName"`
	Mode            OrderMode   `json:"mode"`
	TableNumber     *int        `json:"tableNumber,omitempty"` // dine-in only
	Items           []OrderItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	Discount        float64     `json:"discount"`
	Total           float64     `json:"total"`
	PaymentMethod   string      `json:"paymentMethod"`
	Status          OrderStatus `json:"status"`
	PrepTimeMinutes int         `json:"prepTimeMinutes"`
	CreatedAt       time.Time   `json:"createdAt"`
	CompletedAt     *time.Time  `json:"completedAt,omitempty"`
}

type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Category    string  `json:"category"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// IsCompleted reports whether the order counts toward revenue.
func (o Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// HasCategory reports whether any line item belongs to category.
func (o Order) HasCategory(category string) bool {
	for _, item := range o.Items {
		if item.Category == category {
			return true
		}
	}
	return false
}

// Validate checks the money invariants of an order down to the cent.
func (o Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidOrder)
	}
	if o.Timestamp.IsZero() {
		return fmt.Errorf("%w %s: missing timestamp", ErrInvalidOrder, o.ID)
	}
	switch o.Status {
	case OrderStatusCompleted, OrderStatusPending, OrderStatusCancelled:
	default:
		return fmt.Errorf("%w %s: unknown status %q", ErrInvalidOrder, o.ID, o.Status)
	}
	switch o.Mode {
	case OrderModeDineIn:
	case OrderModeTakeout:
		if o.TableNumber != nil {
			return fmt.Errorf("%w %s: takeout order with table number", ErrInvalidOrder, o.ID)
		}
	default:
		return fmt.Errorf("%w %s: unknown mode %q", ErrInvalidOrder, o.ID, o.Mode)
	}

	subtotal := decimal.NewFromFloat(o.Subtotal)
	discount := decimal.NewFromFloat(o.Discount)
	if discount.IsNegative() || discount.GreaterThan(subtotal) {
		return fmt.Errorf("%w %s: discount %s outside [0, %s]", ErrInvalidOrder, o.ID, discount, subtotal)
	}

	total := subtotal.Add(decimal.NewFromFloat(o.Tax)).Sub(discount)
	if !withinCent(total, decimal.NewFromFloat(o.Total)) {
		return fmt.Errorf("%w %s: total %v does not match subtotal+tax-discount %s", ErrInvalidOrder, o.ID, o.Total, total)
	}

	itemsSum := decimal.Zero
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w %s: item %s has quantity %d", ErrInvalidOrder, o.ID, item.ProductName, item.Quantity)
		}
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !withinCent(line, decimal.NewFromFloat(item.Subtotal)) {
			return fmt.Errorf("%w %s: item %s subtotal %v != %s", ErrInvalidOrder, o.ID, item.ProductName, item.Subtotal, line)
		}
		itemsSum = itemsSum.Add(decimal.NewFromFloat(item.Subtotal))
	}
	if len(o.Items) > 0 && !withinCent(itemsSum, subtotal) {
		return fmt.Errorf("%w %s: items sum %s != subtotal %s", ErrInvalidOrder, o.ID, itemsSum, subtotal)
	}
	return nil
}

var cent = decimal.New(1, -2)

func withinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(cent)
}
