package factories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

func testConfig() *models.Config {
	return &models.Config{
		Tables:              10,
		TakeoutRate:         0.4,
		CancelRate:          0.05,
		PendingRate:         0.05,
		TaxRate:             0.16,
		DiscountPercentage:  0.1,
		MinOrderForDiscount: 40,
		MaxDiscountAmount:   15,
		MinPrepTime:         5,
		MaxPrepTime:         30,
		PaymentWeights: []models.PaymentWeight{
			{Method: models.PaymentMethodCard, Weight: 0.6},
			{Method: models.PaymentMethodCash, Weight: 0.4},
		},
	}
}

func TestCreateCatalogIsUniqueAndSeeded(t *testing.T) {
	a, err := NewProductFactory(NewSource(7)).CreateCatalog(40)
	require.NoError(t, err)
	b, err := NewProductFactory(NewSource(7)).CreateCatalog(40)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	names := make(map[string]bool)
	for _, p := range a {
		assert.False(t, names[p.Name], "duplicate name %q", p.Name)
		names[p.Name] = true
		assert.Contains(t, MenuCategories, p.Category)
		r := priceRanges[p.Category]
		assert.GreaterOrEqual(t, p.Price, r[0])
		assert.LessOrEqual(t, p.Price, r[1])
		assert.Len(t, p.ID, 36)
	}
}

func TestCreateCustomerNamesAreUnique(t *testing.T) {
	cf := NewCustomerFactory(NewSource(3))
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		c := cf.CreateCustomer()
		require.NotEmpty(t, c.Name)
		assert.False(t, seen[c.Name])
		seen[c.Name] = true
		assert.Positive(t, c.Loyalty)
	}
}

func TestPriceOrder(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name                           string
		items                          []models.OrderItem
		subtotal, tax, discount, total float64
	}{
		{
			name:     "below discount minimum",
			items:    []models.OrderItem{{Subtotal: 12.5}, {Subtotal: 7.25}},
			subtotal: 19.75, tax: 3.16, discount: 0, total: 22.91,
		},
		{
			name:     "percentage discount",
			items:    []models.OrderItem{{Subtotal: 45}},
			subtotal: 45, tax: 7.2, discount: 4.5, total: 47.7,
		},
		{
			name:     "capped discount",
			items:    []models.OrderItem{{Subtotal: 200}},
			subtotal: 200, tax: 32, discount: 15, total: 217,
		},
		{
			name: "no items",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal, tax, discount, total := PriceOrder(tt.items, cfg)
			assert.Equal(t, tt.subtotal, subtotal)
			assert.Equal(t, tt.tax, tax)
			assert.Equal(t, tt.discount, discount)
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestCreateOrderIsValid(t *testing.T) {
	src := NewSource(11)
	catalog, err := NewProductFactory(src).CreateCatalog(12)
	require.NoError(t, err)
	of := NewOrderFactory(src, testConfig())
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 300; i++ {
		ts := now.Add(-time.Duration(i) * time.Hour)
		o := of.CreateOrder(ts, "Ana", catalog, now)

		require.NoError(t, o.Validate())
		assert.NotEmpty(t, o.ID)
		assert.NotEmpty(t, o.Items)
		assert.LessOrEqual(t, len(o.Items), 4)
		if o.Mode == models.OrderModeTakeout {
			assert.Nil(t, o.TableNumber)
		} else {
			require.NotNil(t, o.TableNumber)
			assert.GreaterOrEqual(t, *o.TableNumber, 1)
		}
		if o.IsCompleted() {
			require.NotNil(t, o.CompletedAt)
			assert.Equal(t, ts.Add(time.Duration(o.PrepTimeMinutes)*time.Minute), *o.CompletedAt)
		}
	}
}

func TestCreateOrderInTheFutureStaysPending(t *testing.T) {
	src := NewSource(5)
	catalog, err := NewProductFactory(src).CreateCatalog(5)
	require.NoError(t, err)
	of := NewOrderFactory(src, testConfig())
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 50; i++ {
		o := of.CreateOrder(now.Add(time.Duration(i)*time.Minute), "", catalog, now)
		assert.Equal(t, models.OrderStatusPending, o.Status)
		assert.Nil(t, o.CompletedAt)
	}
}
