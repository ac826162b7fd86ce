package output

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

type memOrders struct {
	batches [][]models.Order
	err     error
}

func (m *memOrders) BulkCreate(_ context.Context, orders []models.Order) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]models.Order(nil), orders...))
	return nil
}

func (m *memOrders) Create(ctx context.Context, order *models.Order) error {
	return m.BulkCreate(ctx, []models.Order{*order})
}

func (m *memOrders) GetAll(context.Context) ([]models.Order, error) {
	var all []models.Order
	for _, b := range m.batches {
		all = append(all, b...)
	}
	return all, nil
}

func (m *memOrders) GetBetween(ctx context.Context, _, _ time.Time) ([]models.Order, error) {
	return m.GetAll(ctx)
}

func (m *memOrders) Count(ctx context.Context) (int, error) {
	all, _ := m.GetAll(ctx)
	return len(all), nil
}

func (m *memOrders) DeleteAll(context.Context) error {
	m.batches = nil
	return nil
}

type memProducts struct {
	products []models.Product
}

func (m *memProducts) BulkCreate(_ context.Context, products []models.Product) error {
	m.products = append(m.products, products...)
	return nil
}

func (m *memProducts) GetAll(context.Context) ([]models.Product, error) { return m.products, nil }

func (m *memProducts) Count(context.Context) (int, error) { return len(m.products), nil }

func (m *memProducts) DeleteAll(context.Context) error {
	m.products = nil
	return nil
}

func orderMessage(t *testing.T, id string) []byte {
	t.Helper()
	b, err := json.Marshal(models.Order{
		ID:            id,
		Timestamp:     time.Date(2026, time.October, 3, 12, 0, 0, 0, time.UTC),
		Mode:          models.OrderModeTakeout,
		PaymentMethod: models.PaymentMethodCash,
		Status:        models.OrderStatusCompleted,
	})
	require.NoError(t, err)
	return b
}

func TestPostgresOutputBatches(t *testing.T) {
	orders := &memOrders{}
	products := &memProducts{}
	closed := false
	out := NewPostgresOutput(context.Background(), orders, products, nil).
		WithBatchSize(2).
		OnClose(func() { closed = true })

	product, err := json.Marshal(models.Product{ID: "p-1", Name: "Taco", Category: "mains", Price: 3})
	require.NoError(t, err)
	require.NoError(t, out.WriteMessage(ProductsTopic, product))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, out.WriteMessage(OrdersTopic, orderMessage(t, id)))
	}
	require.Len(t, orders.batches, 1)
	assert.Len(t, orders.batches[0], 2)
	assert.Len(t, products.products, 1)

	require.NoError(t, out.Close())
	assert.True(t, closed)
	require.Len(t, orders.batches, 2)
	assert.Equal(t, "c", orders.batches[1][0].ID)
	assert.Equal(t, "a", orders.batches[0][0].ID)
}

func TestPostgresOutputErrors(t *testing.T) {
	boom := errors.New("copy failed")
	out := NewPostgresOutput(context.Background(), &memOrders{err: boom}, &memProducts{}, nil).WithBatchSize(1)

	assert.ErrorIs(t, out.WriteMessage(OrdersTopic, orderMessage(t, "a")), boom)
	assert.Error(t, out.WriteMessage("reviews", []byte(`{}`)))
	assert.Error(t, out.WriteMessage(OrdersTopic, []byte(`{`)))
}
