package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/tillmetrics/internal/models"
	"github.com/chrisdamba/tillmetrics/internal/repositories"
)

var (
	_ repositories.OrderRepository   = (*OrderRepository)(nil)
	_ repositories.ProductRepository = (*ProductRepository)(nil)
	_ repositories.OrderSource       = (*Source)(nil)
)

// Source reads orders and the catalog back for reporting.
type Source struct {
	orders   *OrderRepository
	products *ProductRepository
}

func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{orders: NewOrderRepository(pool), products: NewProductRepository(pool)}
}

func (s *Source) Orders(ctx context.Context, r *models.DateRange) ([]models.Order, error) {
	if r == nil {
		return s.orders.GetAll(ctx)
	}
	return s.orders.GetBetween(ctx, r.Start, r.End)
}

func (s *Source) Products(ctx context.Context) ([]models.Product, error) {
	return s.products.GetAll(ctx)
}
