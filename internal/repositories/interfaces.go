package repositories

import (
	"context"
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

type OrderRepository interface {
	BulkCreate(ctx context.Context, orders []models.Order) error
	Create(ctx context.Context, order *models.Order) error
	GetAll(ctx context.Context) ([]models.Order, error)
	// GetBetween returns orders whose timestamp falls in [start, end].
	GetBetween(ctx context.Context, start, end time.Time) ([]models.Order, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

type ProductRepository interface {
	BulkCreate(ctx context.Context, products []models.Product) error
	GetAll(ctx context.Context) ([]models.Product, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) error
}

// OrderSource is the read side the report command depends on.
type OrderSource interface {
	Orders(ctx context.Context, r *models.DateRange) ([]models.Order, error)
	Products(ctx context.Context) ([]models.Product, error)
}
