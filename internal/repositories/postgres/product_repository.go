package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) BulkCreate(ctx context.Context, products []models.Product) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"products"},
		[]string{"id", "name", "category", "price"},
		pgx.CopyFromSlice(len(products), func(i int) ([]interface{}, error) {
			return []interface{}{
				products[i].ID,
				products[i].Name,
				products[i].Category,
				products[i].Price,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy products: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, category, price FROM products ORDER BY created_at, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	return count, err
}

func (r *ProductRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE products")
	return err
}
