package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

var orderColumns = []string{
	"id", "placed_at", "customer_name", "mode", "table_number", "items",
	"subtotal", "tax", "discount", "total", "payment_method", "status",
	"prep_time_minutes", "created_at", "completed_at",
}

const selectOrders = `
        SELECT
            id,
            placed_at,
            customer_name,
            mode,
            table_number,
            items,
            subtotal,
            tax,
            discount,
            total,
            payment_method,
            status,
            prep_time_minutes,
            created_at,
            completed_at
        FROM orders
`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) BulkCreate(ctx context.Context, orders []models.Order) error {
	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"orders"},
		orderColumns,
		pgx.CopyFromSlice(len(orders), func(i int) ([]interface{}, error) {
			return orderRow(&orders[i])
		}),
	)
	if err != nil {
		return fmt.Errorf("copy orders: %w", err)
	}
	return nil
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
        INSERT INTO orders (
            id, placed_at, customer_name, mode, table_number, items,
            subtotal, tax, discount, total, payment_method, status,
            prep_time_minutes, created_at, completed_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
        )
    `
	row, err := orderRow(order)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query, row...)
	return err
}

func (r *OrderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	return r.query(ctx, selectOrders+` ORDER BY placed_at`)
}

func (r *OrderRepository) GetBetween(ctx context.Context, start, end time.Time) ([]models.Order, error) {
	return r.query(ctx, selectOrders+` WHERE placed_at BETWEEN $1 AND $2 ORDER BY placed_at`, start, end)
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&count)
	return count, err
}

func (r *OrderRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE orders")
	return err
}

func (r *OrderRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			o     models.Order
			mode  string
			state string
			items []byte
		)
		err := rows.Scan(
			&o.ID,
			&o.Timestamp,
			&o.CustomerName,
			&mode,
			&o.TableNumber,
			&items,
			&o.Subtotal,
			&o.Tax,
			&o.Discount,
			&o.Total,
			&o.PaymentMethod,
			&state,
			&o.PrepTimeMinutes,
			&o.CreatedAt,
			&o.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
		}
		o.Mode = models.OrderMode(mode)
		o.Status = models.OrderStatus(state)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func orderRow(o *models.Order) ([]interface{}, error) {
	items := o.Items
	if items == nil {
		items = []models.OrderItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode items of order %s: %w", o.ID, err)
	}
	return []interface{}{
		o.ID,
		o.Timestamp,
		o.CustomerName,
		string(o.Mode),
		o.TableNumber,
		string(encoded),
		o.Subtotal,
		o.Tax,
		o.Discount,
		o.Total,
		o.PaymentMethod,
		string(o.Status),
		o.PrepTimeMinutes,
		o.CreatedAt,
		o.CompletedAt,
	}, nil
}
