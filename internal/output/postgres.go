package output

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chrisdamba/tillmetrics/internal/models"
	"github.com/chrisdamba/tillmetrics/internal/repositories"
)

const (
	OrdersTopic      = "orders"
	ProductsTopic    = "products"
	defaultBatchSize = 500
)

// PostgresOutput buffers decoded messages and copies them into the
// repositories in batches. Products are written before the first order
// batch so a report never sees orders without their catalog.
type PostgresOutput struct {
	ctx       context.Context
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	logger    *slog.Logger
	batchSize int

	pendingOrders   []models.Order
	pendingProducts []models.Product
	written         int
	onClose         func()
}

func NewPostgresOutput(ctx context.Context, orders repositories.OrderRepository, products repositories.ProductRepository, logger *slog.Logger) *PostgresOutput {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOutput{
		ctx:       ctx,
		orders:    orders,
		products:  products,
		logger:    logger,
		batchSize: defaultBatchSize,
	}
}

// WithBatchSize overrides the number of orders held before a copy.
func (p *PostgresOutput) WithBatchSize(n int) *PostgresOutput {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

// OnClose registers a function run after the final flush, typically
// closing the connection pool.
func (p *PostgresOutput) OnClose(fn func()) *PostgresOutput {
	p.onClose = fn
	return p
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	switch topic {
	case ProductsTopic:
		var product models.Product
		if err := json.Unmarshal(msg, &product); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		p.pendingProducts = append(p.pendingProducts, product)
		return nil
	case OrdersTopic:
		var order models.Order
		if err := json.Unmarshal(msg, &order); err != nil {
			return fmt.Errorf("decode order: %w", err)
		}
		p.pendingOrders = append(p.pendingOrders, order)
		if len(p.pendingOrders) >= p.batchSize {
			return p.Flush()
		}
		return nil
	default:
		return fmt.Errorf("no table for topic %q", topic)
	}
}

func (p *PostgresOutput) Flush() error {
	if len(p.pendingProducts) > 0 {
		if err := p.products.BulkCreate(p.ctx, p.pendingProducts); err != nil {
			return fmt.Errorf("failed to insert products: %w", err)
		}
		p.logger.Debug("copied products", "count", len(p.pendingProducts))
		p.pendingProducts = p.pendingProducts[:0]
	}
	if len(p.pendingOrders) > 0 {
		if err := p.orders.BulkCreate(p.ctx, p.pendingOrders); err != nil {
			return fmt.Errorf("failed to insert orders: %w", err)
		}
		p.written += len(p.pendingOrders)
		p.logger.Debug("copied orders", "count", len(p.pendingOrders), "total", p.written)
		p.pendingOrders = p.pendingOrders[:0]
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	err := p.Flush()
	if p.onClose != nil {
		p.onClose()
	}
	return err
}
