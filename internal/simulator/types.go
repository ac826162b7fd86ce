package simulator

import (
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

// OrderRow is the flat parquet shape of an order; line items travel as a
// JSON string.
type OrderRow struct {
	ID              string  `json:"id" parquet:"name=id,type=BYTE_ARRAY,convertedtype=UTF8"`
	Timestamp       int64   `json:"timestamp" parquet:"name=timestamp,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	CustomerName    string  `json:"customerName" parquet:"name=customerName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Mode            string  `json:"mode" parquet:"name=mode,type=BYTE_ARRAY,convertedtype=UTF8"`
	TableNumber     int32   `json:"tableNumber" parquet:"name=tableNumber,type=INT32"`
	Items           string  `json:"items" parquet:"name=items,type=BYTE_ARRAY,convertedtype=UTF8"`
	ItemCount       int32   `json:"itemCount" parquet:"name=itemCount,type=INT32"`
	Subtotal        float64 `json:"subtotal" parquet:"name=subtotal,type=DOUBLE"`
	Tax             float64 `json:"tax" parquet:"name=tax,type=DOUBLE"`
	Discount        float64 `json:"discount" parquet:"name=discount,type=DOUBLE"`
	Total           float64 `json:"total" parquet:"name=total,type=DOUBLE"`
	PaymentMethod   string  `json:"paymentMethod" parquet:"name=paymentMethod,type=BYTE_ARRAY,convertedtype=UTF8"`
	Status          string  `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	PrepTimeMinutes int32   `json:"prepTimeMinutes" parquet:"name=prepTimeMinutes,type=INT32"`
	CompletedAt     int64   `json:"completedAt" parquet:"name=completedAt,type=INT64"`
}

type ProductRow struct {
	ID       string  `json:"id" parquet:"name=id,type=BYTE_ARRAY,convertedtype=UTF8"`
	Name     string  `json:"name" parquet:"name=name,type=BYTE_ARRAY,convertedtype=UTF8"`
	Category string  `json:"category" parquet:"name=category,type=BYTE_ARRAY,convertedtype=UTF8"`
	Price    float64 `json:"price" parquet:"name=price,type=DOUBLE"`
}

// GetSchema returns the row prototype the parquet writer derives its
// schema from.
func GetSchema(topic string) (interface{}, error) {
	switch topic {
	case OrdersTopic:
		return new(OrderRow), nil
	case ProductsTopic:
		return new(ProductRow), nil
	default:
		return nil, fmt.Errorf("no parquet schema for topic %q", topic)
	}
}

// toRow decodes a message into the parquet row of its topic.
func toRow(topic string, msg []byte) (interface{}, error) {
	switch topic {
	case OrdersTopic:
		var o models.Order
		if err := json.Unmarshal(msg, &o); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		return newOrderRow(o)
	case ProductsTopic:
		var p models.Product
		if err := json.Unmarshal(msg, &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		return ProductRow{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price}, nil
	default:
		return nil, fmt.Errorf("no parquet schema for topic %q", topic)
	}
}

func newOrderRow(o models.Order) (OrderRow, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return OrderRow{}, err
	}
	row := OrderRow{
		ID:              o.ID,
		Timestamp:       o.Timestamp.UnixMilli(),
		CustomerName:    o.CustomerName,
		Mode:            string(o.Mode),
		Items:           string(items),
		ItemCount:       int32(len(o.Items)),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Discount:        o.Discount,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		Status:          string(o.Status),
		PrepTimeMinutes: int32(o.PrepTimeMinutes),
	}
	if o.TableNumber != nil {
		row.TableNumber = int32(*o.TableNumber)
	}
	if o.CompletedAt != nil {
		row.CompletedAt = o.CompletedAt.UnixMilli()
	}
	return row, nil
}
