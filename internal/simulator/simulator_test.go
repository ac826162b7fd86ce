package simulator

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/chrisdamba/tillmetrics/internal/models"
	"github.com/chrisdamba/tillmetrics/internal/repositories/jsonl"
	"github.com/chrisdamba/tillmetrics/internal/simulator/producers"
)

var fixedNow = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func testConfig(dir string) *models.Config {
	return &models.Config{
		Seed:                7,
		StartDate:           time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		EndDate:             time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC),
		OrdersPerDay:        20,
		Customers:           30,
		Products:            12,
		Tables:              8,
		TakeoutRate:         0.3,
		CancelRate:          0.05,
		PendingRate:         0.02,
		TaxRate:             0.16,
		DiscountPercentage:  0.1,
		MinOrderForDiscount: 40,
		MaxDiscountAmount:   15,
		MinPrepTime:         5,
		MaxPrepTime:         30,
		PeakHourFactor:      1.5,
		WeekendFactor:       1.3,
		PaymentWeights: []models.PaymentWeight{
			{Method: models.PaymentMethodCard, Weight: 0.6},
			{Method: models.PaymentMethodCash, Weight: 0.4},
		},
		OutputFormat: "json",
		OutputPath:   dir,
		OutputFolder: "till",
	}
}

type memOutput struct {
	messages map[string][][]byte
	closed   bool
}

func newMemOutput() *memOutput {
	return &memOutput{messages: make(map[string][][]byte)}
}

func (m *memOutput) WriteMessage(topic string, msg []byte) error {
	m.messages[topic] = append(m.messages[topic], append([]byte(nil), msg...))
	return nil
}

func (m *memOutput) Close() error {
	m.closed = true
	return nil
}

func ids(orders []models.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func withoutIDs(orders []models.Order) []models.Order {
	out := make([]models.Order, len(orders))
	for i, o := range orders {
		o.ID = ""
		out[i] = o
	}
	return out
}

func TestRunWritesReadableJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	sim := NewSimulator(cfg, nil, WithClock(func() time.Time { return fixedNow }))

	orders, products, err := sim.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, orders)
	assert.Len(t, products, cfg.Products)

	for i, o := range orders {
		require.NoError(t, o.Validate())
		assert.False(t, o.Timestamp.Before(cfg.StartDate))
		assert.True(t, o.Timestamp.Before(cfg.EndDate))
		if i > 0 {
			assert.False(t, o.Timestamp.Before(orders[i-1].Timestamp), "orders are written in time order")
		}
	}

	src := jsonl.NewSource(filepath.Join(dir, "till"), nil)
	loaded, err := src.Orders(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ids(orders), ids(loaded))

	catalog, err := src.Products(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, products, catalog)

	_, err = os.Stat(filepath.Join(dir, "till", "orders", "year=2026", "month=09", "day=01", "data.json"))
	assert.NoError(t, err)
}

func TestRunIsDeterministicPerSeed(t *testing.T) {
	cfg := testConfig("")
	run := func(seed int) []models.Order {
		c := *cfg
		c.Seed = seed
		orders, _, err := NewSimulator(&c, nil,
			WithOutput(newMemOutput()),
			WithClock(func() time.Time { return fixedNow }),
		).Run(context.Background())
		require.NoError(t, err)
		return withoutIDs(orders)
	}

	first := run(7)
	assert.Equal(t, first, run(7))
	assert.NotEqual(t, first, run(8))
}

func TestRunPopulation(t *testing.T) {
	out := newMemOutput()
	orders, _, err := NewSimulator(testConfig(""), nil,
		WithOutput(out),
		WithClock(func() time.Time { return fixedNow }),
	).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, out.closed)
	assert.Len(t, out.messages[OrdersTopic], len(orders))
	assert.Len(t, out.messages[ProductsTopic], 12)

	walkIns := 0
	visits := map[string]int{}
	statuses := map[models.OrderStatus]int{}
	for _, o := range orders {
		statuses[o.Status]++
		if o.CustomerName == "" {
			walkIns++
			continue
		}
		visits[o.CustomerName]++
		assert.True(t, o.Timestamp.Hour() >= openingHour && o.Timestamp.Hour() < closingHour)
	}
	assert.Positive(t, walkIns)
	assert.Positive(t, statuses[models.OrderStatusCompleted])

	repeat := 0
	for _, n := range visits {
		if n > 1 {
			repeat++
		}
	}
	assert.Positive(t, repeat)
}

func TestFutureOrdersStayPending(t *testing.T) {
	cfg := testConfig("")
	before := cfg.StartDate.Add(-time.Hour)
	orders, _, err := NewSimulator(cfg, nil,
		WithOutput(newMemOutput()),
		WithClock(func() time.Time { return before }),
	).Run(context.Background())
	require.NoError(t, err)
	for _, o := range orders {
		assert.Equal(t, models.OrderStatusPending, o.Status)
		assert.Nil(t, o.CompletedAt)
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := newMemOutput()
	_, _, err := NewSimulator(testConfig(""), nil, WithOutput(out)).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, out.closed)
}

func TestOutputSelection(t *testing.T) {
	cfg := testConfig("")
	cfg.OutputFormat = "xml"
	_, _, err := NewSimulator(cfg, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	cfg = testConfig("")
	_, _, err = NewSimulator(cfg, nil).Run(context.Background())
	assert.ErrorContains(t, err, "output_path")

	cfg = testConfig("")
	cfg.EndDate = cfg.StartDate
	_, _, err = NewSimulator(cfg, nil, WithOutput(newMemOutput())).Run(context.Background())
	assert.Error(t, err)
}

func TestCSVOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.OutputFormat = "csv"
	cfg.EndDate = cfg.StartDate.AddDate(0, 0, 1)
	orders, _, err := NewSimulator(cfg, nil, WithClock(func() time.Time { return fixedNow })).Run(context.Background())
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "till", "orders", "year=2026", "month=09", "day=01", "data.csv"))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	header := strings.Split(scanner.Text(), ",")
	assert.Contains(t, header, "customerName")
	assert.Contains(t, header, "total")
	lines := 0
	for scanner.Scan() {
		lines++
	}
	// item lists are quoted JSON and never span lines
	assert.Equal(t, len(orders), lines)
}

func TestParquetOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.OutputFormat = "parquet"
	cfg.OutputDestination = "local"
	cfg.EndDate = cfg.StartDate.AddDate(0, 0, 1)
	_, products, err := NewSimulator(cfg, nil, WithClock(func() time.Time { return fixedNow })).Run(context.Background())
	require.NoError(t, err)

	fr, err := local.NewLocalFileReader(filepath.Join(dir, "till", "products", "data.parquet"))
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ProductRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	require.Equal(t, len(products), n)
	rows := make([]ProductRow, n)
	require.NoError(t, pr.Read(&rows))
	assert.Equal(t, products[0].Name, rows[0].Name)
	assert.Equal(t, products[0].Price, rows[0].Price)
}

func TestKafkaOutputKeysByID(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "pos.orders" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil || string(key) != "o-1" {
			return errors.New("unexpected key")
		}
		return nil
	})
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != ProductsTopic {
			return errors.New("unexpected topic " + msg.Topic)
		}
		return nil
	})

	out := NewKafkaOutput(producers.NewSaramaProducerFrom(mock, nil), "pos.orders")
	order, err := json.Marshal(models.Order{ID: "o-1", Timestamp: fixedNow})
	require.NoError(t, err)
	require.NoError(t, out.WriteMessage(OrdersTopic, order))
	require.NoError(t, out.WriteMessage(ProductsTopic, []byte(`{"id":"p-1"}`)))
	assert.Error(t, out.WriteMessage(OrdersTopic, []byte(`not json`)))
	require.NoError(t, out.Close())
}

func TestPartitionPath(t *testing.T) {
	p, err := partitionPath([]byte(`{"timestamp":"2026-10-03T23:30:00-06:00"}`))
	require.NoError(t, err)
	assert.Equal(t, "year=2026/month=10/day=04", p)

	p, err = partitionPath([]byte(`{"id":"p-1"}`))
	require.NoError(t, err)
	assert.Empty(t, p)

	_, err = partitionPath([]byte(`{"timestamp":17}`))
	assert.Error(t, err)
}

func TestHourWeights(t *testing.T) {
	w := hourWeights(time.Tuesday, 1.5)
	for h := 0; h < openingHour; h++ {
		assert.Zero(t, w[h])
	}
	assert.Zero(t, w[closingHour])
	assert.Greater(t, w[13], w[16])
	assert.Greater(t, w[20], w[17])

	total := totalWeight(w)
	for _, r := range []float64{0, 0.25, 0.5, 0.999999} {
		h := pickHour(w, total, r)
		assert.True(t, h >= openingHour && h < closingHour, "hour %d", h)
	}

	saturday := time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	assert.Greater(t, dayMultiplier(saturday, 1.3), dayMultiplier(tuesday, 1.3))
}
