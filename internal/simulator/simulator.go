package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/chrisdamba/tillmetrics/internal/factories"
	"github.com/chrisdamba/tillmetrics/internal/models"
)

// walkInRate is the share of orders placed without a customer name.
const walkInRate = 0.2

type Simulator struct {
	Config    *models.Config
	Src       *factories.Source
	Catalog   []models.Product
	Customers []factories.Customer
	Orders    []models.Order

	logger   *slog.Logger
	output   OutputDestination
	progress io.Writer
	stdout   io.Writer
	clock    func() time.Time

	loyaltyTotal float64
}

type Option func(*Simulator)

// WithOutput replaces the destination chosen from the config.
func WithOutput(out OutputDestination) Option {
	return func(s *Simulator) { s.output = out }
}

// WithProgress draws a progress bar on w, one step per simulated day.
func WithProgress(w io.Writer) Option {
	return func(s *Simulator) { s.progress = w }
}

func WithStdout(w io.Writer) Option {
	return func(s *Simulator) { s.stdout = w }
}

// WithClock fixes "now", which decides whether an order can be completed.
func WithClock(clock func() time.Time) Option {
	return func(s *Simulator) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewSimulator(config *models.Config, logger *slog.Logger, opts ...Option) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Simulator{
		Config: config,
		Src:    factories.NewSource(int64(config.Seed)),
		logger: logger,
		stdout: os.Stdout,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) initializeData() error {
	catalog, err := factories.NewProductFactory(s.Src).CreateCatalog(s.Config.Products)
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	s.Catalog = catalog

	customerFactory := factories.NewCustomerFactory(s.Src)
	s.Customers = make([]factories.Customer, s.Config.Customers)
	s.loyaltyTotal = 0
	for i := range s.Customers {
		s.Customers[i] = customerFactory.CreateCustomer()
		s.loyaltyTotal += s.Customers[i].Loyalty
	}
	s.Orders = nil
	return nil
}

// Run generates the catalog, the customers and every order between the
// configured start and end dates, writing each to the output as it goes.
func (s *Simulator) Run(ctx context.Context) ([]models.Order, []models.Product, error) {
	if !s.Config.EndDate.After(s.Config.StartDate) {
		return nil, nil, fmt.Errorf("end date %s must be after start date %s",
			s.Config.EndDate.Format(time.RFC3339), s.Config.StartDate.Format(time.RFC3339))
	}

	out := s.output
	if out == nil {
		var err error
		out, err = s.determineOutputDestination(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	orders, products, err := s.run(ctx, out)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close output: %w", closeErr)
	}
	if err != nil {
		return nil, nil, err
	}
	return orders, products, nil
}

func (s *Simulator) run(ctx context.Context, out OutputDestination) ([]models.Order, []models.Product, error) {
	if err := s.initializeData(); err != nil {
		return nil, nil, err
	}
	for _, p := range s.Catalog {
		if err := s.write(out, ProductsTopic, p); err != nil {
			return nil, nil, err
		}
	}

	now := s.clock()
	start, end := s.Config.StartDate, s.Config.EndDate
	firstDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	days := int(end.Sub(firstDay).Hours()/24) + 1

	s.logger.Info("simulation starts",
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339),
		"products", len(s.Catalog),
		"customers", len(s.Customers))

	var bar *progressbar.ProgressBar
	if s.progress != nil {
		bar = progressbar.NewOptions64(int64(days),
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionSetDescription("generating orders"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish(),
		)
	}

	orderFactory := factories.NewOrderFactory(s.Src, s.Config)
	for day := firstDay; day.Before(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for _, ts := range s.dayTimestamps(day) {
			if ts.Before(start) || !ts.Before(end) {
				continue
			}
			order := orderFactory.CreateOrder(ts, s.pickCustomer(), s.Catalog, now)
			if err := s.write(out, OrdersTopic, order); err != nil {
				return nil, nil, err
			}
			s.Orders = append(s.Orders, order)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	s.logger.Info("simulation completed", "orders", len(s.Orders))
	return s.Orders, s.Catalog, nil
}

// dayTimestamps draws the sorted order times of one day.
func (s *Simulator) dayTimestamps(day time.Time) []time.Time {
	expected := s.Config.OrdersPerDay * dayMultiplier(day, s.Config.WeekendFactor)
	expected *= 0.9 + 0.2*s.Src.Rng.Float64()
	n := int(expected)
	if s.Src.Chance(expected - float64(n)) {
		n++
	}

	weights := hourWeights(day.Weekday(), s.Config.PeakHourFactor)
	total := totalWeight(weights)
	times := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		hour := pickHour(weights, total, s.Src.Rng.Float64())
		offset := time.Duration(hour)*time.Hour +
			time.Duration(s.Src.Rng.Intn(60))*time.Minute +
			time.Duration(s.Src.Rng.Intn(60))*time.Second
		times = append(times, day.Add(offset))
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

func pickHour(weights [24]float64, total, r float64) int {
	r *= total
	last := 0
	for h, w := range weights {
		if w == 0 {
			continue
		}
		if r < w {
			return h
		}
		r -= w
		last = h
	}
	return last
}

// pickCustomer favours loyal customers; some orders are walk-ins with no
// name at all.
func (s *Simulator) pickCustomer() string {
	if len(s.Customers) == 0 || s.Src.Chance(walkInRate) {
		return ""
	}
	r := s.Src.Rng.Float64() * s.loyaltyTotal
	for _, c := range s.Customers {
		if r < c.Loyalty {
			return c.Name
		}
		r -= c.Loyalty
	}
	return s.Customers[len(s.Customers)-1].Name
}

func (s *Simulator) write(out OutputDestination, topic string, v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}
	if err := out.WriteMessage(topic, msg); err != nil {
		return fmt.Errorf("failed to write %s message: %w", topic, err)
	}
	return nil
}
