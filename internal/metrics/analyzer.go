package metrics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

// Analyzer binds the engine to a clock, a locale and scoring heuristics.
// Every method reads the clock once and passes that instant down, so the
// windows of one call never drift.
type Analyzer struct {
	scoring models.ScoringConfig
	clock   func() time.Time
	locale  *Locale
}

type Option func(*Analyzer)

func WithClock(clock func() time.Time) Option {
	return func(a *Analyzer) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithLocale(l *Locale) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.locale = l
		}
	}
}

func NewAnalyzer(scoring models.ScoringConfig, opts ...Option) *Analyzer {
	a := &Analyzer{
		scoring: scoring,
		clock:   time.Now,
		locale:  English,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Locale() *Locale {
	return a.locale
}

func (a *Analyzer) KPIs(orders []models.Order, period models.Period) KPIs {
	return CalculateKPIs(orders, period, a.clock())
}

func (a *Analyzer) Series(orders []models.Order, kind SeriesKind, window int) []SeriesPoint {
	return BuildSeries(orders, kind, window, a.clock(), a.locale)
}

func (a *Analyzer) Compare(orders []models.Order, filter models.Filter) Comparison {
	return ComparePeriods(orders, filter, a.clock(), a.locale)
}

func (a *Analyzer) Patterns(orders []models.Order, filter models.Filter) Patterns {
	return AnalyzePatterns(orders, filter, a.clock().Location(), a.locale)
}

func (a *Analyzer) Underperforming(orders []models.Order, catalog []models.Product, filter models.Filter) Underperformance {
	return DetectUnderperforming(orders, catalog, filter, a.clock(), a.scoring)
}

type Dashboard struct {
	GeneratedAt     time.Time        `json:"generatedAt"`
	Period          models.Period    `json:"period"`
	Filter          models.Filter    `json:"filter"`
	KPIs            KPIs             `json:"kpis"`
	TimeSeries      []SeriesPoint    `json:"timeSeries"`
	CategorySeries  []SeriesPoint    `json:"categorySeries"`
	PaymentSeries   []SeriesPoint    `json:"paymentSeries"`
	Comparison      Comparison       `json:"comparison"`
	Patterns        Patterns         `json:"patterns"`
	Underperforming Underperformance `json:"underperforming"`
}

// Dashboard computes every bundle against a single instant. The bundles
// only read orders and catalog, so they run side by side. KPIs and series
// see the orders matching the filter's category and payment method; a
// custom period also limits them to the filter's range.
func (a *Analyzer) Dashboard(ctx context.Context, orders []models.Order, catalog []models.Product, filter models.Filter, period models.Period) (*Dashboard, error) {
	now := a.clock()
	d := &Dashboard{GeneratedAt: now, Period: period, Filter: filter}

	g, ctx := errgroup.WithContext(ctx)
	run := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	scoped := scope(orders, filter, period)
	run(func() { d.KPIs = CalculateKPIs(scoped, period, now) })
	run(func() { d.TimeSeries = BuildSeries(scoped, SeriesTime, defaultSeriesWindow, now, a.locale) })
	run(func() { d.CategorySeries = BuildSeries(scoped, SeriesCategory, 0, now, a.locale) })
	run(func() { d.PaymentSeries = BuildSeries(scoped, SeriesPayment, 0, now, a.locale) })
	run(func() { d.Comparison = ComparePeriods(orders, filter, now, a.locale) })
	run(func() { d.Patterns = AnalyzePatterns(orders, filter, now.Location(), a.locale) })
	run(func() { d.Underperforming = DetectUnderperforming(orders, catalog, filter, now, a.scoring) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func scope(orders []models.Order, filter models.Filter, period models.Period) []models.Order {
	match := filter.MatchAttributes
	if period == models.PeriodCustom {
		match = filter.Match
	}
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if match(o) {
			out = append(out, o)
		}
	}
	return out
}
