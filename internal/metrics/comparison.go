package metrics

import (
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

type BucketKind string

const (
	BucketDaily   BucketKind = "daily"
	BucketWeekly  BucketKind = "weekly"
	BucketMonthly BucketKind = "monthly"

	dailySpanLimit      = 31
	weeklySpanLimit     = 365
	maxMonthlyBuckets   = 12
	defaultMonthBuckets = 6
	dailyTrailingDays   = 28
)

type PeriodPoint struct {
	Period        string    `json:"period"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Sales         float64   `json:"sales"`
	Orders        int       `json:"orders"`
	AverageTicket float64   `json:"averageTicket"`
}

type PeriodTotals struct {
	Sales  float64 `json:"sales"`
	Orders int     `json:"orders"`
}

type ComparisonLabels struct {
	Current  string `json:"current"`
	Previous string `json:"previous"`
}

// SeasonalComparison compares two populations picked by an anchor strategy.
// GrowthRate is clamped to 0 when the previous period had no sales, so
// HasPriorData tells "no prior data" apart from "no change".
type SeasonalComparison struct {
	Anchor           models.Anchor    `json:"anchor"`
	CurrentPeriod    PeriodTotals     `json:"currentPeriod"`
	PreviousPeriod   PeriodTotals     `json:"previousPeriod"`
	GrowthRate       float64          `json:"growthRate"`
	OrdersGrowthRate float64          `json:"ordersGrowthRate"`
	HasPriorData     bool             `json:"hasPriorData"`
	Labels           ComparisonLabels `json:"labels"`
}

type Comparison struct {
	MonthlyComparison  []PeriodPoint      `json:"monthlyComparison"`
	DailyComparison    []PeriodPoint      `json:"dailyComparison"`
	SeasonalComparison SeasonalComparison `json:"seasonalComparison"`
	ComparisonType     BucketKind         `json:"comparisonType"`
	TotalPeriods       int                `json:"totalPeriods"`
}

type bucket struct {
	label  string
	window models.DateRange
}

// ComparePeriods builds the bucketed series, the trailing daily series and
// the anchored seasonal comparison. Category and payment filters apply to
// every population; the date range only shapes the windows.
func ComparePeriods(orders []models.Order, filter models.Filter, now time.Time, loc *Locale) Comparison {
	population := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if o.IsCompleted() && filter.MatchAttributes(o) {
			population = append(population, o)
		}
	}

	kind, buckets := planBuckets(filter, now, loc)
	return Comparison{
		MonthlyComparison:  aggregateBuckets(population, buckets),
		DailyComparison:    aggregateBuckets(population, dailyTrailingBuckets(filter, now, loc)),
		SeasonalComparison: compareSeasonal(population, filter, now, loc),
		ComparisonType:     kind,
		TotalPeriods:       len(buckets),
	}
}

func planBuckets(filter models.Filter, now time.Time, loc *Locale) (BucketKind, []bucket) {
	if !filter.HasRange() {
		return BucketMonthly, monthBuckets(now, defaultMonthBuckets, loc)
	}
	r := inLocation(*filter.DateRange, now.Location())
	span := r.SpanDays()
	switch {
	case span <= dailySpanLimit:
		return BucketDaily, dayBuckets(startOfDay(r.Start), span, loc)
	case span <= weeklySpanLimit:
		return BucketWeekly, weekBuckets(r, ceilDiv(span, 7), loc)
	default:
		return BucketMonthly, monthBuckets(r.End, min(maxMonthlyBuckets, ceilDiv(span, 30)), loc)
	}
}

func dayBuckets(first time.Time, n int, loc *Locale) []bucket {
	out := make([]bucket, n)
	for i := range out {
		day := first.AddDate(0, 0, i)
		out[i] = bucket{label: loc.ShortDate(day), window: dayWindow(day)}
	}
	return out
}

// weekBuckets slices the range into rolling 7-day windows from its first
// day; the last window stops at the end of the range.
func weekBuckets(r models.DateRange, n int, loc *Locale) []bucket {
	last := endOfDay(r.End)
	first := startOfDay(r.Start)
	out := make([]bucket, n)
	for i := range out {
		w := spanWindow(first.AddDate(0, 0, 7*i), 0, 0, 7)
		if w.End.After(last) {
			w.End = last
		}
		out[i] = bucket{label: loc.Range(w.Start, w.End), window: w}
	}
	return out
}

// monthBuckets returns n calendar months ending with the month of anchor.
func monthBuckets(anchor time.Time, n int, loc *Locale) []bucket {
	first := startOfMonth(anchor)
	out := make([]bucket, n)
	for i := range out {
		start := first.AddDate(0, i-n+1, 0)
		out[i] = bucket{label: loc.MonthYear(start), window: spanWindow(start, 0, 1, 0)}
	}
	return out
}

func dailyTrailingBuckets(filter models.Filter, now time.Time, loc *Locale) []bucket {
	last := startOfDay(now)
	n := dailyTrailingDays
	if filter.HasRange() {
		r := inLocation(*filter.DateRange, now.Location())
		last = startOfDay(r.End)
		n = min(dailyTrailingDays, r.SpanDays())
	}
	return dayBuckets(last.AddDate(0, 0, 1-n), n, loc)
}

func aggregateBuckets(orders []models.Order, buckets []bucket) []PeriodPoint {
	points := make([]PeriodPoint, len(buckets))
	for i, b := range buckets {
		points[i] = PeriodPoint{Period: b.label, Start: b.window.Start, End: b.window.End}
	}
	for _, o := range orders {
		for i, b := range buckets {
			if b.window.Contains(o.Timestamp) {
				points[i].Sales += o.Total
				points[i].Orders++
				break
			}
		}
	}
	for i := range points {
		points[i].AverageTicket = ratio(points[i].Sales, float64(points[i].Orders))
	}
	return points
}

func compareSeasonal(orders []models.Order, filter models.Filter, now time.Time, loc *Locale) SeasonalComparison {
	anchor, windowsFor := resolveAnchor(filter.Anchor)
	w := windowsFor(now, filter, loc)

	current := totalsIn(orders, w.current)
	previous := totalsIn(orders, w.previous)
	return SeasonalComparison{
		Anchor:           anchor,
		CurrentPeriod:    current,
		PreviousPeriod:   previous,
		GrowthRate:       growthRate(current.Sales, previous.Sales),
		OrdersGrowthRate: growthRate(float64(current.Orders), float64(previous.Orders)),
		HasPriorData:     previous.Orders > 0,
		Labels:           w.labels,
	}
}

func totalsIn(orders []models.Order, window models.DateRange) PeriodTotals {
	var t PeriodTotals
	for _, o := range orders {
		if window.Contains(o.Timestamp) {
			t.Sales += o.Total
			t.Orders++
		}
	}
	return t
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
