package models

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownAnchor = errors.New("unknown comparison anchor")
	ErrUnknownPeriod = errors.New("unknown kpi period")
)

// Anchor selects how the current and previous windows of a seasonal
// comparison are derived from the present moment.
type Anchor string

const (
	AnchorYesterday    Anchor = "yesterday"
	AnchorLastWeek     Anchor = "lastWeek"
	AnchorLastMonth    Anchor = "lastMonth"
	AnchorLastQuarter  Anchor = "lastQuarter"
	AnchorPreviousYear Anchor = "previousYear"
)

var Anchors = []Anchor{AnchorYesterday, AnchorLastWeek, AnchorLastMonth, AnchorLastQuarter, AnchorPreviousYear}

func ParseAnchor(s string) (Anchor, error) {
	if s == "" {
		return AnchorPreviousYear, nil
	}
	for _, a := range Anchors {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAnchor, s)
}

// Period narrows a KPI calculation relative to now.
type Period string

const (
	PeriodToday  Period = "today"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
	PeriodCustom Period = "custom"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodCustom:
		return p, nil
	case "":
		return PeriodToday, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// DateRange is inclusive on both ends.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// SpanDays counts the calendar days touched by the range, both ends included,
// in the location of Start.
func (r DateRange) SpanDays() int {
	if r.End.Before(r.Start) {
		return 0
	}
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.In(r.Start.Location()).Date()
	a := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours()/24) + 1
}

type Filter struct {
	DateRange     *DateRange `json:"dateRange,omitempty"`
	Category      string     `json:"category,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	Anchor        Anchor     `json:"anchor,omitempty"`
}

// HasRange reports whether an explicit, well-ordered date range is set.
func (f Filter) HasRange() bool {
	return f.DateRange != nil && !f.DateRange.End.Before(f.DateRange.Start)
}

// MatchAttributes applies the category and payment method constraints only.
func (f Filter) MatchAttributes(o Order) bool {
	if f.Category != "" && !o.HasCategory(f.Category) {
		return false
	}
	if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
		return false
	}
	return true
}

// Match applies every constraint of the filter, including the date range.
func (f Filter) Match(o Order) bool {
	if f.HasRange() && !f.DateRange.Contains(o.Timestamp) {
		return false
	}
	return f.MatchAttributes(o)
}
