package metrics

import (
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

const previousYearTrailingDays = 30

type anchorWindows struct {
	current  models.DateRange
	previous models.DateRange
	labels   ComparisonLabels
}

type anchorFunc func(now time.Time, filter models.Filter, loc *Locale) anchorWindows

var anchorTable = map[models.Anchor]anchorFunc{
	models.AnchorYesterday:    yesterdayWindows,
	models.AnchorLastWeek:     lastWeekWindows,
	models.AnchorLastMonth:    lastMonthWindows,
	models.AnchorLastQuarter:  lastQuarterWindows,
	models.AnchorPreviousYear: previousYearWindows,
}

// resolveAnchor maps an empty or unknown anchor to previousYear.
func resolveAnchor(a models.Anchor) (models.Anchor, anchorFunc) {
	if fn, ok := anchorTable[a]; ok {
		return a, fn
	}
	return models.AnchorPreviousYear, previousYearWindows
}

func yesterdayWindows(now time.Time, _ models.Filter, loc *Locale) anchorWindows {
	today := dayWindow(now)
	yesterday := dayWindow(now.AddDate(0, 0, -1))
	return anchorWindows{
		current:  today,
		previous: yesterday,
		labels:   ComparisonLabels{Current: loc.LongDate(today.Start), Previous: loc.LongDate(yesterday.Start)},
	}
}

func lastWeekWindows(now time.Time, _ models.Filter, loc *Locale) anchorWindows {
	week := spanWindow(startOfWeek(now), 0, 0, 7)
	prev := spanWindow(week.Start.AddDate(0, 0, -7), 0, 0, 7)
	return anchorWindows{
		current:  week,
		previous: prev,
		labels: ComparisonLabels{
			Current:  loc.Range(week.Start, week.End),
			Previous: loc.Range(prev.Start, prev.End),
		},
	}
}

func lastMonthWindows(now time.Time, _ models.Filter, loc *Locale) anchorWindows {
	month := spanWindow(startOfMonth(now), 0, 1, 0)
	prev := spanWindow(month.Start.AddDate(0, -1, 0), 0, 1, 0)
	return anchorWindows{
		current:  month,
		previous: prev,
		labels:   ComparisonLabels{Current: loc.MonthYear(month.Start), Previous: loc.MonthYear(prev.Start)},
	}
}

func lastQuarterWindows(now time.Time, _ models.Filter, loc *Locale) anchorWindows {
	quarter := spanWindow(startOfQuarter(now), 0, 3, 0)
	prev := spanWindow(quarter.Start.AddDate(0, -3, 0), 0, 3, 0)
	return anchorWindows{
		current:  quarter,
		previous: prev,
		labels:   ComparisonLabels{Current: loc.Quarter(quarter.Start), Previous: loc.Quarter(prev.Start)},
	}
}

func previousYearWindows(now time.Time, filter models.Filter, loc *Locale) anchorWindows {
	current := trailing(now, previousYearTrailingDays)
	if filter.HasRange() {
		current = inLocation(*filter.DateRange, now.Location())
	}
	prev := shiftYears(current, -1)
	return anchorWindows{
		current:  current,
		previous: prev,
		labels: ComparisonLabels{
			Current:  loc.Range(current.Start, current.End),
			Previous: loc.Range(prev.Start, prev.End),
		},
	}
}
