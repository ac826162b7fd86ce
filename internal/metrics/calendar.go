package metrics

import (
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay is the last representable instant of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Sunday that opens t's week.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

func startOfQuarter(t time.Time) time.Time {
	q := (int(t.Month()) - 1) / 3
	return time.Date(t.Year(), time.Month(q*3+1), 1, 0, 0, 0, 0, t.Location())
}

func dayWindow(t time.Time) models.DateRange {
	return models.DateRange{Start: startOfDay(t), End: endOfDay(t)}
}

// spanWindow covers [start, start+AddDate(years, months, days)).
func spanWindow(start time.Time, years, months, days int) models.DateRange {
	return models.DateRange{Start: start, End: start.AddDate(years, months, days).Add(-time.Nanosecond)}
}

// trailing is the window of the last n days ending at now.
func trailing(now time.Time, days int) models.DateRange {
	return models.DateRange{Start: now.AddDate(0, 0, -days), End: now}
}

func shiftYears(r models.DateRange, years int) models.DateRange {
	return models.DateRange{Start: r.Start.AddDate(years, 0, 0), End: r.End.AddDate(years, 0, 0)}
}

func inLocation(r models.DateRange, loc *time.Location) models.DateRange {
	return models.DateRange{Start: r.Start.In(loc), End: r.End.In(loc)}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
