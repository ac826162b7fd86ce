package simulator

import (
	"math"
	"time"
)

// DemandPattern scales the hourly order rate during a service period.
type DemandPattern struct {
	Type               string
	TimeMultipliers    map[int]float64
	WeekdayMultipliers map[time.Weekday]float64
}

const (
	openingHour = 8
	closingHour = 23
)

var DefaultDemandPatterns = []DemandPattern{
	{
		Type: "breakfast",
		TimeMultipliers: map[int]float64{
			8:  1.3,
			9:  1.5,
			10: 1.2,
		},
		WeekdayMultipliers: map[time.Weekday]float64{
			time.Saturday: 1.4,
			time.Sunday:   1.6,
		},
	},
	{
		Type: "lunch_rush",
		TimeMultipliers: map[int]float64{
			12: 1.8,
			13: 2.0,
			14: 1.6,
			15: 1.1,
		},
		WeekdayMultipliers: map[time.Weekday]float64{
			time.Monday:   1.1,
			time.Friday:   1.3,
			time.Saturday: 0.9,
			time.Sunday:   1.2,
		},
	},
	{
		Type: "dinner_rush",
		TimeMultipliers: map[int]float64{
			19: 1.6,
			20: 2.0,
			21: 1.8,
			22: 1.2,
		},
		WeekdayMultipliers: map[time.Weekday]float64{
			time.Friday:   1.6,
			time.Saturday: 1.5,
			time.Sunday:   0.8,
		},
	},
}

var monthMultipliers = map[time.Month]float64{
	time.January:   0.85,
	time.February:  0.9,
	time.March:     0.95,
	time.April:     1.0,
	time.May:       1.05,
	time.June:      1.0,
	time.July:      1.1,
	time.August:    1.05,
	time.September: 1.15,
	time.October:   1.0,
	time.November:  1.05,
	time.December:  1.25,
}

// hourWeights returns the relative order rate of each hour of a day. Hours
// outside opening time weigh zero. peakFactor stretches every rush
// multiplier away from 1.
func hourWeights(day time.Weekday, peakFactor float64) [24]float64 {
	var weights [24]float64
	if peakFactor <= 0 {
		peakFactor = 1
	}
	for h := openingHour; h < closingHour; h++ {
		w := 1.0
		for _, p := range DefaultDemandPatterns {
			m, ok := p.TimeMultipliers[h]
			if !ok {
				continue
			}
			w *= 1 + (m-1)*peakFactor
			if wm, ok := p.WeekdayMultipliers[day]; ok {
				w *= wm
			}
		}
		weights[h] = math.Max(w, 0.05)
	}
	return weights
}

// dayMultiplier scales the daily volume by weekday and month.
func dayMultiplier(t time.Time, weekendFactor float64) float64 {
	if weekendFactor <= 0 {
		weekendFactor = 1
	}
	m := monthMultipliers[t.Month()]
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		m *= weekendFactor
	case time.Friday:
		m *= 1 + (weekendFactor-1)/2
	case time.Monday:
		m *= 0.9
	}
	return m
}

func totalWeight(weights [24]float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}
