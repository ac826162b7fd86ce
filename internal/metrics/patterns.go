package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

const (
	peakHoursLimit         = 8
	frequentCustomersLimit = 10
	frequentOrderThreshold = 3
)

type HourPattern struct {
	Hour      int     `json:"hour"`
	Label     string  `json:"label"`
	Orders    int     `json:"orders"`
	Sales     float64 `json:"sales"`
	AvgTicket float64 `json:"avgTicket"`
}

type DayPattern struct {
	Day       time.Weekday `json:"day"`
	Label     string       `json:"label"`
	Orders    int          `json:"orders"`
	Sales     float64      `json:"sales"`
	AvgTicket float64      `json:"avgTicket"`
}

type CustomerPattern struct {
	Name            string  `json:"name"`
	Orders          int     `json:"orders"`
	TotalSpent      float64 `json:"totalSpent"`
	AvgTicket       float64 `json:"avgTicket"`
	FavoriteDay     string  `json:"favoriteDay"`
	FavoriteProduct string  `json:"favoriteProduct"`
}

// CustomerSegments counts distinct customers by order count: one order,
// two orders, and frequent (three or more).
type CustomerSegments struct {
	Occasional int `json:"occasional"`
	Returning  int `json:"returning"`
	Frequent   int `json:"frequent"`
}

type Patterns struct {
	PeakHours          []HourPattern     `json:"peakHours"`
	WeeklyPatterns     []DayPattern      `json:"weeklyPatterns"`
	FrequentCustomers  []CustomerPattern `json:"frequentCustomers"`
	TotalCustomers     int               `json:"totalCustomers"`
	RepeatCustomerRate float64           `json:"repeatCustomerRate"`
	Segments           CustomerSegments  `json:"segments"`
}

// AnalyzePatterns mines hour-of-day, day-of-week and per-customer habits
// from the completed orders matching filter. Hours and weekdays are read
// in tz; a nil tz keeps each timestamp's own location.
func AnalyzePatterns(orders []models.Order, filter models.Filter, tz *time.Location, loc *Locale) Patterns {
	var hours [24]*HourPattern
	var days [7]*DayPattern
	hourOrder := make([]int, 0, 24)
	customers := newCounter[string]()
	habits := make(map[string]*customerHabits)

	for _, o := range orders {
		if !o.IsCompleted() || !filter.Match(o) {
			continue
		}
		ts := o.Timestamp
		if tz != nil {
			ts = ts.In(tz)
		}
		h, d := ts.Hour(), ts.Weekday()
		if hours[h] == nil {
			hours[h] = &HourPattern{Hour: h, Label: hourLabel(h)}
			hourOrder = append(hourOrder, h)
		}
		hours[h].Orders++
		hours[h].Sales += o.Total
		if days[d] == nil {
			days[d] = &DayPattern{Day: d, Label: loc.Weekday(d)}
		}
		days[d].Orders++
		days[d].Sales += o.Total

		name := strings.TrimSpace(o.CustomerName)
		if name == "" {
			continue
		}
		customers.add(name, 1)
		ch, ok := habits[name]
		if !ok {
			ch = newCustomerHabits()
			habits[name] = ch
		}
		ch.observe(o, d)
	}

	p := Patterns{
		PeakHours:         make([]HourPattern, 0, len(hourOrder)),
		WeeklyPatterns:    []DayPattern{},
		FrequentCustomers: []CustomerPattern{},
		TotalCustomers:    len(customers.keys),
	}
	for _, h := range hourOrder {
		hp := *hours[h]
		hp.AvgTicket = ratio(hp.Sales, float64(hp.Orders))
		p.PeakHours = append(p.PeakHours, hp)
	}
	sort.SliceStable(p.PeakHours, func(i, j int) bool {
		return p.PeakHours[i].Orders > p.PeakHours[j].Orders
	})
	if len(p.PeakHours) > peakHoursLimit {
		p.PeakHours = p.PeakHours[:peakHoursLimit]
	}

	for _, dp := range days {
		if dp == nil {
			continue
		}
		day := *dp
		day.AvgTicket = ratio(day.Sales, float64(day.Orders))
		p.WeeklyPatterns = append(p.WeeklyPatterns, day)
	}

	for _, name := range customers.keys {
		n := customers.counts[name]
		switch {
		case n >= frequentOrderThreshold:
			p.Segments.Frequent++
		case n == 2:
			p.Segments.Returning++
		default:
			p.Segments.Occasional++
		}
		if n < frequentOrderThreshold {
			continue
		}
		ch := habits[name]
		favDay, _ := ch.days.argmax()
		favProduct, _ := ch.products.argmax()
		p.FrequentCustomers = append(p.FrequentCustomers, CustomerPattern{
			Name:            name,
			Orders:          n,
			TotalSpent:      ch.spent,
			AvgTicket:       ratio(ch.spent, float64(n)),
			FavoriteDay:     loc.Weekday(favDay),
			FavoriteProduct: favProduct,
		})
	}
	sort.SliceStable(p.FrequentCustomers, func(i, j int) bool {
		return p.FrequentCustomers[i].Orders > p.FrequentCustomers[j].Orders
	})
	p.RepeatCustomerRate = ratio(float64(p.Segments.Frequent), float64(p.TotalCustomers)) * 100
	if len(p.FrequentCustomers) > frequentCustomersLimit {
		p.FrequentCustomers = p.FrequentCustomers[:frequentCustomersLimit]
	}
	return p
}

type customerHabits struct {
	spent    float64
	days     *counter[time.Weekday]
	products *counter[string]
}

func newCustomerHabits() *customerHabits {
	return &customerHabits{days: newCounter[time.Weekday](), products: newCounter[string]()}
}

func (c *customerHabits) observe(o models.Order, weekday time.Weekday) {
	c.spent += o.Total
	c.days.add(weekday, 1)
	for _, item := range o.Items {
		c.products.add(item.ProductName, item.Quantity)
	}
}

// counter tallies keys and remembers the order they were first seen in.
type counter[K comparable] struct {
	keys   []K
	counts map[K]int
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(key K, n int) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key] += n
}

// argmax returns the highest-count key; ties go to the key seen first.
func (c *counter[K]) argmax() (K, int) {
	var best K
	bestCount := -1
	for _, k := range c.keys {
		if c.counts[k] > bestCount {
			best, bestCount = k, c.counts[k]
		}
	}
	return best, bestCount
}
