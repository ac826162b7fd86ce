package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

const suggestionsLimit = 5

type SuggestionKind string

const (
	SuggestPromote           SuggestionKind = "promote"
	SuggestReviewPrice       SuggestionKind = "review_price"
	SuggestEvaluateRemoval   SuggestionKind = "evaluate_removal"
	SuggestImproveVisibility SuggestionKind = "improve_visibility"
)

// ProductPerformance is a catalog product with the figures derived for one
// analysis period. The embedded product is a copy; the catalog is untouched.
type ProductPerformance struct {
	models.Product
	TotalSold         int        `json:"totalSold"`
	Revenue           float64    `json:"revenue"`
	OrderCount        int        `json:"orderCount"`
	LastSold          *time.Time `json:"lastSold"`
	DaysSinceLastSale int        `json:"daysSinceLastSale"`
	SalesRate         float64    `json:"salesRate"`
	RevenuePercentage float64    `json:"revenuePercentage"`
	PerformanceScore  float64    `json:"performanceScore"`
}

type Suggestion struct {
	ProductID   string         `json:"productId"`
	ProductName string         `json:"productName"`
	Kind        SuggestionKind `json:"kind"`
	Message     string         `json:"message"`
}

type Underperformance struct {
	AllProducts          []ProductPerformance `json:"allProducts"`
	NeedsAttention       []ProductPerformance `json:"needsAttention"`
	Suggestions          []Suggestion         `json:"suggestions"`
	TotalProducts        int                  `json:"totalProducts"`
	UnderperformingCount int                  `json:"underperformingCount"`
	AnalysisPeriodDays   int                  `json:"analysisPeriodDays"`
	AttentionThreshold   int                  `json:"attentionThreshold"`
}

// DetectUnderperforming scores every catalog product over the analysis
// period and flags the ones that sell too rarely, too little or not at all.
func DetectUnderperforming(orders []models.Order, catalog []models.Product, filter models.Filter, now time.Time, cfg models.ScoringConfig) Underperformance {
	cfg = withScoringDefaults(cfg)

	period := cfg.DefaultPeriodDays
	window := trailing(now, period)
	// idle days count up to the end of a past range, not up to now
	reference := now
	if filter.HasRange() {
		window = inLocation(*filter.DateRange, now.Location())
		if span := window.SpanDays(); span > 0 {
			period = span
		}
		if window.End.Before(now) {
			reference = window.End
		}
	}
	fperiod := float64(period)

	byID := make(map[string]int, len(catalog))
	byName := make(map[string]int, len(catalog))
	perf := make([]ProductPerformance, len(catalog))
	for i, p := range catalog {
		perf[i] = ProductPerformance{Product: p}
		if _, ok := byID[p.ID]; !ok && p.ID != "" {
			byID[p.ID] = i
		}
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = i
		}
	}

	var totalRevenue float64
	for _, o := range orders {
		if !o.IsCompleted() || !filter.MatchAttributes(o) || !window.Contains(o.Timestamp) {
			continue
		}
		totalRevenue += o.Total
		seen := make(map[int]bool, len(o.Items))
		for _, item := range o.Items {
			i, ok := byID[item.ProductID]
			if !ok {
				if i, ok = byName[item.ProductName]; !ok {
					continue
				}
			}
			p := &perf[i]
			p.TotalSold += item.Quantity
			p.Revenue += item.Subtotal
			if !seen[i] {
				seen[i] = true
				p.OrderCount++
			}
			if p.LastSold == nil || o.Timestamp.After(*p.LastSold) {
				ts := o.Timestamp
				p.LastSold = &ts
			}
		}
	}

	for i := range perf {
		p := &perf[i]
		p.DaysSinceLastSale = cfg.NeverSoldDays
		if p.LastSold != nil {
			p.DaysSinceLastSale = max(0, int(reference.Sub(*p.LastSold).Hours()/24))
		}
		p.SalesRate = ratio(float64(p.TotalSold), fperiod)
		p.RevenuePercentage = ratio(p.Revenue, totalRevenue) * 100
		p.PerformanceScore = cfg.SalesWeight*p.SalesRate +
			cfg.RevenueWeight*p.RevenuePercentage +
			cfg.RecencyWeight*float64(period-p.DaysSinceLastSale)
	}
	sort.SliceStable(perf, func(i, j int) bool {
		return perf[i].PerformanceScore < perf[j].PerformanceScore
	})

	threshold := max(cfg.MinAttentionDays, int(math.Floor(fperiod*cfg.AttentionRatio)))
	result := Underperformance{
		AllProducts:        perf,
		NeedsAttention:     []ProductPerformance{},
		Suggestions:        []Suggestion{},
		TotalProducts:      len(perf),
		AnalysisPeriodDays: period,
		AttentionThreshold: threshold,
	}
	for _, p := range perf {
		if p.DaysSinceLastSale > threshold || p.SalesRate < 1/fperiod || p.RevenuePercentage < cfg.MinRevenueShare {
			result.NeedsAttention = append(result.NeedsAttention, p)
		}
	}
	result.UnderperformingCount = len(result.NeedsAttention)

	for i, p := range result.NeedsAttention {
		if i == suggestionsLimit {
			break
		}
		result.Suggestions = append(result.Suggestions, suggest(p, period, cfg))
	}
	return result
}

func suggest(p ProductPerformance, period int, cfg models.ScoringConfig) Suggestion {
	s := Suggestion{ProductID: p.ID, ProductName: p.Name}
	longIdle := int(math.Floor(float64(period) * cfg.LongIdleRatio))
	switch {
	case p.DaysSinceLastSale > longIdle:
		s.Kind = SuggestPromote
		if p.LastSold == nil {
			s.Message = fmt.Sprintf("%s has not sold in the last %d days; run a promotion or discount", p.Name, period)
		} else {
			s.Message = fmt.Sprintf("%s has not sold for %d days; run a promotion or discount", p.Name, p.DaysSinceLastSale)
		}
	case p.SalesRate < cfg.LowSalesFactor/float64(period):
		s.Kind = SuggestReviewPrice
		s.Message = fmt.Sprintf("%s sells %.2f units a day; review its price and presentation", p.Name, p.SalesRate)
	case p.RevenuePercentage < cfg.RemovalRevenueShare:
		s.Kind = SuggestEvaluateRemoval
		s.Message = fmt.Sprintf("%s brings %.2f%% of revenue; consider removing it from the menu", p.Name, p.RevenuePercentage)
	default:
		s.Kind = SuggestImproveVisibility
		s.Message = fmt.Sprintf("%s could use a better spot on the menu", p.Name)
	}
	return s
}

// withScoringDefaults fills every zero or negative field from
// models.DefaultScoringConfig, so a partial config only overrides what it sets.
func withScoringDefaults(cfg models.ScoringConfig) models.ScoringConfig {
	def := models.DefaultScoringConfig()
	orFloat := func(v *float64, d float64) {
		if *v <= 0 {
			*v = d
		}
	}
	orInt := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	orFloat(&cfg.SalesWeight, def.SalesWeight)
	orFloat(&cfg.RevenueWeight, def.RevenueWeight)
	orFloat(&cfg.RecencyWeight, def.RecencyWeight)
	orInt(&cfg.DefaultPeriodDays, def.DefaultPeriodDays)
	orInt(&cfg.NeverSoldDays, def.NeverSoldDays)
	orFloat(&cfg.AttentionRatio, def.AttentionRatio)
	orInt(&cfg.MinAttentionDays, def.MinAttentionDays)
	orFloat(&cfg.MinRevenueShare, def.MinRevenueShare)
	orFloat(&cfg.LongIdleRatio, def.LongIdleRatio)
	orFloat(&cfg.LowSalesFactor, def.LowSalesFactor)
	orFloat(&cfg.RemovalRevenueShare, def.RemovalRevenueShare)
	return cfg
}
