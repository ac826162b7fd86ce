package cmd

import (
	"bufio"
	"io"

	"golang.org/x/text/message"

	"github.com/chrisdamba/tillmetrics/internal/metrics"
)

// writeText prints the dashboard for a terminal. Numbers are grouped the
// way the locale's language groups them.
func writeText(w io.Writer, d *metrics.Dashboard, locale *metrics.Locale) error {
	bw := bufio.NewWriter(w)
	p := message.NewPrinter(locale.Tag)

	p.Fprintf(bw, "Generated %s (period %s)\n\n", locale.LongDate(d.GeneratedAt), d.Period)

	k := d.KPIs
	p.Fprintf(bw, "Sales          %14.2f\n", k.TotalSales)
	p.Fprintf(bw, "Orders         %14d\n", k.TotalOrders)
	p.Fprintf(bw, "Average ticket %14.2f\n", k.AverageTicket)
	p.Fprintf(bw, "Tax            %14.2f\n", k.TotalTax)
	p.Fprintf(bw, "Discounts      %14.2f\n", k.TotalDiscount)
	if len(k.TopProducts) > 0 {
		p.Fprintf(bw, "\nTop products\n")
		for i, tp := range k.TopProducts {
			p.Fprintf(bw, "  %d. %-28s %6d %12.2f\n", i+1, tp.Name, tp.Quantity, tp.Revenue)
		}
	}

	writeSeries(p, bw, "Last days", d.TimeSeries)
	writeSeries(p, bw, "By category", d.CategorySeries)
	writeSeries(p, bw, "By payment method", d.PaymentSeries)

	c := d.Comparison
	p.Fprintf(bw, "\nComparison (%s, %d periods)\n", c.ComparisonType, c.TotalPeriods)
	for _, pt := range c.MonthlyComparison {
		p.Fprintf(bw, "  %-22s %12.2f %6d %10.2f\n", pt.Period, pt.Sales, pt.Orders, pt.AverageTicket)
	}
	s := c.SeasonalComparison
	p.Fprintf(bw, "  %s: %.2f (%d orders)\n", s.Labels.Current, s.CurrentPeriod.Sales, s.CurrentPeriod.Orders)
	p.Fprintf(bw, "  %s: %.2f (%d orders)\n", s.Labels.Previous, s.PreviousPeriod.Sales, s.PreviousPeriod.Orders)
	if s.HasPriorData {
		p.Fprintf(bw, "  growth %+.1f%%, orders %+.1f%%\n", s.GrowthRate, s.OrdersGrowthRate)
	} else {
		p.Fprintf(bw, "  no sales in the previous period\n")
	}

	pat := d.Patterns
	p.Fprintf(bw, "\nPeak hours\n")
	for _, h := range pat.PeakHours {
		p.Fprintf(bw, "  %-6s %6d %12.2f\n", h.Label, h.Orders, h.Sales)
	}
	p.Fprintf(bw, "\nWeekdays\n")
	for _, day := range pat.WeeklyPatterns {
		p.Fprintf(bw, "  %-10s %6d %12.2f\n", day.Label, day.Orders, day.Sales)
	}
	p.Fprintf(bw, "\nCustomers %d, repeat rate %.1f%% (%d occasional, %d returning, %d frequent)\n",
		pat.TotalCustomers, pat.RepeatCustomerRate,
		pat.Segments.Occasional, pat.Segments.Returning, pat.Segments.Frequent)
	for _, cu := range pat.FrequentCustomers {
		p.Fprintf(bw, "  %-24s %4d %12.2f  %s, %s\n", cu.Name, cu.Orders, cu.TotalSpent, cu.FavoriteDay, cu.FavoriteProduct)
	}

	u := d.Underperforming
	p.Fprintf(bw, "\nProducts needing attention: %d of %d over %d days\n",
		u.UnderperformingCount, u.TotalProducts, u.AnalysisPeriodDays)
	for _, pp := range u.NeedsAttention {
		p.Fprintf(bw, "  %-28s sold %4d  idle %4d days  score %.1f\n",
			pp.Name, pp.TotalSold, pp.DaysSinceLastSale, pp.PerformanceScore)
	}
	for _, sg := range u.Suggestions {
		p.Fprintf(bw, "  - %s\n", sg.Message)
	}

	return bw.Flush()
}

func writeSeries(p *message.Printer, w io.Writer, title string, series []metrics.SeriesPoint) {
	if len(series) == 0 {
		return
	}
	p.Fprintf(w, "\n%s\n", title)
	for _, pt := range series {
		p.Fprintf(w, "  %-16s %12.2f %6d\n", pt.Label, pt.Sales, pt.Orders)
	}
}
