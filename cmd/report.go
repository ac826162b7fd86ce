package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/tillmetrics/internal/logging"
	"github.com/chrisdamba/tillmetrics/internal/metrics"
	"github.com/chrisdamba/tillmetrics/internal/models"
	"github.com/chrisdamba/tillmetrics/internal/repositories"
	"github.com/chrisdamba/tillmetrics/internal/repositories/jsonl"
	"github.com/chrisdamba/tillmetrics/internal/repositories/postgres"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute the sales dashboard over an order history",
	Long: `report loads orders and the catalog from a json lines tree written by
"generate --output-format json" or from postgres, and prints KPIs, chart
series, period comparisons, customer patterns and products needing
attention.`,
	RunE: runReport,
}

func init() {
	flags := reportCmd.Flags()
	flags.String("source", "", "jsonl or postgres")
	flags.String("input", "", "root of the json lines tree (default output-path/output-folder)")
	flags.String("period", "", "kpi period: today, week, month or custom")
	flags.String("from", "", "range start, RFC3339 or 2006-01-02")
	flags.String("to", "", "range end, RFC3339 or 2006-01-02 (whole day)")
	flags.String("category", "", "only orders with a line in this category")
	flags.String("payment-method", "", "only orders paid this way")
	flags.String("anchor", "", "seasonal anchor: yesterday, lastWeek, lastMonth, lastQuarter or previousYear")
	flags.String("format", "", "json or text")
	flags.String("locale", "", "label language, e.g. en or es-MX")

	bindFlags(flags, map[string]string{
		"source":         "report.source",
		"input":          "report.input",
		"period":         "report.period",
		"from":           "report.from",
		"to":             "report.to",
		"category":       "report.category",
		"payment-method": "report.payment_method",
		"anchor":         "report.anchor",
		"format":         "report.format",
		"locale":         "report.locale",
	})
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logger)
	ctx := cmd.Context()

	filter, period, err := buildFilter(cfg.Report, time.Local)
	if err != nil {
		return err
	}

	src, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	orders, err := src.Orders(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}
	catalog, err := src.Products(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	logger.Debug("history loaded", "orders", len(orders), "products", len(catalog))

	locale := metrics.LocaleFor(cfg.Report.Locale)
	analyzer := metrics.NewAnalyzer(cfg.Scoring, metrics.WithLocale(locale))
	dashboard, err := analyzer.Dashboard(ctx, orders, catalog, filter, period)
	if err != nil {
		return err
	}

	switch strings.ToLower(cfg.Report.Format) {
	case "", "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dashboard)
	case "text":
		return writeText(cmd.OutOrStdout(), dashboard, locale)
	default:
		return fmt.Errorf("unsupported report format %q", cfg.Report.Format)
	}
}

// buildFilter turns the report settings into an engine filter. Date-only
// bounds are read in loc; a date-only end covers that whole day.
func buildFilter(rc models.ReportConfig, loc *time.Location) (models.Filter, models.Period, error) {
	period, err := models.ParsePeriod(rc.Period)
	if err != nil {
		return models.Filter{}, "", err
	}
	anchor, err := models.ParseAnchor(rc.Anchor)
	if err != nil {
		return models.Filter{}, "", err
	}
	filter := models.Filter{
		Category:      rc.Category,
		PaymentMethod: rc.PaymentMethod,
		Anchor:        anchor,
	}

	if rc.From == "" && rc.To == "" {
		if period == models.PeriodCustom {
			return models.Filter{}, "", fmt.Errorf("period %q needs --from and --to", period)
		}
		return filter, period, nil
	}
	if rc.From == "" || rc.To == "" {
		return models.Filter{}, "", fmt.Errorf("a date range needs both --from and --to")
	}
	from, err := parseBound(rc.From, loc, false)
	if err != nil {
		return models.Filter{}, "", err
	}
	to, err := parseBound(rc.To, loc, true)
	if err != nil {
		return models.Filter{}, "", err
	}
	if to.Before(from) {
		return models.Filter{}, "", fmt.Errorf("range end %s is before its start %s", rc.To, rc.From)
	}
	filter.DateRange = &models.DateRange{Start: from, End: to}
	return filter, period, nil
}

func parseBound(s string, loc *time.Location, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC3339 or %s", s, time.DateOnly)
	}
	if end {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

func openSource(ctx context.Context, cfg *models.Config, logger *slog.Logger) (repositories.OrderSource, func(), error) {
	switch cfg.Report.Source {
	case "", "jsonl":
		input := cfg.Report.Input
		if input == "" {
			if cfg.OutputPath == "" {
				return nil, nil, fmt.Errorf("no input: set --input or output_path")
			}
			input = filepath.Join(cfg.OutputPath, cfg.OutputFolder)
		}
		return jsonl.NewSource(input, logger), func() {}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSource(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported report source %q", cfg.Report.Source)
	}
}
