package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/tillmetrics/internal/logging"
	"github.com/chrisdamba/tillmetrics/internal/simulator"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Simulate till orders and write them to an output",
	Long: `generate builds a product catalog and a customer base from a seed and
simulates every order between start_date and end_date, writing products
and orders to the console, partitioned json, csv or parquet files, kafka or
postgres.`,
	RunE: runGenerate,
}

func init() {
	flags := generateCmd.Flags()
	flags.Int("seed", 0, "random seed; the same seed reproduces the same data")
	flags.String("start-date", "", "first instant simulated, RFC3339 (default six months ago)")
	flags.String("end-date", "", "end of the simulation, RFC3339 (default now)")
	flags.Float64("orders-per-day", 0, "average orders on a plain weekday")
	flags.Int("customers", 0, "number of named customers")
	flags.Int("products", 0, "number of catalog products")
	flags.String("output-format", "", "console, json, csv, parquet, kafka or postgres")
	flags.String("output-path", "", "base directory for file outputs")
	flags.String("output-folder", "", "folder under output-path holding the topics")
	flags.String("kafka-broker-list", "", "comma separated kafka brokers")
	flags.Bool("progress", true, "draw a progress bar on stderr")

	bindFlags(flags, map[string]string{
		"seed":              "seed",
		"start-date":        "start_date",
		"end-date":          "end_date",
		"orders-per-day":    "orders_per_day",
		"customers":         "customers",
		"products":          "products",
		"output-format":     "output_format",
		"output-path":       "output_path",
		"output-folder":     "output_folder",
		"kafka-broker-list": "kafka_broker_list",
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logger)

	opts := []simulator.Option{simulator.WithStdout(cmd.OutOrStdout())}
	if progress, _ := cmd.Flags().GetBool("progress"); progress && cfg.OutputFormat != "console" && cfg.OutputFormat != "" {
		opts = append(opts, simulator.WithProgress(os.Stderr))
	}

	sim := simulator.NewSimulator(cfg, logger, opts...)
	orders, products, err := sim.Run(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("generation finished",
		"orders", len(orders),
		"products", len(products),
		"format", cfg.OutputFormat)
	return nil
}
