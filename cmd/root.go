package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chrisdamba/tillmetrics/internal/models"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tillmetrics",
	Short: "Generates restaurant till data and reports sales metrics over it",
	Long: `tillmetrics simulates the orders of a restaurant point of sale and turns
an order history into dashboard figures: KPIs, chart series, period
comparisons, customer patterns and products that need attention.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tillmetrics.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	rootCmd.PersistentFlags().String("database-dsn", "", "postgres connection string")
	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log-level":    "logger.level",
		"log-format":   "logger.format",
		"database-dsn": "database.dsn",
	})

	rootCmd.AddCommand(generateCmd, reportCmd)
}

// bindFlags maps flag names onto config keys so a flag set on the command
// line wins over the config file and the environment.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
