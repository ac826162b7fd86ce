package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type PaymentWeight struct {
	Method string  `mapstructure:"method"`
	Weight float64 `mapstructure:"weight"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type LoggerConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"` // "text" or "json"
	AddSource bool   `mapstructure:"add_source"`
}

// ScoringConfig holds the heuristics of the underperforming product detector.
type ScoringConfig struct {
	SalesWeight         float64 `mapstructure:"sales_weight"`
	RevenueWeight       float64 `mapstructure:"revenue_weight"`
	RecencyWeight       float64 `mapstructure:"recency_weight"`
	DefaultPeriodDays   int     `mapstructure:"default_period_days"`
	NeverSoldDays       int     `mapstructure:"never_sold_days"`
	AttentionRatio      float64 `mapstructure:"attention_ratio"`
	MinAttentionDays    int     `mapstructure:"min_attention_days"`
	MinRevenueShare     float64 `mapstructure:"min_revenue_share"`     // percent
	LongIdleRatio       float64 `mapstructure:"long_idle_ratio"`       // of the period
	LowSalesFactor      float64 `mapstructure:"low_sales_factor"`      // units per period
	RemovalRevenueShare float64 `mapstructure:"removal_revenue_share"` // percent
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		SalesWeight:         0.4,
		RevenueWeight:       0.4,
		RecencyWeight:       0.2,
		DefaultPeriodDays:   30,
		NeverSoldDays:       999,
		AttentionRatio:      0.25,
		MinAttentionDays:    3,
		MinRevenueShare:     2,
		LongIdleRatio:       0.5,
		LowSalesFactor:      0.5,
		RemovalRevenueShare: 1,
	}
}

type ReportConfig struct {
	Source        string `mapstructure:"source"` // "jsonl" or "postgres"
	Input         string `mapstructure:"input"`
	Format        string `mapstructure:"format"` // "json" or "text"
	Locale        string `mapstructure:"locale"`
	Period        string `mapstructure:"period"`
	Anchor        string `mapstructure:"anchor"`
	Category      string `mapstructure:"category"`
	PaymentMethod string `mapstructure:"payment_method"`
	From          string `mapstructure:"from"`
	To            string `mapstructure:"to"`
}

type Config struct {
	Seed                int             `mapstructure:"seed"`
	StartDate           time.Time       `mapstructure:"start_date"`
	EndDate             time.Time       `mapstructure:"end_date"`
	OrdersPerDay        float64         `mapstructure:"orders_per_day"`
	Customers           int             `mapstructure:"customers"`
	Products            int             `mapstructure:"products"`
	Tables              int             `mapstructure:"tables"`
	TakeoutRate         float64         `mapstructure:"takeout_rate"`
	CancelRate          float64         `mapstructure:"cancel_rate"`
	PendingRate         float64         `mapstructure:"pending_rate"`
	TaxRate             float64         `mapstructure:"tax_rate"`
	DiscountPercentage  float64         `mapstructure:"discount_percentage"`
	MinOrderForDiscount float64         `mapstructure:"min_order_for_discount"`
	MaxDiscountAmount   float64         `mapstructure:"max_discount_amount"`
	MinPrepTime         int             `mapstructure:"min_prep_time"`
	MaxPrepTime         int             `mapstructure:"max_prep_time"`
	PeakHourFactor      float64         `mapstructure:"peak_hour_factor"`
	WeekendFactor       float64         `mapstructure:"weekend_factor"`
	PaymentWeights      []PaymentWeight `mapstructure:"payment_weights"`

	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputDestination string             `mapstructure:"output_destination"` // "local" or a cloud provider
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
	KafkaBrokerList   string             `mapstructure:"kafka_broker_list"`
	KafkaTopic        string             `mapstructure:"kafka_topic"`
	SessionTimeoutMs  int                `mapstructure:"session_timeout_ms"`
	Database          DatabaseConfig     `mapstructure:"database"`

	Logger  LoggerConfig  `mapstructure:"logger"`
	Scoring ScoringConfig `mapstructure:"scoring"`
	Report  ReportConfig  `mapstructure:"report"`
}

func SetDefaults(v *viper.Viper, now time.Time) {
	v.SetDefault("seed", 42)
	v.SetDefault("start_date", now.AddDate(0, -6, 0).Format(time.RFC3339))
	v.SetDefault("end_date", now.Format(time.RFC3339))
	v.SetDefault("orders_per_day", 40.0)
	v.SetDefault("customers", 150)
	v.SetDefault("products", 24)
	v.SetDefault("tables", 12)
	v.SetDefault("takeout_rate", 0.35)
	v.SetDefault("cancel_rate", 0.04)
	v.SetDefault("pending_rate", 0.02)
	v.SetDefault("tax_rate", 0.16)
	v.SetDefault("discount_percentage", 0.1)
	v.SetDefault("min_order_for_discount", 40.0)
	v.SetDefault("max_discount_amount", 15.0)
	v.SetDefault("min_prep_time", 5)
	v.SetDefault("max_prep_time", 35)
	v.SetDefault("peak_hour_factor", 1.5)
	v.SetDefault("weekend_factor", 1.3)
	v.SetDefault("payment_weights", []map[string]interface{}{
		{"method": PaymentMethodCard, "weight": 0.55},
		{"method": PaymentMethodCash, "weight": 0.3},
		{"method": PaymentMethodTransfer, "weight": 0.1},
		{"method": PaymentMethodWallet, "weight": 0.05},
	})

	v.SetDefault("output_format", "console")
	v.SetDefault("output_folder", "orders")
	v.SetDefault("output_destination", "local")
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic", "orders")
	v.SetDefault("database.max_conns", 4)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")

	d := DefaultScoringConfig()
	v.SetDefault("scoring.sales_weight", d.SalesWeight)
	v.SetDefault("scoring.revenue_weight", d.RevenueWeight)
	v.SetDefault("scoring.recency_weight", d.RecencyWeight)
	v.SetDefault("scoring.default_period_days", d.DefaultPeriodDays)
	v.SetDefault("scoring.never_sold_days", d.NeverSoldDays)
	v.SetDefault("scoring.attention_ratio", d.AttentionRatio)
	v.SetDefault("scoring.min_attention_days", d.MinAttentionDays)
	v.SetDefault("scoring.min_revenue_share", d.MinRevenueShare)
	v.SetDefault("scoring.long_idle_ratio", d.LongIdleRatio)
	v.SetDefault("scoring.low_sales_factor", d.LowSalesFactor)
	v.SetDefault("scoring.removal_revenue_share", d.RemovalRevenueShare)

	v.SetDefault("report.source", "jsonl")
	v.SetDefault("report.format", "json")
	v.SetDefault("report.locale", "en")
	v.SetDefault("report.period", string(PeriodMonth))
	v.SetDefault("report.anchor", string(AnchorPreviousYear))
}

// LoadConfig reads the optional config file plus environment into a Config.
// Environment variables use underscores, e.g. SCORING_SALES_WEIGHT.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v, time.Now())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("examples")
		v.SetConfigName("tillmetrics")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if !config.EndDate.After(config.StartDate) {
		return nil, fmt.Errorf("end_date %s must be after start_date %s",
			config.EndDate.Format(time.RFC3339), config.StartDate.Format(time.RFC3339))
	}
	return &config, nil
}
