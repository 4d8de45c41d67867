package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"parking-service/internal/money"
	"parking-service/internal/parking"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type BillingConfig struct {
	Timezone     string
	Location     *time.Location
	DefaultRates parking.RateTable
}

type AnalyticsConfig struct {
	Comparison parking.ComparisonPolicy
}

type MetricsConfig struct {
	Enabled bool
}

// SourceConfig points at the upstream realtime database that sensors push
// plate scans into. An empty URL disables syncing.
type SourceConfig struct {
	URL       string
	Node      string
	AuthToken string
	Timeout   time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Billing     BillingConfig
	Analytics   AnalyticsConfig
	Metrics     MetricsConfig
	Source      SourceConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	v.SetDefault("APP_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("BILLING_DEFAULT_RATE_CAR", "20")
	v.SetDefault("BILLING_DEFAULT_RATE_BIKE", "10")
	v.SetDefault("BILLING_DEFAULT_RATE_TRUCK", "50")
	v.SetDefault("ANALYTICS_COMPARISON", string(parking.CompareShiftDays))
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("SOURCE_NODE", "numberplate")
	v.SetDefault("SOURCE_TIMEOUT", "30s")

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Billing: BillingConfig{
			Timezone: v.GetString("APP_TIMEZONE"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
		Source: SourceConfig{
			URL:       v.GetString("SOURCE_URL"),
			Node:      v.GetString("SOURCE_NODE"),
			AuthToken: v.GetString("SOURCE_AUTH_TOKEN"),
			Timeout:   v.GetDuration("SOURCE_TIMEOUT"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB.MaxOpenConns = 10
	}
	if cfg.DB.MaxIdleConns == 0 {
		cfg.DB.MaxIdleConns = 5
	}
	if cfg.DB.ConnMaxLifetime == 0 {
		cfg.DB.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Source.Node == "" {
		cfg.Source.Node = "numberplate"
	}
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 30 * time.Second
	}

	loc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Billing.Timezone, err)
	}
	cfg.Billing.Location = loc

	rates, err := defaultRates(v)
	if err != nil {
		return nil, err
	}
	cfg.Billing.DefaultRates = rates

	comparison, err := parking.ParseComparisonPolicy(v.GetString("ANALYTICS_COMPARISON"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_COMPARISON: %w", err)
	}
	cfg.Analytics.Comparison = comparison

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultRates(v *viper.Viper) (parking.RateTable, error) {
	var table parking.RateTable
	fields := []struct {
		key    string
		target *money.Decimal
	}{
		{"BILLING_DEFAULT_RATE_CAR", &table.Car},
		{"BILLING_DEFAULT_RATE_BIKE", &table.Bike},
		{"BILLING_DEFAULT_RATE_TRUCK", &table.Truck},
	}
	for _, f := range fields {
		d, err := money.NewDecimal(v.GetString(f.key))
		if err != nil {
			return parking.RateTable{}, fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.target = d
	}
	return table, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if err := cfg.Billing.DefaultRates.Validate(); err != nil {
		return fmt.Errorf("invalid default rates: %w", err)
	}
	return nil
}
