package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Sweep    SweepConfig
	Accounts AccountsConfig
	Alerts   AlertsConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// SweepConfig holds periodic sweep configuration
type SweepConfig struct {
	Enabled               bool
	Interval              time.Duration
	ExpiryWindow          time.Duration
	NotificationRetention time.Duration
}

// AccountsConfig names the chart-of-accounts codes the posting recipes use
type AccountsConfig struct {
	Inventory   string
	Payable     string
	Receivable  string
	Cash        string
	Sales       string
	CostOfGoods string
	TaxInput    string
	TaxOutput   string
}

// AlertsConfig holds alert delivery settings
type AlertsConfig struct {
	// Recipients are user IDs that receive stock alerts
	Recipients []string
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with LEDGER_ prefix (e.g., LEDGER_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// config file not found is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Sweep: SweepConfig{
			Enabled:               v.GetBool("sweep.enabled"),
			Interval:              v.GetDuration("sweep.interval"),
			ExpiryWindow:          v.GetDuration("sweep.expiry_window"),
			NotificationRetention: v.GetDuration("sweep.notification_retention"),
		},
		Accounts: AccountsConfig{
			Inventory:   v.GetString("accounts.inventory"),
			Payable:     v.GetString("accounts.payable"),
			Receivable:  v.GetString("accounts.receivable"),
			Cash:        v.GetString("accounts.cash"),
			Sales:       v.GetString("accounts.sales"),
			CostOfGoods: v.GetString("accounts.cost_of_goods"),
			TaxInput:    v.GetString("accounts.tax_input"),
			TaxOutput:   v.GetString("accounts.tax_output"),
		},
		Alerts: AlertsConfig{
			Recipients: v.GetStringSlice("alerts.recipients"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "ledgercore-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "ledgercore"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Sweep.Interval == 0 {
		cfg.Sweep.Interval = 15 * time.Minute
	}
	if cfg.Sweep.ExpiryWindow == 0 {
		cfg.Sweep.ExpiryWindow = 7 * 24 * time.Hour
	}
	if cfg.Sweep.NotificationRetention == 0 {
		cfg.Sweep.NotificationRetention = 30 * 24 * time.Hour
	}
	if cfg.Accounts.Inventory == "" {
		cfg.Accounts.Inventory = "1400"
	}
	if cfg.Accounts.Payable == "" {
		cfg.Accounts.Payable = "2100"
	}
	if cfg.Accounts.Receivable == "" {
		cfg.Accounts.Receivable = "1200"
	}
	if cfg.Accounts.Cash == "" {
		cfg.Accounts.Cash = "1000"
	}
	if cfg.Accounts.Sales == "" {
		cfg.Accounts.Sales = "4000"
	}
	if cfg.Accounts.CostOfGoods == "" {
		cfg.Accounts.CostOfGoods = "5000"
	}
	if cfg.Accounts.TaxInput == "" {
		cfg.Accounts.TaxInput = "1450"
	}
	if cfg.Accounts.TaxOutput == "" {
		cfg.Accounts.TaxOutput = "2200"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
