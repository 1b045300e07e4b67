package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"data_source"`
	Tickers struct {
		SP500CSV  string `yaml:"sp500_csv"`
		NasdaqCSV string `yaml:"nasdaq_csv"`
	} `yaml:"tickers"`
	Fetch struct {
		LookbackDays   int     `yaml:"lookback_days"`
		MaxAttempts    int     `yaml:"max_attempts"`
		BackoffBaseMS  int     `yaml:"backoff_base_ms"`
		BackoffMaxMS   int     `yaml:"backoff_max_ms"`
		JitterMinMS    int     `yaml:"jitter_min_ms"`
		JitterMaxMS    int     `yaml:"jitter_max_ms"`
		CooldownMinMS  int     `yaml:"cooldown_min_ms"`
		CooldownMaxMS  int     `yaml:"cooldown_max_ms"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"fetch"`
	Batch struct {
		Concurrency    int `yaml:"concurrency"`
		FreshnessHours int `yaml:"freshness_hours"`
	} `yaml:"batch"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SP500_CSV"); v != "" {
		cfg.Tickers.SP500CSV = v
	}
	if v := os.Getenv("NASDAQ_CSV"); v != "" {
		cfg.Tickers.NasdaqCSV = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REFRESH_CRON"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CONCURRENCY"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			cfg.Batch.Concurrency = n
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.Tickers.SP500CSV == "" {
		cfg.Tickers.SP500CSV = "data/sp500.csv"
	}
	if cfg.Tickers.NasdaqCSV == "" {
		cfg.Tickers.NasdaqCSV = "data/nasdaq.csv"
	}
	if cfg.Fetch.LookbackDays == 0 {
		cfg.Fetch.LookbackDays = 150
	}
	if cfg.Fetch.MaxAttempts == 0 {
		cfg.Fetch.MaxAttempts = 5
	}
	if cfg.Fetch.BackoffBaseMS == 0 {
		cfg.Fetch.BackoffBaseMS = 2000
	}
	if cfg.Fetch.BackoffMaxMS == 0 {
		cfg.Fetch.BackoffMaxMS = 30000
	}
	if cfg.Fetch.JitterMinMS == 0 {
		cfg.Fetch.JitterMinMS = 2000
	}
	if cfg.Fetch.JitterMaxMS == 0 {
		cfg.Fetch.JitterMaxMS = 5000
	}
	if cfg.Fetch.CooldownMinMS == 0 {
		cfg.Fetch.CooldownMinMS = 10000
	}
	if cfg.Fetch.CooldownMaxMS == 0 {
		cfg.Fetch.CooldownMaxMS = 30000
	}
	if cfg.Fetch.RequestsPerSec == 0 {
		cfg.Fetch.RequestsPerSec = 1
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 10
	}
	if cfg.Batch.FreshnessHours == 0 {
		cfg.Batch.FreshnessHours = 24
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stock_metrics.db"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 22 * * 1-5"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.Provider != "yahoo" && c.DataSource.Provider != "mock" {
		return fmt.Errorf("data_source.provider must be yahoo or mock")
	}
	if c.Fetch.LookbackDays <= 0 {
		return fmt.Errorf("fetch.lookback_days must be positive")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be positive")
	}
	if c.Fetch.RequestsPerSec <= 0 {
		return fmt.Errorf("fetch.requests_per_sec must be positive")
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive")
	}
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	return nil
}
