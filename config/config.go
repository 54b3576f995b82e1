package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Oiscan    OiscanConfig    `yaml:"oiscan"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Watch     WatchConfig     `yaml:"watch"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type OiscanConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ExchangeConfig struct {
	// QuoteAsset restricts the scan to perpetuals quoted in this asset.
	QuoteAsset     string               `yaml:"quote_asset"`
	RestURL        string               `yaml:"rest_url"`
	WsURL          string               `yaml:"ws_url"`
	TimeoutMs      int                  `yaml:"timeout_ms"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns      int `yaml:"max_idle_conns"`
	MaxConnsPerHost   int `yaml:"max_conns_per_host"`
	IdleConnTimeoutMs int `yaml:"idle_conn_timeout_ms"`
}

type ScannerConfig struct {
	// Concurrency bounds the number of in-flight open-interest lookups.
	// Too high trips the exchange abuse limits, too low wastes the scan's
	// time budget.
	Concurrency int `yaml:"concurrency"`
	// MinQuoteVolume and MinOpenInterestValue form the inclusion filter:
	// a row survives when either threshold is exceeded.
	MinQuoteVolume       float64 `yaml:"min_quote_volume"`
	MinOpenInterestValue float64 `yaml:"min_open_interest_value"`
}

type WatchConfig struct {
	Buffer           int `yaml:"buffer"`
	ReconnectDelayMs int `yaml:"reconnect_delay_ms"`
	StreamIntervalS  int `yaml:"stream_interval_s"`
}

type DashboardConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Address           string `yaml:"address"`
	RefreshIntervalMs int    `yaml:"refresh_interval_ms"`
}

type MetricsConfig struct {
	CloudWatchEnabled bool   `yaml:"cloudwatch_enabled"`
	Region            string `yaml:"region"`
	Namespace         string `yaml:"namespace"`
	DashboardName     string `yaml:"dashboard_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// Timeout returns the HTTP client timeout for exchange requests.
func (e ExchangeConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// IdleConnTimeout returns the idle connection timeout for the pooled transport.
func (c ConnectionPoolConfig) IdleConnTimeout() time.Duration {
	return time.Duration(c.IdleConnTimeoutMs) * time.Millisecond
}

// ReconnectDelay returns the websocket reconnect backoff.
func (w WatchConfig) ReconnectDelay() time.Duration {
	return time.Duration(w.ReconnectDelayMs) * time.Millisecond
}

// StreamInterval returns the requested open-interest stream cadence.
func (w WatchConfig) StreamInterval() time.Duration {
	return time.Duration(w.StreamIntervalS) * time.Second
}

// RefreshInterval returns how often the dashboard page polls for updates.
func (d DashboardConfig) RefreshInterval() time.Duration {
	return time.Duration(d.RefreshIntervalMs) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Exchange: ExchangeConfig{
			QuoteAsset: "USDT",
			TimeoutMs:  10000,
			RateLimit:  RateLimitConfig{RequestsPerSecond: 10, BurstSize: 20},
		},
		Scanner: ScannerConfig{
			Concurrency:          20,
			MinQuoteVolume:       10000,
			MinOpenInterestValue: 10000,
		},
		Watch: WatchConfig{
			Buffer:           256,
			ReconnectDelayMs: 5000,
		},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override AWS settings from environment variables if available
	if config.Metrics.CloudWatchEnabled {
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Metrics.Region = strings.TrimSpace(v)
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Oiscan.Name == "" {
		return fmt.Errorf("oiscan.name is required")
	}

	if cfg.Oiscan.Version == "" {
		return fmt.Errorf("oiscan.version is required")
	}

	if cfg.Exchange.QuoteAsset == "" {
		return fmt.Errorf("exchange.quote_asset is required")
	}

	if cfg.Exchange.TimeoutMs <= 0 {
		return fmt.Errorf("exchange.timeout_ms must be greater than 0")
	}

	if cfg.Exchange.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("exchange.rate_limit.requests_per_second must be greater than 0")
	}

	if cfg.Scanner.Concurrency <= 0 {
		return fmt.Errorf("scanner.concurrency must be greater than 0")
	}

	if cfg.Scanner.MinQuoteVolume < 0 || cfg.Scanner.MinOpenInterestValue < 0 {
		return fmt.Errorf("scanner thresholds must not be negative")
	}

	if cfg.Watch.Buffer <= 0 {
		return fmt.Errorf("watch.buffer must be greater than 0")
	}

	if cfg.Dashboard.Enabled && cfg.Dashboard.Address == "" {
		return fmt.Errorf("dashboard.address is required when the dashboard is enabled")
	}

	return nil
}
