// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ebay      EbayConfig      `yaml:"ebay"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Debug     DebugConfig     `yaml:"debug"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EbayConfig defines eBay API settings. Credentials are optional at load
// time: without them the server starts, reports itself unready and answers
// lookups with a configuration error.
type EbayConfig struct {
	AppID             string          `yaml:"app_id"`
	CertID            string          `yaml:"cert_id"`
	TokenURL          string          `yaml:"token_url"`
	BrowseURL         string          `yaml:"browse_url"`
	AnalyticsURL      string          `yaml:"analytics_url"`
	Marketplace       string          `yaml:"marketplace"`
	CategoryID        string          `yaml:"category_id"`
	QuotaSyncInterval time.Duration   `yaml:"quota_sync_interval"` // zero disables
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
}

// HasCredentials reports whether both halves of the client credentials are
// set.
func (e *EbayConfig) HasCredentials() bool {
	return e.AppID != "" && e.CertID != ""
}

// RateLimitConfig defines spacing, quota and backoff for one upstream.
type RateLimitConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
	DailyLimit  int64         `yaml:"daily_limit"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max"`
}

// ScrapeConfig defines the degraded HTML search source.
type ScrapeConfig struct {
	Enabled   bool            `yaml:"enabled"`
	URL       string          `yaml:"url"`
	UserAgent string          `yaml:"user_agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// CacheConfig defines the listings cache.
type CacheConfig struct {
	ListingsTTL   time.Duration `yaml:"listings_ttl"`
	StaleTTL      time.Duration `yaml:"stale_ttl"`
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// SearchConfig defines the pass cascade.
type SearchConfig struct {
	MinResults   int           `yaml:"min_results"`
	PageSize     int           `yaml:"page_size"`
	DefaultLimit int           `yaml:"default_limit"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// TelemetryConfig defines OpenTelemetry trace export. An empty endpoint
// disables export.
type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	Insecure     bool    `yaml:"insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DebugConfig toggles diagnostics.
type DebugConfig struct {
	Verbose    bool `yaml:"verbose"`     // force debug logging
	CaptureRaw bool `yaml:"capture_raw"` // log raw upstream bodies at debug
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied, for commands
// that run without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyEbayDefaults(&cfg.Ebay)
	applyScrapeDefaults(&cfg.Scrape)
	applyCacheDefaults(&cfg.Cache)
	applySearchDefaults(&cfg.Search)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyEbayDefaults(e *EbayConfig) {
	if e.TokenURL == "" {
		e.TokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	}
	if e.BrowseURL == "" {
		e.BrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	}
	if e.AnalyticsURL == "" {
		e.AnalyticsURL = "https://api.ebay.com/developer/analytics/v1_beta/rate_limit/"
	}
	if e.Marketplace == "" {
		e.Marketplace = "EBAY_US"
	}
	if e.CategoryID == "" {
		e.CategoryID = "261328"
	}
	if e.QuotaSyncInterval == 0 {
		e.QuotaSyncInterval = 15 * time.Minute
	}
	applyRateLimitDefaults(&e.RateLimit, 200*time.Millisecond, 5000)
}

func applyScrapeDefaults(s *ScrapeConfig) {
	if s.URL == "" {
		s.URL = "https://www.ebay.com/sch/i.html"
	}
	applyRateLimitDefaults(&s.RateLimit, 3*time.Second, 0)
}

func applyRateLimitDefaults(r *RateLimitConfig, interval time.Duration, daily int64) {
	if r.MinInterval == 0 {
		r.MinInterval = interval
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = daily
	}
	if r.BackoffBase == 0 {
		r.BackoffBase = 2 * time.Second
	}
	if r.BackoffMax == 0 {
		r.BackoffMax = 5 * time.Minute
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.ListingsTTL == 0 {
		c.ListingsTTL = time.Hour
	}
	if c.StaleTTL == 0 {
		c.StaleTTL = 7 * 24 * time.Hour
	}
	if c.MaxEntries == 0 {
		c.MaxEntries = 100
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 10 * time.Minute
	}
}

func applySearchDefaults(s *SearchConfig) {
	if s.MinResults == 0 {
		s.MinResults = 3
	}
	if s.PageSize == 0 {
		s.PageSize = 200
	}
	if s.DefaultLimit == 0 {
		s.DefaultLimit = 20
	}
	if s.FetchTimeout == 0 {
		s.FetchTimeout = 15 * time.Second
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "card-price-tracker"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535 (got %d)", cfg.Server.Port))
	}

	if (cfg.Ebay.AppID == "") != (cfg.Ebay.CertID == "") {
		errs = append(errs, fmt.Errorf("ebay.app_id and ebay.cert_id must be set together"))
	}
	errs = append(errs, validateURL("ebay.token_url", cfg.Ebay.TokenURL))
	errs = append(errs, validateURL("ebay.browse_url", cfg.Ebay.BrowseURL))
	errs = append(errs, validateRateLimit("ebay.rate_limit", &cfg.Ebay.RateLimit))

	if cfg.Scrape.Enabled {
		errs = append(errs, validateURL("scrape.url", cfg.Scrape.URL))
	}
	errs = append(errs, validateRateLimit("scrape.rate_limit", &cfg.Scrape.RateLimit))

	if cfg.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries must not be negative"))
	}
	if cfg.Cache.ListingsTTL < 0 || cfg.Cache.StaleTTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttls must not be negative"))
	}

	if cfg.Search.MinResults < 1 {
		errs = append(errs, fmt.Errorf("search.min_results must be at least 1"))
	}
	if cfg.Search.PageSize < 1 || cfg.Search.PageSize > 200 {
		errs = append(errs, fmt.Errorf("search.page_size must be between 1 and 200 (got %d)", cfg.Search.PageSize))
	}

	if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio must be between 0 and 1"))
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level,
		))
	}

	return errors.Join(errs...)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL (got %q)", field, raw)
	}
	return nil
}

func validateRateLimit(field string, r *RateLimitConfig) error {
	var errs []error
	if r.MinInterval < 0 {
		errs = append(errs, fmt.Errorf("%s.min_interval must not be negative", field))
	}
	if r.DailyLimit < 0 {
		errs = append(errs, fmt.Errorf("%s.daily_limit must not be negative", field))
	}
	if r.BackoffMax < r.BackoffBase {
		errs = append(errs, fmt.Errorf("%s.backoff_max must be at least backoff_base", field))
	}
	return errors.Join(errs...)
}
