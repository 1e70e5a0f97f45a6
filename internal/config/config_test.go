package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "empty file uses defaults",
			yaml: ``,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, "EBAY_US", cfg.Ebay.Marketplace)
				assert.Equal(t, "261328", cfg.Ebay.CategoryID)
				assert.Equal(t, 15*time.Minute, cfg.Ebay.QuotaSyncInterval)
				assert.Equal(t, 200*time.Millisecond, cfg.Ebay.RateLimit.MinInterval)
				assert.Equal(t, int64(5000), cfg.Ebay.RateLimit.DailyLimit)
				assert.Equal(t, 2*time.Second, cfg.Ebay.RateLimit.BackoffBase)
				assert.Equal(t, 5*time.Minute, cfg.Ebay.RateLimit.BackoffMax)
				assert.False(t, cfg.Scrape.Enabled)
				assert.Equal(t, 3*time.Second, cfg.Scrape.RateLimit.MinInterval)
				assert.Zero(t, cfg.Scrape.RateLimit.DailyLimit)
				assert.Equal(t, time.Hour, cfg.Cache.ListingsTTL)
				assert.Equal(t, 7*24*time.Hour, cfg.Cache.StaleTTL)
				assert.Equal(t, 100, cfg.Cache.MaxEntries)
				assert.Equal(t, 10*time.Minute, cfg.Cache.SweepInterval)
				assert.Equal(t, 3, cfg.Search.MinResults)
				assert.Equal(t, 200, cfg.Search.PageSize)
				assert.Equal(t, 20, cfg.Search.DefaultLimit)
				assert.Equal(t, "card-price-tracker", cfg.Telemetry.ServiceName)
				assert.InDelta(t, 1.0, cfg.Telemetry.SampleRatio, 1e-9)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.False(t, cfg.Ebay.HasCredentials())
			},
		},
		{
			name: "env var substitution",
			yaml: `
ebay:
  app_id: "${TEST_EBAY_APP_ID}"
  cert_id: "${TEST_EBAY_CERT_ID}"
`,
			envVars: map[string]string{
				"TEST_EBAY_APP_ID":  "app-123",
				"TEST_EBAY_CERT_ID": "cert-456",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "app-123", cfg.Ebay.AppID)
				assert.Equal(t, "cert-456", cfg.Ebay.CertID)
				assert.True(t, cfg.Ebay.HasCredentials())
			},
		},
		{
			name: "half a credential pair",
			yaml: `
ebay:
  app_id: app-123
`,
			wantErr: "ebay.app_id and ebay.cert_id must be set together",
		},
		{
			name: "invalid port",
			yaml: `
server:
  port: 70000
`,
			wantErr: "server.port must be between 1 and 65535",
		},
		{
			name: "relative browse url",
			yaml: `
ebay:
  browse_url: /buy/browse
`,
			wantErr: `ebay.browse_url must be an absolute URL (got "/buy/browse")`,
		},
		{
			name: "backoff max below base",
			yaml: `
ebay:
  rate_limit:
    backoff_base: 10s
    backoff_max: 1s
`,
			wantErr: "ebay.rate_limit.backoff_max must be at least backoff_base",
		},
		{
			name: "negative daily limit",
			yaml: `
ebay:
  rate_limit:
    daily_limit: -1
`,
			wantErr: "ebay.rate_limit.daily_limit must not be negative",
		},
		{
			name: "scrape url checked only when enabled",
			yaml: `
scrape:
  enabled: true
  url: "not a url"
`,
			wantErr: "scrape.url must be an absolute URL",
		},
		{
			name: "page size above the api maximum",
			yaml: `
search:
  page_size: 500
`,
			wantErr: "search.page_size must be between 1 and 200 (got 500)",
		},
		{
			name: "bad log format",
			yaml: `
logging:
  format: xml
`,
			wantErr: `logging.format must be one of: text, json (got "xml")`,
		},
		{
			name: "bad log level",
			yaml: `
logging:
  level: trace
`,
			wantErr: `logging.level must be one of: debug, info, warn, error (got "trace")`,
		},
		{
			name: "sample ratio out of range",
			yaml: `
telemetry:
  sample_ratio: 2
`,
			wantErr: "telemetry.sample_ratio must be between 0 and 1",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
  write_timeout: 60s
ebay:
  app_id: my-app-id
  cert_id: my-cert-id
  token_url: http://localhost:9999/identity/v1/oauth2/token
  browse_url: http://localhost:9999/buy/browse/v1/item_summary/search
  marketplace: EBAY_GB
  category_id: "183454"
  quota_sync_interval: 1h
  rate_limit:
    min_interval: 500ms
    daily_limit: 1000
    backoff_base: 1s
    backoff_max: 1m
scrape:
  enabled: true
  url: http://localhost:9999/sch/i.html
  user_agent: test-agent
  rate_limit:
    min_interval: 5s
cache:
  listings_ttl: 30m
  stale_ttl: 24h
  max_entries: 500
  sweep_interval: 1m
search:
  min_results: 5
  page_size: 100
  default_limit: 10
  fetch_timeout: 5s
telemetry:
  otlp_endpoint: localhost:4317
  insecure: true
  sample_ratio: 0.25
logging:
  level: debug
  format: json
debug:
  verbose: true
  capture_raw: true
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "my-app-id", cfg.Ebay.AppID)
				assert.Equal(t, "EBAY_GB", cfg.Ebay.Marketplace)
				assert.Equal(t, "183454", cfg.Ebay.CategoryID)
				assert.Equal(t, time.Hour, cfg.Ebay.QuotaSyncInterval)
				assert.Equal(t, RateLimitConfig{
					MinInterval: 500 * time.Millisecond,
					DailyLimit:  1000,
					BackoffBase: time.Second,
					BackoffMax:  time.Minute,
				}, cfg.Ebay.RateLimit)
				assert.True(t, cfg.Scrape.Enabled)
				assert.Equal(t, "test-agent", cfg.Scrape.UserAgent)
				assert.Equal(t, 5*time.Second, cfg.Scrape.RateLimit.MinInterval)
				assert.Equal(t, 30*time.Minute, cfg.Cache.ListingsTTL)
				assert.Equal(t, 500, cfg.Cache.MaxEntries)
				assert.Equal(t, 5, cfg.Search.MinResults)
				assert.Equal(t, 100, cfg.Search.PageSize)
				assert.Equal(t, 5*time.Second, cfg.Search.FetchTimeout)
				assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
				assert.True(t, cfg.Telemetry.Insecure)
				assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.True(t, cfg.Debug.Verbose)
				assert.True(t, cfg.Debug.CaptureRaw)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_JoinsErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`
server:
  port: -1
search:
  min_results: -2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "search.min_results")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, validate(cfg))
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}
