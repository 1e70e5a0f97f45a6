package main

import "errors"

// KnownMetrics is the set of metric names exported by card-price-tracker
// plus recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"cpt_http_request_duration_seconds": true,
	"cpt_http_requests_total":           true,

	// Health metrics.
	"cpt_healthz_up": true,
	"cpt_readyz_up":  true,

	// Upstream metrics, labelled by listing source.
	"cpt_upstream_calls_total":        true,
	"cpt_upstream_errors_total":       true,
	"cpt_upstream_duration_seconds":   true,
	"cpt_backoff_blocks_total":        true,
	"cpt_ebay_daily_usage":            true,
	"cpt_ebay_daily_limit_hits_total": true,

	// Cache metrics.
	"cpt_cache_lookups_total": true,
	"cpt_cache_entries":       true,

	// Lookup metrics.
	"cpt_lookups_total":             true,
	"cpt_lookup_duration_seconds":   true,
	"cpt_search_passes_total":       true,
	"cpt_ladder_level_total":        true,
	"cpt_relevance_score":           true,
	"cpt_estimate_confidence_total": true,

	// Recording rules.
	"cpt:http_requests:rate5m":   true,
	"cpt:http_errors:rate5m":     true,
	"cpt:upstream_calls:rate5m":  true,
	"cpt:upstream_errors:rate5m": true,
	"cpt:lookups:rate5m":         true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
