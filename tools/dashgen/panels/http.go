package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

const httpDuration = "cpt_http_request_duration_seconds"

// RequestRate shows API requests per second. Probe and scrape paths are not
// counted by the middleware, so this is lookup, parse and quota traffic.
func RequestRate() *timeseries.PanelBuilder {
	return lineSeries("Request Rate", "API requests per second (probes excluded)", "reqps", FullWidth/3).
		WithTarget(PromQuery(`cpt:http_requests:rate5m`, "req/s", "A")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// LatencyPercentiles shows p50, p95 and p99 API latency. Lookups that reach
// the marketplace dominate the upper quantiles.
func LatencyPercentiles() *timeseries.PanelBuilder {
	return lineSeries("Latency Percentiles", "API request duration percentiles", "s", FullWidth/3).
		WithTarget(PromQuery(Quantile(0.50, httpDuration), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, httpDuration), "p95", "B")).
		WithTarget(PromQuery(Quantile(0.99, httpDuration), "p99", "C")).
		Legend(TableLegend("mean", "max")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// ErrorRate shows 5xx responses as a percentage of all API requests.
// Unconfigured credentials surface here as 503s.
func ErrorRate() *timeseries.PanelBuilder {
	return lineSeries("Error Rate %", "5xx responses as a percentage of API requests", "percent", FullWidth/3).
		WithTarget(PromQuery(`cpt:http_errors:rate5m / cpt:http_requests:rate5m * 100`, "error %", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 5)).
		ColorScheme(ColorSchemeThresholds())
}
