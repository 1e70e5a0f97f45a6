package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// CacheHitRatio returns a timeseries panel showing the fresh-hit share per
// cache.
func CacheHitRatio() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cache Fresh Hit %").
		Description("Share of cache reads answered by a fresh entry").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`sum(rate(cpt_cache_lookups_total{`+Job+`,status="fresh"}[5m])) by (cache) / sum(rate(cpt_cache_lookups_total{`+Job+`}[5m])) by (cache) * 100`,
			"{{cache}}", "A",
		)).
		Unit("percent").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CacheEntries returns a timeseries panel showing entries held per cache.
func CacheEntries() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Cache Entries").
		Description("Entries held per cache, including stale ones").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`cpt_cache_entries{`+Job+`}`, "{{cache}}", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
