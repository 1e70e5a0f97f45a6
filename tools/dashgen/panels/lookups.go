package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/bargauge"
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// LookupRate returns a timeseries panel showing lookups per second by
// outcome (priced, unavailable, error).
func LookupRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Lookups").
		Description("Lookups per second by outcome").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`cpt:lookups:rate5m`, "{{outcome}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// LookupLatency shows p50 and p95 end-to-end lookup duration, including
// every search pass that ran.
func LookupLatency() *timeseries.PanelBuilder {
	return lineSeries("Lookup Duration", "End-to-end lookup duration percentiles", "s", 8).
		WithTarget(PromQuery(Quantile(0.50, "cpt_lookup_duration_seconds"), "p50", "A")).
		WithTarget(PromQuery(Quantile(0.95, "cpt_lookup_duration_seconds"), "p95", "B")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// PassUsage returns a timeseries panel showing how often each search pass
// runs. Broad and minimal passes only run when the stricter ones fell short.
func PassUsage() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Search Passes").
		Description("Search passes per second by pass name").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sum(rate(cpt_search_passes_total{`+Job+`}[5m])) by (pass)`, "{{pass}}", "A")).
		Unit("reqps").
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// LadderLevels returns a bar gauge of the relaxation level the ranker
// settled on over the last day.
func LadderLevels() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Ranker Relaxation Level (24h)").
		Description("Lookups per ladder level; higher levels dropped more constraints").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sum(increase(cpt_ladder_level_total{`+Job+`}[24h])) by (level)`, "{{level}}", "A")).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// ConfidenceMix returns a bar gauge of estimate confidence tiers over the
// last day.
func ConfidenceMix() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Estimate Confidence (24h)").
		Description("Priced lookups per confidence tier").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`sum(increase(cpt_estimate_confidence_total{`+Job+`}[24h])) by (confidence)`, "{{confidence}}", "A")).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}

// RelevanceScores returns a bar gauge of relevance score buckets for kept
// candidates.
func RelevanceScores() *bargauge.PanelBuilder {
	return bargauge.NewPanelBuilder().
		Title("Relevance Scores").
		Description("Distribution of relevance scores of kept candidates over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(increase(cpt_relevance_score_bucket{`+Job+`}[1h])) by (le)`,
			"{{le}}", "A",
		)).
		Orientation(common.VizOrientationHorizontal).
		Min(0).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic())
}
