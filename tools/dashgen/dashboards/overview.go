// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/card-price-tracker/tools/dashgen/panels"
)

// BuildOverview constructs the CPT Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("CPT Overview").
		Uid("cpt-overview").
		Tags([]string{"cpt", "card-price-tracker"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.QuotaGauge()).
		WithPanel(panels.PricedRatio()))

	// Row 2: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 3: Upstream sources.
	b.WithRow(dashboard.NewRowBuilder("Upstream").
		WithPanel(panels.UpstreamCalls()).
		WithPanel(panels.UpstreamErrors()).
		WithPanel(panels.UpstreamLatency()).
		WithPanel(panels.BackoffBlocks()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()))

	// Row 4: Lookups.
	b.WithRow(dashboard.NewRowBuilder("Lookups").
		WithPanel(panels.LookupRate()).
		WithPanel(panels.LookupLatency()).
		WithPanel(panels.PassUsage()).
		WithPanel(panels.LadderLevels()).
		WithPanel(panels.ConfidenceMix()).
		WithPanel(panels.RelevanceScores()))

	// Row 5: Cache.
	b.WithRow(dashboard.NewRowBuilder("Cache").
		WithPanel(panels.CacheHitRatio()).
		WithPanel(panels.CacheEntries()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
