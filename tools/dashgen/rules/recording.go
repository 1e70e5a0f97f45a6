package rules

// RecordingRules returns the 5m rates the dashboard and the alerts read.
func RecordingRules() PrometheusRule {
	return newRuleCR("cpt-recording-rules", "cpt-recording", "1m",
		record("cpt:http_requests:rate5m", `sum(rate(cpt_http_requests_total[5m]))`),
		record("cpt:http_errors:rate5m", `sum(rate(cpt_http_requests_total{status=~"5.."}[5m]))`),
		record("cpt:upstream_calls:rate5m", `sum(rate(cpt_upstream_calls_total[5m])) by (source)`),
		record("cpt:upstream_errors:rate5m", `sum(rate(cpt_upstream_errors_total[5m])) by (source, kind)`),
		record("cpt:lookups:rate5m", `sum(rate(cpt_lookups_total[5m])) by (outcome)`),
	)
}
