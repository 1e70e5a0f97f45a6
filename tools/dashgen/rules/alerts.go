package rules

// AlertRules returns the operational alerts for card-price-tracker: process
// and readiness, upstream health, quota and pricing yield.
func AlertRules() PrometheusRule {
	return newRuleCR("cpt-alerts", "cpt-alerts", "",
		alert("CptDown", `absent(up{job="card-price-tracker"})`,
			"2m", "critical",
			"Card Price Tracker is down",
			"The card-price-tracker job has been absent for more than 2 minutes.",
		),
		alert("CptReadinessDown", `cpt_readyz_up == 0`,
			"5m", "critical",
			"Card Price Tracker cannot obtain a marketplace token",
			"The readiness probe has reported not-ready for more than 5 minutes. Check the eBay credentials.",
		),
		alert("CptHighErrorRate", `cpt:http_errors:rate5m / cpt:http_requests:rate5m > 0.05`,
			"5m", "warning",
			"High HTTP error rate on Card Price Tracker",
			"More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
		),
		alert("CptBrowseErrors", `sum(cpt:upstream_errors:rate5m{source="ebay-browse"}) / sum(cpt:upstream_calls:rate5m{source="ebay-browse"}) > 0.2`,
			"10m", "warning",
			"Browse API error rate is elevated",
			"More than 20% of Browse API calls have failed for 10 minutes. Lookups are falling back to the search page or cached listings.",
		),
		alert("CptBotChallenge", `cpt:upstream_errors:rate5m{source="scrape",kind="bot_challenge"} > 0`,
			"15m", "warning",
			"Search page fallback is being challenged",
			"The public search page keeps answering with a bot challenge. The fallback source is effectively unavailable.",
		),
		alert("CptEbayQuotaHigh", `cpt_ebay_daily_usage > 4000`,
			"5m", "warning",
			"eBay API daily usage is above 80% of the quota",
			"Daily Browse API usage has exceeded 4000 calls (default limit is 5000).",
		),
		alert("CptEbayLimitReached", `increase(cpt_ebay_daily_limit_hits_total[5m]) > 0`,
			"0m", "critical",
			"eBay API daily limit has been reached",
			"The Browse API daily quota is exhausted. Lookups use the fallback source until the window resets.",
		),
		alert("CptLookupsUnpriced", `sum(cpt:lookups:rate5m{outcome="unavailable"}) / sum(cpt:lookups:rate5m) > 0.5`,
			"30m", "info",
			"Most lookups return no price range",
			"Over half of lookups in the last 30 minutes found too few listings to estimate a range.",
		),
	)
}
