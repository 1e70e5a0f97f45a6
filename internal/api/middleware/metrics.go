// Package middleware provides the echo middleware of the card lookup API.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/card-price-tracker/internal/metrics"
)

// Requests that matched no route share this path label.
const unmatchedPath = "unmatched"

// probes report through an up/down gauge instead of the request series.
var probes = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics records API request duration and count by method, route template
// and status. /metrics itself is not recorded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if gauge, ok := probes[c.Request().URL.Path]; ok {
				err := next(c)
				gauge.Set(upValue(c.Response().Status))
				return err
			}
			if c.Request().URL.Path == "/metrics" {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			labels := []string{
				c.Request().Method,
				routeLabel(c),
				strconv.Itoa(c.Response().Status),
			}
			metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
			return err
		}
	}
}

// routeLabel keeps label cardinality bounded by using the route template.
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return unmatchedPath
}

func upValue(status int) float64 {
	if status >= 200 && status < 300 {
		return 1
	}
	return 0
}
