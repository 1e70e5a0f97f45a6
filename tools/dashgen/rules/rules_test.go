package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprs(t *testing.T) {
	t.Parallel()

	cr := newRuleCR("x", "g", "",
		record("a:rate5m", "sum(rate(a_total[5m]))"),
		alert("AHigh", "a:rate5m > 1", "5m", "warning", "s", "d"),
	)

	assert.Equal(t, map[string]string{
		"a:rate5m": "sum(rate(a_total[5m]))",
		"AHigh":    "a:rate5m > 1",
	}, cr.Exprs())
}

func TestNewRuleCR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cr       PrometheusRule
		wantName string
		wantLen  int
	}{
		{name: "recording", cr: RecordingRules(), wantName: "cpt-recording-rules", wantLen: 5},
		{name: "alerts", cr: AlertRules(), wantName: "cpt-alerts", wantLen: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, apiVersion, tt.cr.APIVersion)
			assert.Equal(t, kind, tt.cr.Kind)
			assert.Equal(t, tt.wantName, tt.cr.Metadata.Name)
			assert.Equal(t, selectorLabel, tt.cr.Metadata.Labels["prometheus"])
			require.Len(t, tt.cr.Spec.Groups, 1)
			assert.Len(t, tt.cr.Spec.Groups[0].Rules, tt.wantLen)
		})
	}
}
