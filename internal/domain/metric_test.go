package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name          string
		defs          []MetricDefinition
		expectedError error
	}{
		{
			name:          "rejects empty catalog",
			defs:          nil,
			expectedError: ErrEmptyRegistry,
		},
		{
			name: "rejects duplicate keys",
			defs: []MetricDefinition{
				{Key: "moat_score", DisplayName: "Moat", Template: "Rate {{.Company}}", Weight: 10},
				{Key: "moat_score", DisplayName: "Moat Again", Template: "Rate {{.Company}}", Weight: 10},
			},
			expectedError: ErrDuplicateMetric,
		},
		{
			name: "accepts a well-formed catalog",
			defs: []MetricDefinition{
				{Key: "moat_score", DisplayName: "Moat", Template: "Rate {{.Company}}", Weight: 10},
				{Key: "riskiness_score", DisplayName: "Riskiness", Template: "Rate {{.Company}}", Reverse: true, Weight: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.defs)
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.defs), reg.Len())
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry()

	def, err := reg.Lookup("moat_score")
	require.NoError(t, err)
	assert.Equal(t, "Competitive Moat", def.DisplayName)
	assert.False(t, def.Reverse)

	_, err = reg.Lookup("no_such_metric")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMetric)
	assert.Contains(t, err.Error(), "no_such_metric")
}

func TestRegistry_RenderPrompt(t *testing.T) {
	reg := DefaultRegistry()

	prompt, err := reg.RenderPrompt("moat_score", "Apple Inc")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Apple Inc")
	assert.Contains(t, prompt, "Respond with ONLY the numerical score")
	assert.NotContains(t, prompt, "{{.Company}}")

	_, err = reg.RenderPrompt("no_such_metric", "Apple Inc")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestDefaultRegistry_Catalog(t *testing.T) {
	reg := DefaultRegistry()

	require.Equal(t, 13, reg.Len())
	assert.Equal(t, 1300.0, reg.MaxPossible())

	// Every template must substitute the entity label exactly once.
	for _, def := range reg.Metrics() {
		prompt, err := reg.RenderPrompt(def.Key, "Probe Corp")
		require.NoError(t, err, "metric %s", def.Key)
		assert.Equal(t, 1, strings.Count(prompt, "Probe Corp"), "metric %s", def.Key)
	}

	reverse := map[string]bool{}
	for _, def := range reg.Metrics() {
		if def.Reverse {
			reverse[def.Key] = true
		}
	}
	assert.Equal(t, map[string]bool{
		"disruption_risk":       true,
		"competition_intensity": true,
		"riskiness_score":       true,
	}, reverse)
}

func TestRegistry_MetricsReturnsCopy(t *testing.T) {
	reg := DefaultRegistry()

	defs := reg.Metrics()
	defs[0].Key = "mutated"

	fresh := reg.Metrics()
	assert.Equal(t, "moat_score", fresh[0].Key)
}
