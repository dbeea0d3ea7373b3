package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoMetricRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry([]MetricDefinition{
		{Key: "moat_score", DisplayName: "Competitive Moat", Template: "Rate {{.Company}}", Weight: 10},
		{Key: "riskiness_score", DisplayName: "Riskiness", Template: "Rate {{.Company}}", Reverse: true, Weight: 10},
	})
	require.NoError(t, err)
	return reg
}

func TestMetricRecord_Completeness(t *testing.T) {
	reg := twoMetricRegistry(t)

	tests := []struct {
		name            string
		rec             MetricRecord
		complete        bool
		expectedMissing []string
	}{
		{
			name:            "empty record is missing everything",
			rec:             MetricRecord{},
			expectedMissing: []string{"moat_score", "riskiness_score"},
		},
		{
			name:            "blank value counts as missing",
			rec:             MetricRecord{"moat_score": "8", "riskiness_score": "  "},
			expectedMissing: []string{"riskiness_score"},
		},
		{
			name:     "complete record",
			rec:      MetricRecord{"moat_score": "8", "riskiness_score": "3"},
			complete: true,
		},
		{
			name:     "bookkeeping fields do not affect completeness",
			rec:      MetricRecord{"moat_score": "8", "riskiness_score": "3", FieldDate: "2026-01-02"},
			complete: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.complete, tt.rec.Complete(reg))
			assert.Equal(t, tt.expectedMissing, tt.rec.Missing(reg))
		})
	}
}

func TestMetricRecord_Float(t *testing.T) {
	rec := MetricRecord{
		"clean":    "7",
		"decimal":  "7.5",
		"padded":   " 8 ",
		"garbage":  "high",
		"explicit": "0",
	}

	v, err := rec.Float("clean")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	v, err = rec.Float("decimal")
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)

	v, err = rec.Float("padded")
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)

	// A genuine zero parses cleanly; an unparseable value surfaces a
	// typed ParseError. The two must be distinguishable.
	v, err = rec.Float("explicit")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	_, err = rec.Float("garbage")
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "garbage", parseErr.Key)
	assert.Equal(t, "high", parseErr.Raw)

	_, err = rec.Float("absent")
	require.ErrorAs(t, err, &parseErr)
}

func TestMetricRecord_Merge(t *testing.T) {
	rec := MetricRecord{"moat_score": "8"}

	filled := rec.Merge(MetricRecord{
		"moat_score":      "3",  // must not overwrite
		"riskiness_score": "4",  // fills
		"blank":           "  ", // blank source values are skipped
	})

	assert.Equal(t, 1, filled)
	assert.Equal(t, "8", rec["moat_score"])
	assert.Equal(t, "4", rec["riskiness_score"])
	assert.False(t, rec.Present("blank"))
}

func TestIdentity_String(t *testing.T) {
	tests := []struct {
		name     string
		id       Identity
		expected string
		resolved bool
	}{
		{
			name:     "resolved ticker identity",
			id:       Identity{Key: "AAPL", Label: "Apple Inc", Ticker: "AAPL"},
			expected: "AAPL (Apple Inc)",
			resolved: true,
		},
		{
			name:     "fallback name identity",
			id:       Identity{Key: "some startup", Label: "some startup"},
			expected: "some startup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.id.String())
			assert.Equal(t, tt.resolved, tt.id.Resolved())
		})
	}
}
