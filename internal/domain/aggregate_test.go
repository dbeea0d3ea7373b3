package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContribution_DirectionAware(t *testing.T) {
	forward := MetricDefinition{Key: "moat_score", Weight: 10}
	reverse := MetricDefinition{Key: "riskiness_score", Weight: 10, Reverse: true}

	tests := []struct {
		name     string
		def      MetricDefinition
		value    float64
		expected float64
	}{
		{name: "reverse metric at zero contributes the full weight", def: reverse, value: 0, expected: 100},
		{name: "reverse metric at scale max contributes nothing", def: reverse, value: 10, expected: 0},
		{name: "forward metric contributes value times weight", def: forward, value: 7, expected: 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Contribution(tt.def, tt.value))
		})
	}
}

func TestTotalScore(t *testing.T) {
	reg := twoMetricRegistry(t)

	tests := []struct {
		name          string
		rec           MetricRecord
		expectedTotal float64
		expectParse   bool
	}{
		{
			name:          "clean record",
			rec:           MetricRecord{"moat_score": "8", "riskiness_score": "3"},
			expectedTotal: 8*10 + (10-3)*10,
		},
		{
			name:          "unparseable value degrades to zero contribution",
			rec:           MetricRecord{"moat_score": "strong", "riskiness_score": "3"},
			expectedTotal: (10 - 3) * 10,
			expectParse:   true,
		},
		{
			name:          "missing value degrades to zero contribution",
			rec:           MetricRecord{"riskiness_score": "3"},
			expectedTotal: (10 - 3) * 10,
			expectParse:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := TotalScore(reg, tt.rec)
			assert.Equal(t, tt.expectedTotal, total)
			if tt.expectParse {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestPercentileRank(t *testing.T) {
	_, ok := PercentileRank(50, []float64{50})
	assert.False(t, ok, "a single-member population has no percentile")

	rank, ok := PercentileRank(150, []float64{150, 100})
	require.True(t, ok)
	assert.Equal(t, 100, rank)

	rank, ok = PercentileRank(100, []float64{150, 100})
	require.True(t, ok)
	assert.Equal(t, 50, rank)
}

func TestPercentileRank_Monotonic(t *testing.T) {
	population := []float64{10, 20, 30, 40, 50}

	prev := -1
	for _, total := range population {
		rank, ok := PercentileRank(total, population)
		require.True(t, ok)
		assert.GreaterOrEqual(t, rank, prev, "higher total must not rank below a lower one")
		prev = rank
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, 75, FormatPercentage(150, 200))
	assert.Equal(t, 0, FormatPercentage(10, 0))
	// Floors rather than rounds.
	assert.Equal(t, 66, FormatPercentage(2, 3))
}

// TestAggregate_Scenario pins the worked example: AAPL at moat 8 and
// riskiness 3 totals 150 against MSFT's 100, placing AAPL at the 100th
// percentile and MSFT at the 50th.
func TestAggregate_Scenario(t *testing.T) {
	reg := twoMetricRegistry(t)

	aapl := MetricRecord{"moat_score": "8", "riskiness_score": "3"}
	msft := MetricRecord{"moat_score": "5", "riskiness_score": "5"}

	aaplTotal, err := TotalScore(reg, aapl)
	require.NoError(t, err)
	assert.Equal(t, 150.0, aaplTotal)

	msftTotal, err := TotalScore(reg, msft)
	require.NoError(t, err)
	assert.Equal(t, 100.0, msftTotal)

	population := []float64{aaplTotal, msftTotal}

	aaplRes := Aggregate(reg, aapl, population)
	assert.True(t, aaplRes.Complete)
	require.True(t, aaplRes.HasPercentile)
	assert.Equal(t, 100, aaplRes.Percentile)

	msftRes := Aggregate(reg, msft, population)
	require.True(t, msftRes.HasPercentile)
	assert.Equal(t, 50, msftRes.Percentile)
}

func TestAggregate_IncompleteIsNotComparable(t *testing.T) {
	reg := twoMetricRegistry(t)

	res := Aggregate(reg, MetricRecord{"moat_score": "8"}, nil)
	assert.False(t, res.Complete, "a partial record's total must be flagged as incomparable")
	assert.False(t, res.HasPercentile)
	assert.Equal(t, 80.0, res.Total)
}
