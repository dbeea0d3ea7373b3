package application

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-moat/internal/domain"
	"github.com/ahrav/go-moat/internal/testutils"
)

func identities(tickers ...string) []domain.Identity {
	out := make([]domain.Identity, len(tickers))
	for i, t := range tickers {
		out[i] = domain.Identity{Key: t, Label: t, Ticker: t}
	}
	return out
}

func TestRank_OrdersByOracleJudgment(t *testing.T) {
	groundTruth := []string{"AAPL", "MSFT", "GOOGL", "NVDA", "META", "AMZN", "TSLA", "ADBE", "CRM", "ORCL"}
	oracle := testutils.NewMockOracle().WithOrdering(groundTruth...)

	// Feed the entities in scrambled order.
	input := identities("ORCL", "META", "AAPL", "TSLA", "GOOGL", "CRM", "NVDA", "MSFT", "ADBE", "AMZN")

	ranker := NewRanker(oracle)
	sorted, calls, err := ranker.Rank(context.Background(), input)
	require.NoError(t, err)

	got := make([]string, len(sorted))
	for i, id := range sorted {
		got[i] = id.Key
	}
	assert.Equal(t, groundTruth, got)

	// Merge sort stays near the n*log2(n) comparison floor.
	n := float64(len(input))
	bound := int(n * math.Ceil(math.Log2(n)))
	assert.LessOrEqual(t, calls, bound)
	assert.Equal(t, oracle.CompareCalls(), calls)
}

func TestRank_SmallInputs(t *testing.T) {
	ranker := NewRanker(testutils.NewMockOracle())

	sorted, calls, err := ranker.Rank(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sorted)
	assert.Zero(t, calls)

	single := identities("AAPL")
	sorted, calls, err = ranker.Rank(context.Background(), single)
	require.NoError(t, err)
	assert.Equal(t, single, sorted)
	assert.Zero(t, calls, "a single entity costs no comparisons")
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	oracle := testutils.NewMockOracle().WithOrdering("AAPL", "MSFT", "GOOGL")
	input := identities("GOOGL", "AAPL", "MSFT")
	snapshot := append([]domain.Identity(nil), input...)

	_, _, err := NewRanker(oracle).Rank(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, snapshot, input)
}

// TestRank_FailedComparisonsDefaultLeft pins the degradation rule: when
// every comparison fails, the original order survives.
func TestRank_FailedComparisonsDefaultLeft(t *testing.T) {
	oracle := testutils.NewMockOracle().WithCompareError(errors.New("oracle down"))
	input := identities("GOOGL", "AAPL", "MSFT")

	sorted, _, err := NewRanker(oracle).Rank(context.Background(), input)
	require.NoError(t, err)

	got := make([]string, len(sorted))
	for i, id := range sorted {
		got[i] = id.Key
	}
	assert.Equal(t, []string{"GOOGL", "AAPL", "MSFT"}, got)
}

func TestRank_ContextCancellationAborts(t *testing.T) {
	oracle := testutils.NewMockOracle().WithOrdering("AAPL", "MSFT", "GOOGL")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewRanker(oracle).Rank(ctx, identities("GOOGL", "AAPL", "MSFT"))
	require.ErrorIs(t, err, context.Canceled)
}
