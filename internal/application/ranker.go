package application

import (
	"context"

	"github.com/ahrav/go-moat/internal/domain"
	"github.com/ahrav/go-moat/internal/ports"
)

// Ranker orders entities by pairwise oracle comparison using merge sort,
// strongest first. Merge sort keeps the comparison count near the
// n*log2(n) floor, which matters because every comparison is a paid
// oracle call. Ordering is deterministic for a deterministic oracle: ties
// and failed comparisons both keep the left operand first, and merge
// remainders are appended without further calls.
type Ranker struct {
	oracle ports.Oracle
}

// NewRanker creates a ranker over the oracle.
func NewRanker(oracle ports.Oracle) *Ranker {
	return &Ranker{oracle: oracle}
}

// Rank returns the entities ordered strongest first along with the number
// of comparison calls spent. Rank never mutates its input. Context
// cancellation aborts the sort; comparisons already made are discarded.
func (r *Ranker) Rank(ctx context.Context, entities []domain.Identity) ([]domain.Identity, int, error) {
	if len(entities) <= 1 {
		return append([]domain.Identity(nil), entities...), 0, nil
	}

	calls := 0
	sorted, err := r.mergeSort(ctx, append([]domain.Identity(nil), entities...), &calls)
	if err != nil {
		return nil, calls, err
	}
	return sorted, calls, nil
}

func (r *Ranker) mergeSort(ctx context.Context, entities []domain.Identity, calls *int) ([]domain.Identity, error) {
	if len(entities) <= 1 {
		return entities, nil
	}

	mid := len(entities) / 2
	left, err := r.mergeSort(ctx, entities[:mid], calls)
	if err != nil {
		return nil, err
	}
	right, err := r.mergeSort(ctx, entities[mid:], calls)
	if err != nil {
		return nil, err
	}

	return r.merge(ctx, left, right, calls)
}

// merge interleaves two sorted runs. Each step costs one comparison until
// a run empties; the remainder is appended free.
func (r *Ranker) merge(ctx context.Context, left, right []domain.Identity, calls *int) ([]domain.Identity, error) {
	merged := make([]domain.Identity, 0, len(left)+len(right))
	i, j := 0, 0

	for i < len(left) && j < len(right) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		*calls++
		cmp, err := r.oracle.Compare(ctx, left[i], right[j])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Unparseable or failed comparisons keep the left operand
			// first, matching the tie rule, so a flaky oracle degrades
			// to a stable order instead of aborting the sort.
			cmp = domain.ComparisonLeft
		}

		if cmp == domain.ComparisonRight {
			merged = append(merged, right[j])
			j++
		} else {
			merged = append(merged, left[i])
			i++
		}
	}

	merged = append(merged, left[i:]...)
	merged = append(merged, right[j:]...)
	return merged, nil
}
