package domain

import "errors"

// AggregateResult is the derived, never-persisted summary of one record
// against the current population. Total is only comparable across entities
// when Complete is true; an incomplete record under-reports rather than
// failing, and the flag keeps that distinct from a genuinely low score.
type AggregateResult struct {
	// Total is the weighted, direction-normalized sum over the registry.
	Total float64

	// Complete reports whether every registry metric parsed cleanly.
	Complete bool

	// Percentile is the record's percentile rank in [0,100] against the
	// supplied population. Valid only when HasPercentile is true.
	Percentile int

	// HasPercentile is false when the population held fewer than two
	// totals.
	HasPercentile bool
}

// Contribution returns the weighted contribution of a single metric value.
// Reverse metrics are inverted against the top of the scale, so a low raw
// score on a reverse metric contributes favorably.
func Contribution(def MetricDefinition, value float64) float64 {
	if def.Reverse {
		return (ScaleMax - value) * def.Weight
	}
	return value * def.Weight
}

// TotalScore computes the weighted, direction-normalized total of a record
// over the registry. Metrics whose values are missing or unparseable
// contribute zero; the joined *ParseError values are returned alongside the
// total so callers can tell degraded metrics from genuine zeros. TotalScore
// never mutates its inputs.
func TotalScore(reg *Registry, rec MetricRecord) (float64, error) {
	var total float64
	var parseErrs []error

	for _, def := range reg.Metrics() {
		v, err := rec.Float(def.Key)
		if err != nil {
			parseErrs = append(parseErrs, err)
			continue
		}
		total += Contribution(def, v)
	}

	return total, errors.Join(parseErrs...)
}

// PercentileRank returns the fraction of the population with total <= the
// given total, scaled to 0-100 and rounded down. Populations of fewer than
// two totals have no defined percentile and report ok=false.
func PercentileRank(total float64, population []float64) (rank int, ok bool) {
	if len(population) < 2 {
		return 0, false
	}

	atOrBelow := 0
	for _, t := range population {
		if t <= total {
			atOrBelow++
		}
	}
	return atOrBelow * 100 / len(population), true
}

// FormatPercentage expresses a total as an integer percentage of the
// highest achievable total, rounded down.
func FormatPercentage(total, maxPossible float64) int {
	if maxPossible <= 0 {
		return 0
	}
	return int(total / maxPossible * 100)
}

// Aggregate derives the full result for one record: its total, whether the
// total is comparable, and its percentile against the population of other
// totals. Percentiles are always recomputed from the population at call
// time, never cached, so they reflect the current store exactly.
func Aggregate(reg *Registry, rec MetricRecord, population []float64) AggregateResult {
	total, parseErr := TotalScore(reg, rec)

	res := AggregateResult{
		Total:    total,
		Complete: parseErr == nil && rec.Complete(reg),
	}

	if rank, ok := PercentileRank(total, population); ok {
		res.Percentile = rank
		res.HasPercentile = true
	}
	return res
}
