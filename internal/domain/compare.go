package domain

// Comparison is the oracle's forced-choice judgment between two entities on
// a single qualitative axis.
type Comparison int

const (
	// ComparisonLeft means the first entity is judged stronger.
	ComparisonLeft Comparison = iota

	// ComparisonRight means the second entity is judged stronger.
	ComparisonRight

	// ComparisonTie means the entities are judged equally strong.
	// Merge-based ranking resolves ties to the left element.
	ComparisonTie
)

// String returns a human-readable form of the judgment.
func (c Comparison) String() string {
	switch c {
	case ComparisonLeft:
		return "left"
	case ComparisonRight:
		return "right"
	case ComparisonTie:
		return "tie"
	default:
		return "unknown"
	}
}
