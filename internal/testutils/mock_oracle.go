// Package testutils provides shared test doubles for the scoring engine.
package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/ahrav/go-moat/internal/domain"
	"github.com/ahrav/go-moat/internal/ports"
)

// MockOracle is a scriptable ports.Oracle. Ratings are served from a
// per-entity script and comparisons from a fixed ground-truth ordering,
// so engine and ranker tests run deterministically with zero network
// access. All methods are safe for concurrent use.
type MockOracle struct {
	mu sync.Mutex

	// ratings maps entity label to metric key to the rating text served.
	ratings map[string]map[string]string

	// defaultRating is served when no script entry matches. Empty means
	// unscripted elicitations fail.
	defaultRating string

	// order maps identity key to its ground-truth rank; lower is
	// stronger. Compare answers from this ordering.
	order map[string]int

	// failElicit maps "label/metric" to an error injected on elicitation.
	failElicit map[string]error

	// compareErr, when set, fails every comparison.
	compareErr error

	elicitCalls  []ElicitCall
	compareCalls int
}

// ElicitCall records one elicitation request.
type ElicitCall struct {
	Label  string
	Metric string
}

// NewMockOracle creates an empty mock. Script it with the With* builders.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		ratings:    make(map[string]map[string]string),
		order:      make(map[string]int),
		failElicit: make(map[string]error),
	}
}

// WithRating scripts the rating served for one entity and metric.
func (m *MockOracle) WithRating(label, metric, rating string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ratings[label] == nil {
		m.ratings[label] = make(map[string]string)
	}
	m.ratings[label][metric] = rating
	return m
}

// WithDefaultRating scripts a fallback rating for any unscripted
// elicitation.
func (m *MockOracle) WithDefaultRating(rating string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultRating = rating
	return m
}

// WithOrdering scripts the ground-truth strength ordering for Compare,
// strongest first.
func (m *MockOracle) WithOrdering(keys ...string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, key := range keys {
		m.order[key] = i
	}
	return m
}

// WithElicitError injects a failure for one entity and metric.
func (m *MockOracle) WithElicitError(label, metric string, err error) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failElicit[label+"/"+metric] = err
	return m
}

// WithCompareError makes every comparison fail with err.
func (m *MockOracle) WithCompareError(err error) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compareErr = err
	return m
}

// Elicit serves the scripted rating for the label and metric.
func (m *MockOracle) Elicit(ctx context.Context, label string, def domain.MetricDefinition) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.elicitCalls = append(m.elicitCalls, ElicitCall{Label: label, Metric: def.Key})

	if err, ok := m.failElicit[label+"/"+def.Key]; ok {
		return "", err
	}
	if rating, ok := m.ratings[label][def.Key]; ok {
		return rating, nil
	}
	if m.defaultRating != "" {
		return m.defaultRating, nil
	}
	return "", fmt.Errorf("no scripted rating for %s/%s", label, def.Key)
}

// Compare answers from the scripted ground-truth ordering.
func (m *MockOracle) Compare(ctx context.Context, left, right domain.Identity) (domain.Comparison, error) {
	if err := ctx.Err(); err != nil {
		return domain.ComparisonTie, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.compareCalls++

	if m.compareErr != nil {
		return domain.ComparisonTie, m.compareErr
	}

	leftRank, leftOK := m.order[left.Key]
	rightRank, rightOK := m.order[right.Key]
	if !leftOK || !rightOK {
		return domain.ComparisonTie, fmt.Errorf("no scripted ordering for %s vs %s", left.Key, right.Key)
	}

	switch {
	case leftRank < rightRank:
		return domain.ComparisonLeft, nil
	case rightRank < leftRank:
		return domain.ComparisonRight, nil
	}
	return domain.ComparisonTie, nil
}

// ElicitCalls returns a copy of the recorded elicitation requests.
func (m *MockOracle) ElicitCalls() []ElicitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ElicitCall, len(m.elicitCalls))
	copy(out, m.elicitCalls)
	return out
}

// CompareCalls returns the number of comparisons answered.
func (m *MockOracle) CompareCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compareCalls
}

// Compile-time verification that MockOracle implements the oracle port.
var _ ports.Oracle = (*MockOracle)(nil)
