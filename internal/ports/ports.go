// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-moat/internal/domain"
)

// Oracle is the external judgment service the core consumes. Both
// capabilities are blocking request/response exchanges that may fail with a
// transport or timeout error; neither guarantees any ordering across
// independent calls beyond the caller's issuance order. Every call is
// assumed to carry real monetary and latency cost, which is why acquisition
// is strictly idempotent about re-asking.
type Oracle interface {
	// Elicit renders the metric's elicitation template for the entity
	// label and returns the oracle's raw rating text. The result is a
	// free-text numeric rating on the registry scale, possibly with
	// extraneous formatting; callers trim it but do not parse it at this
	// layer.
	Elicit(ctx context.Context, label string, def domain.MetricDefinition) (string, error)

	// Compare asks which of two entities is stronger on the comparison
	// axis and returns a forced-choice judgment. An unparseable response
	// is an error; the ranker, not the oracle, decides the deterministic
	// default.
	Compare(ctx context.Context, left, right domain.Identity) (domain.Comparison, error)
}

// ScoreStore is the keyed mapping from canonical identity to metric record.
// Implementations load the whole persisted document up front, mutate it in
// memory, and rewrite it wholesale on Save. The store is not designed for
// concurrent multi-process writers: load-modify-save is not transactional,
// so two processes sharing one document risk lost updates.
type ScoreStore interface {
	// Get returns the record stored under key, or ok=false when absent.
	// The returned record is the live record; callers mutate it through
	// Put to make the intent explicit.
	Get(key string) (rec domain.MetricRecord, ok bool)

	// Put stores the record under key, replacing any existing entry.
	Put(key string, rec domain.MetricRecord)

	// Delete removes the entry stored under key and reports whether an
	// entry existed.
	Delete(key string) bool

	// Keys returns every storage key in deterministic (sorted) order.
	Keys() []string

	// Save rewrites the whole persisted document.
	Save() error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like oracle calls, cache
	// hits/misses, and errors.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like latencies or scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
