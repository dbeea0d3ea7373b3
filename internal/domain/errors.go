package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during scoring operations.
var (
	// ErrUnknownMetric indicates that a metric key is not present in the
	// registry. Looking up an unknown key is a caller error and is never
	// silently ignored.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrUnresolvedIdentity indicates that an input string matched no known
	// entity. Acquisition rejects unresolved identities rather than scoring
	// under a fabricated key.
	ErrUnresolvedIdentity = errors.New("unresolved identity")

	// ErrEmptyRegistry indicates that a registry was constructed with no
	// metric definitions.
	ErrEmptyRegistry = errors.New("registry must contain at least one metric")

	// ErrDuplicateMetric indicates that two definitions share the same key.
	ErrDuplicateMetric = errors.New("duplicate metric key")
)

// ParseError reports that a stored metric value could not be interpreted as
// a number during aggregation. Aggregation degrades the metric's
// contribution to zero rather than failing, but callers and tests can
// distinguish an unparseable value from a genuine zero through this type.
type ParseError struct {
	// Key is the metric key whose value failed to parse.
	Key string

	// Raw is the stored text that could not be parsed.
	Raw string

	// Err is the underlying strconv error.
	Err error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("metric %s: cannot parse %q as a number: %v", e.Key, e.Raw, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *ParseError) Unwrap() error { return e.Err }
