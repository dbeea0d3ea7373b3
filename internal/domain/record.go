package domain

import (
	"strconv"
	"strings"
)

// Bookkeeping fields carried on persisted records. They are written on save
// and consulted only by the key-migration step; they never contribute to a
// record's completeness or total.
const (
	FieldDate      = "date"
	FieldTimestamp = "timestamp"
)

// Identity is the resolved form of an arbitrary input string. The canonical
// key is the sole addressing mechanism into the score store: two raw inputs
// that resolve to the same key read and write the same record. Identities
// are created on every resolution and never persisted on their own.
type Identity struct {
	// Key is the case-normalized canonical storage key: uppercase for
	// ticker-like keys, lowercase otherwise.
	Key string

	// Label is the human-readable company name used in prompts and
	// display output.
	Label string

	// Ticker holds the resolved ticker symbol when the identity is backed
	// by the reference or override table, and is empty for fallback
	// identities keyed by free-text name.
	Ticker string
}

// Resolved reports whether the identity is backed by a known ticker.
// Acquisition requires a resolved identity; legacy display and lookup paths
// accept unresolved fallbacks.
func (id Identity) Resolved() bool { return id.Ticker != "" }

// String returns "TICKER (Company Name)" for resolved identities and the
// bare label otherwise.
func (id Identity) String() string {
	if id.Ticker != "" && id.Label != "" && id.Label != id.Ticker {
		return id.Ticker + " (" + id.Label + ")"
	}
	if id.Label != "" {
		return id.Label
	}
	return id.Key
}

// MetricRecord maps metric keys to raw elicited values. Values are stored in
// their native textual form, not necessarily a clean number; aggregation
// tolerates parse failures and missing keys. Records are mutated only
// through the acquisition engine's merge step, which fills absent keys and
// never overwrites previously obtained values.
type MetricRecord map[string]string

// Clone returns an independent copy of the record.
func (rec MetricRecord) Clone() MetricRecord {
	out := make(MetricRecord, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// Present reports whether key holds a truthy (non-blank) value.
func (rec MetricRecord) Present(key string) bool {
	return strings.TrimSpace(rec[key]) != ""
}

// Complete reports whether every key in the registry holds a truthy value.
// Bookkeeping fields are ignored.
func (rec MetricRecord) Complete(reg *Registry) bool {
	for _, def := range reg.Metrics() {
		if !rec.Present(def.Key) {
			return false
		}
	}
	return true
}

// Missing returns the registry keys, in catalog order, that the record does
// not yet hold a truthy value for.
func (rec MetricRecord) Missing(reg *Registry) []string {
	var missing []string
	for _, def := range reg.Metrics() {
		if !rec.Present(def.Key) {
			missing = append(missing, def.Key)
		}
	}
	return missing
}

// Float parses the value stored under key as a number.
// A missing or blank value and an unparseable value both return a
// *ParseError so callers can distinguish degraded-to-zero metrics from
// genuine zero scores.
func (rec MetricRecord) Float(key string) (float64, error) {
	raw := strings.TrimSpace(rec[key])
	if raw == "" {
		return 0, &ParseError{Key: key, Raw: raw, Err: strconv.ErrSyntax}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParseError{Key: key, Raw: raw, Err: err}
	}
	return v, nil
}

// Merge copies every truthy value from src that the record does not already
// hold. Existing values are sacrosanct: keys present in the record are never
// overwritten and keys absent from src are never deleted. It returns the
// number of keys filled.
func (rec MetricRecord) Merge(src MetricRecord) int {
	filled := 0
	for k, v := range src {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !rec.Present(k) {
			rec[k] = v
			filled++
		}
	}
	return filled
}
