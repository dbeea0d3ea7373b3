package scorebook

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-moat/internal/domain"
)

// mapResolver resolves only the names it was built with.
type mapResolver map[string]string

func (m mapResolver) Resolve(raw string) (domain.Identity, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if ticker, ok := m[key]; ok {
		return domain.Identity{Key: ticker, Label: raw, Ticker: ticker}, nil
	}
	if ticker, ok := m[raw]; ok {
		return domain.Identity{Key: ticker, Label: raw, Ticker: ticker}, nil
	}
	return domain.Identity{}, fmt.Errorf("%w: %q", domain.ErrUnresolvedIdentity, raw)
}

func openEmpty(t *testing.T) *Book {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)
	return b
}

func TestNormalizeKeys(t *testing.T) {
	b := openEmpty(t)
	b.records["Apple Inc"] = domain.MetricRecord{"moat_score": "8"}
	b.records["some startup"] = domain.MetricRecord{"moat_score": "4"}

	m := b.NormalizeKeys(nil)
	assert.True(t, m.Changed())
	assert.Equal(t, map[string]string{"Apple Inc": "apple inc"}, m.Renamed)
	assert.Equal(t, []string{"apple inc", "some startup"}, b.Keys())
}

// TestNormalizeKeys_LeavesTickerKeysAlone verifies that keys already in
// canonical form under the resolver survive the case fold untouched.
func TestNormalizeKeys_LeavesTickerKeysAlone(t *testing.T) {
	r := mapResolver{"aapl": "AAPL"}

	b := openEmpty(t)
	b.records["AAPL"] = domain.MetricRecord{"moat_score": "8"}
	b.records["Apple Computer"] = domain.MetricRecord{"moat_score": "4"}

	m := b.NormalizeKeys(r)
	assert.Equal(t, map[string]string{"Apple Computer": "apple computer"}, m.Renamed)
	assert.Equal(t, []string{"AAPL", "apple computer"}, b.Keys())
}

func TestNormalizeKeys_CollisionKeepsFresherTimestamp(t *testing.T) {
	b := openEmpty(t)
	b.records["Apple Inc"] = domain.MetricRecord{
		"moat_score":           "9",
		domain.FieldTimestamp:  "2026-02-01T10:00:00Z",
	}
	b.records["apple inc"] = domain.MetricRecord{
		"moat_score":           "4",
		domain.FieldTimestamp:  "2026-01-01T10:00:00Z",
	}

	m := b.NormalizeKeys(nil)
	require.True(t, m.Changed())

	rec, ok := b.Get("apple inc")
	require.True(t, ok)
	assert.Equal(t, "9", rec["moat_score"], "the later-stamped record must survive the collision")
	assert.Len(t, m.Dropped, 1)
}

func TestNormalizeKeys_CollisionFallsBackToDate(t *testing.T) {
	b := openEmpty(t)
	b.records["Apple Inc"] = domain.MetricRecord{"moat_score": "9", domain.FieldDate: "2026-02-01"}
	b.records["apple inc"] = domain.MetricRecord{"moat_score": "4", domain.FieldDate: "2026-03-01"}

	b.NormalizeKeys(nil)

	rec, _ := b.Get("apple inc")
	assert.Equal(t, "4", rec["moat_score"], "without timestamps the later date wins")
}

func TestMigrateToTickers(t *testing.T) {
	r := mapResolver{"apple inc": "AAPL", "aapl": "AAPL", "microsoft": "MSFT", "msft": "MSFT"}

	b := openEmpty(t)
	b.records["apple inc"] = domain.MetricRecord{"moat_score": "8", domain.FieldTimestamp: "2026-01-01T10:00:00Z"}
	b.records["AAPL"] = domain.MetricRecord{"moat_score": "9", domain.FieldTimestamp: "2026-02-01T10:00:00Z"}
	b.records["microsoft"] = domain.MetricRecord{"moat_score": "7"}
	b.records["unknown co"] = domain.MetricRecord{"moat_score": "2"}

	m := b.MigrateToTickers(r)
	assert.True(t, m.Changed())
	assert.Equal(t, []string{"AAPL", "MSFT", "unknown co"}, b.Keys())

	rec, _ := b.Get("AAPL")
	assert.Equal(t, "9", rec["moat_score"], "the existing ticker record was fresher and must win")

	rec, _ = b.Get("MSFT")
	assert.Equal(t, "7", rec["moat_score"])
}

// TestMigrateToTickers_Idempotent verifies a second pass is a no-op.
func TestMigrateToTickers_Idempotent(t *testing.T) {
	r := mapResolver{"apple inc": "AAPL", "aapl": "AAPL"}

	b := openEmpty(t)
	b.records["apple inc"] = domain.MetricRecord{"moat_score": "8"}

	require.True(t, b.MigrateToTickers(r).Changed())
	assert.False(t, b.MigrateToTickers(r).Changed())
	assert.Equal(t, []string{"AAPL"}, b.Keys())
}

// TestMigrationSequence_Idempotent runs the normalize-then-rekey sequence
// twice; the second pass must report nothing to migrate on a book that is
// already ticker-keyed.
func TestMigrationSequence_Idempotent(t *testing.T) {
	r := mapResolver{"apple inc": "AAPL", "aapl": "AAPL"}

	b := openEmpty(t)
	b.records["Apple Inc"] = domain.MetricRecord{"moat_score": "8"}

	normalized := b.NormalizeKeys(r)
	rekeyed := b.MigrateToTickers(r)
	require.True(t, normalized.Changed())
	require.True(t, rekeyed.Changed())
	require.Equal(t, []string{"AAPL"}, b.Keys())

	assert.False(t, b.NormalizeKeys(r).Changed())
	assert.False(t, b.MigrateToTickers(r).Changed())
	assert.Equal(t, []string{"AAPL"}, b.Keys())
}
