package scorebook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-moat/internal/domain"
)

func TestOpen_MissingFile(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestOpen_CorruptFileYieldsUsableEmptyBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	b, err := Open(path)
	require.Error(t, err)
	require.NotNil(t, b)
	assert.Equal(t, 0, b.Len())

	// The damaged store must not block new acquisition.
	b.Put("AAPL", domain.MetricRecord{"moat_score": "8"})
	require.NoError(t, b.Save())
}

func TestBook_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")

	b, err := Open(path)
	require.NoError(t, err)

	b.Put("AAPL", domain.MetricRecord{"moat_score": "8", "riskiness_score": "3"})
	b.Put("MSFT", domain.MetricRecord{"moat_score": "7"})
	require.NoError(t, b.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, reopened.Keys())

	rec, ok := reopened.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, "8", rec["moat_score"])
	assert.True(t, rec.Present(domain.FieldDate))
	assert.True(t, rec.Present(domain.FieldTimestamp))
}

// TestOpen_CoercesNumericValues pins compatibility with documents whose
// metric values were written as JSON numbers rather than strings.
func TestOpen_CoercesNumericValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	doc := `{"companies": {"AAPL": {"moat_score": 8, "riskiness_score": 3.5, "brand_strength": "9"}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	b, err := Open(path)
	require.NoError(t, err)

	rec, ok := b.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, "8", rec["moat_score"])
	assert.Equal(t, "3.5", rec["riskiness_score"])
	assert.Equal(t, "9", rec["brand_strength"])
}

func TestBook_Delete(t *testing.T) {
	b, err := Open(filepath.Join(t.TempDir(), "scores.json"))
	require.NoError(t, err)

	b.Put("AAPL", domain.MetricRecord{"moat_score": "8"})
	assert.True(t, b.Delete("AAPL"))
	assert.False(t, b.Delete("AAPL"))
	assert.Empty(t, b.Keys())
}

func TestBook_SaveShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.json")
	b, err := Open(path)
	require.NoError(t, err)

	b.Put("AAPL", domain.MetricRecord{"moat_score": "8"})
	require.NoError(t, b.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "8", doc["companies"]["AAPL"]["moat_score"])
}
