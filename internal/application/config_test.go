package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "xai", cfg.Oracle.Provider)
	assert.Equal(t, "grok-4-fast", cfg.Oracle.Model)
	assert.Equal(t, 60*time.Second, cfg.Oracle.Timeout())
	assert.Equal(t, "moat_scores.json", cfg.Paths.Scores)
}

func TestLoadConfig_FileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
oracle:
  provider: anthropic
  model: claude-3-5-sonnet-20241022
  timeout_seconds: 30
  retry:
    max_attempts: 5
paths:
  scores: /data/scores.json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Oracle.Provider)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout())
	assert.Equal(t, 5, cfg.Oracle.Retry.MaxAttempts)
	assert.Equal(t, "/data/scores.json", cfg.Paths.Scores)
	// Untouched settings keep their defaults.
	assert.Equal(t, "companies.json", cfg.Paths.Reference)
	assert.InEpsilon(t, 2.0, cfg.Oracle.RateLimit, 1e-9)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown provider",
			doc:  "oracle:\n  provider: skynet\n",
		},
		{
			name: "zero timeout",
			doc:  "oracle:\n  provider: xai\n  timeout_seconds: 0\n",
		},
		{
			name: "bad base url",
			doc:  "oracle:\n  provider: xai\n  base_url: not-a-url\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
		})
	}
}

func TestOracleConfig_APIKey(t *testing.T) {
	cfg := OracleConfig{Provider: "xai"}
	t.Setenv("XAI_API_KEY", "test-key")

	key, err := cfg.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "test-key", key)

	custom := OracleConfig{Provider: "xai", APIKeyEnv: "MY_KEY"}
	t.Setenv("MY_KEY", "other-key")
	key, err = custom.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "other-key", key)

	t.Setenv("XAI_API_KEY", "")
	_, err = cfg.APIKey()
	require.Error(t, err)
}
