package application

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration: which oracle provider to
// use, how hard to lean on it, and where the data files live.
type Config struct {
	// Oracle configures the judgment provider.
	Oracle OracleConfig `yaml:"oracle" validate:"required"`
	// Paths locates the persisted data files.
	Paths PathsConfig `yaml:"paths" validate:"required"`
}

// OracleConfig selects and tunes the oracle provider.
type OracleConfig struct {
	// Provider selects the implementation.
	Provider string `yaml:"provider" validate:"required,oneof=openai xai anthropic google"`
	// Model overrides the provider's default model.
	Model string `yaml:"model,omitempty"`
	// APIKeyEnv names the environment variable holding the API key.
	// When empty, the provider's conventional variable is used.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`
	// TimeoutSeconds bounds each request.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"min=1,max=600"`
	// RateLimit paces requests per second; Burst allows short spikes.
	RateLimit float64 `yaml:"rate_limit" validate:"gt=0"`
	Burst     int     `yaml:"burst" validate:"min=1"`
	// Retry tunes transient-failure recovery.
	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig tunes the retry middleware.
type RetryConfig struct {
	// MaxAttempts is the number of retries after the initial attempt,
	// where 0 disables retries entirely.
	MaxAttempts int `yaml:"max_attempts" validate:"min=0,max=10"`
	// InitialWaitMs is the base backoff delay in milliseconds.
	InitialWaitMs int `yaml:"initial_wait_ms" validate:"omitempty,min=0,max=60000"`
	// MaxWaitMs caps the backoff delay in milliseconds.
	MaxWaitMs int `yaml:"max_wait_ms" validate:"omitempty,min=0,max=300000"`
}

// PathsConfig locates the persisted JSON documents.
type PathsConfig struct {
	// Scores is the score book document.
	Scores string `yaml:"scores" validate:"required"`
	// Reference is the ticker reference table.
	Reference string `yaml:"reference" validate:"required"`
	// Overrides is the curated override table. Missing files are treated
	// as an empty table.
	Overrides string `yaml:"overrides" validate:"required"`
}

// providerEnvVars maps providers to their conventional API key variables.
var providerEnvVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"xai":       "XAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GOOGLE_API_KEY",
}

// DefaultConfig returns the configuration used when no file is present:
// Grok via the xAI provider, conservative pacing, and data files in the
// working directory.
func DefaultConfig() Config {
	return Config{
		Oracle: OracleConfig{
			Provider:       "xai",
			Model:          "grok-4-fast",
			TimeoutSeconds: 60,
			RateLimit:      2,
			Burst:          4,
			Retry: RetryConfig{
				MaxAttempts:   3,
				InitialWaitMs: 1000,
				MaxWaitMs:     30000,
			},
		},
		Paths: PathsConfig{
			Scores:    "moat_scores.json",
			Reference: "companies.json",
			Overrides: "ticker_definitions.json",
		},
	}
}

// LoadConfig reads and validates the configuration at path, layering the
// file over DefaultConfig. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// APIKey resolves the provider API key from the environment, preferring
// the configured variable name over the provider's conventional one.
func (c OracleConfig) APIKey() (string, error) {
	envVar := c.APIKeyEnv
	if envVar == "" {
		envVar = providerEnvVars[c.Provider]
	}
	if envVar == "" {
		return "", fmt.Errorf("no API key variable known for provider %q", c.Provider)
	}

	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", envVar)
	}
	return key, nil
}

// Timeout returns the request timeout as a duration.
func (c OracleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InitialWait returns the base retry delay as a duration.
func (r RetryConfig) InitialWait() time.Duration {
	return time.Duration(r.InitialWaitMs) * time.Millisecond
}

// MaxWait returns the retry delay cap as a duration.
func (r RetryConfig) MaxWait() time.Duration {
	return time.Duration(r.MaxWaitMs) * time.Millisecond
}
