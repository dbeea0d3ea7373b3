package llm

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// Parameter bounds shared across providers.
const (
	// MinTemperature and MaxTemperature bound the sampling temperature.
	// The upper bound is 2.0 to accommodate providers like Gemini.
	MinTemperature = 0.0
	MaxTemperature = 2.0
	// MinTopP and MaxTopP bound nucleus sampling.
	MinTopP = 0.0
	MaxTopP = 1.0
	// MinPenalty and MaxPenalty bound frequency and presence penalties.
	MinPenalty = -2.0
	MaxPenalty = 2.0
	// DefaultMaxTokens is used when the caller does not set max_tokens.
	DefaultMaxTokens = 1000
	// MinTimeout and MaxTimeout bound per-request timeouts.
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// BaseProvider provides common, thread-safe model-name management for
// providers that embed it.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
// It is safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. It is safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of request parameters extracted
// from the generic options map.
type RequestOptions struct {
	// MaxTokens caps the number of generated tokens.
	MaxTokens int
	// Model overrides the provider's configured model for this request.
	Model string
	// Temperature controls output randomness; nil uses the provider
	// default. Elicitation always pins this to zero for reproducibility.
	Temperature *float64
	// TopP configures nucleus sampling; nil uses the provider default.
	TopP *float64
	// System carries an optional system prompt.
	System string
	// Extra holds provider-specific options outside the standard set.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates request parameters from a map,
// falling back to defaults for missing or invalid entries. Unrecognized
// options are collected into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:    ExtractOptionalString(opts, "system", "", nil),
		Extra:     make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}

	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p":
			// Standard options were processed above.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// ExtractOptionalInt extracts an int from the options map with validation.
// Returns defaultVal when the key is absent, mistyped, or fails validation.
func ExtractOptionalInt(opts map[string]any, key string, defaultVal int, validator func(int) bool) int {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	intVal, ok := val.(int)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(intVal) {
		return defaultVal
	}
	return intVal
}

// ExtractOptionalString extracts a string from the options map with
// validation, falling back to defaultVal.
func ExtractOptionalString(opts map[string]any, key string, defaultVal string, validator func(string) bool) string {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	strVal, ok := val.(string)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(strVal) {
		return defaultVal
	}
	return strVal
}

// ExtractOptionalFloat64 extracts a float64 from the options map with
// validation, falling back to defaultVal.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultVal float64, validator func(float64) bool) float64 {
	if opts == nil {
		return defaultVal
	}
	val, ok := opts[key]
	if !ok {
		return defaultVal
	}
	floatVal, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	if validator != nil && !validator(floatVal) {
		return defaultVal
	}
	return floatVal
}

// IsValidTemperature checks that temperature is within [0.0, 2.0].
func IsValidTemperature(val float64) bool {
	return val >= MinTemperature && val <= MaxTemperature
}

// IsValidTopP checks that top_p is within [0.0, 1.0].
func IsValidTopP(val float64) bool {
	return val >= MinTopP && val <= MaxTopP
}

// IsPositiveInt checks that the value is positive.
func IsPositiveInt(val int) bool { return val > 0 }

// IsNonEmptyString checks that the string is non-empty.
func IsNonEmptyString(val string) bool { return val != "" }

// ValidateBaseURL validates and normalizes a base URL. The URL must carry
// an http or https scheme and a host; an empty string is valid and selects
// the provider default.
func ValidateBaseURL(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	if parsedURL.Scheme == "" {
		return "", fmt.Errorf("URL must include a scheme (e.g. https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must include a host")
	}
	return parsedURL.String(), nil
}

// ValidateTimeout clamps a timeout to [MinTimeout, MaxTimeout]. Zero or
// negative means the system default and passes through as zero.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 0
	}
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// SafeFloat32 converts a numeric any value to float32, reporting whether
// the conversion was exact enough to use.
func SafeFloat32(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		if v > 3.4e38 || v < -3.4e38 {
			return 0, false
		}
		return float32(v), true
	case int:
		return float32(v), true
	case int64:
		// 2^24 is the largest integer float32 represents exactly.
		if v > 16777216 || v < -16777216 {
			return 0, false
		}
		return float32(v), true
	default:
		return 0, false
	}
}

// ClampFloat64 clamps val to [min, max].
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampInt clamps val to [min, max].
func ClampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// TokenCounter estimates token counts when the provider response does not
// report exact usage.
type TokenCounter struct {
	// CharactersPerToken is the average characters-per-token ratio used
	// for estimation.
	CharactersPerToken float64
}

// NewTokenCounter creates a TokenCounter with a ratio suited to English
// text.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens estimates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount returns actualCount when positive, falling back to an
// estimate over text.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}
