// Package llm adapts hosted language-model APIs into the oracle the scoring
// core consumes. It abstracts multiple providers (OpenAI, xAI, Anthropic,
// Google) behind a minimal CoreLLM interface and layers cross-cutting
// concerns through a middleware chain, so the oracle adapter never deals
// with transport details.
//
// Architecture:
//   - CoreLLM abstracts the provider request/response exchange
//   - Provider implementations register through a factory registry
//   - Pluggable middleware for timeouts, retries, rate limiting, circuit
//     breaking, metrics, and tracing
//   - Oracle adapts a middleware-wrapped CoreLLM to the ports.Oracle
//     contract
//
// Basic usage:
//
//	core, err := llm.NewCore("xai", llm.ClientConfig{
//	    APIKey: os.Getenv("XAI_API_KEY"),
//	    Model:  "grok-4-fast",
//	    Middleware: []llm.Middleware{
//	        llm.RateLimitMiddleware(2, 4),
//	        llm.RetryMiddleware(3, time.Second, 30*time.Second),
//	    },
//	})
//	oracle := llm.NewOracle(core, domain.DefaultRegistry())
package llm

import (
	"context"
	"fmt"
	"time"
)

// CoreLLM defines the minimal interface a provider must implement. The
// middleware system wraps any conforming implementation, so providers stay
// free of cross-cutting concerns.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text along with
	// input and output token counts. The opts map carries provider-tunable
	// parameters such as temperature or max_tokens.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting functionality. The
// pattern composes features like rate limiting and retries without
// touching provider logic.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds the settings for constructing a provider core.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the model; each provider has its own default.
	Model string

	// BaseURL overrides the provider's default endpoint. The xAI provider
	// uses this to point the OpenAI-compatible client at the x.ai API.
	BaseURL string

	// Timeout bounds individual HTTP requests. Zero means no client-side
	// timeout; the timeout middleware is the usual mechanism.
	Timeout time.Duration

	// Middleware is applied in order, the first entry outermost.
	Middleware []Middleware
}

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// providerFactories maps provider names to their factories. Providers
// register themselves in init.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom provider factory, enabling
// extension without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// NewCore constructs the provider core for providerType and wraps it with
// the configured middleware chain.
func NewCore(providerType string, config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", providerType, err)
	}

	// Apply middleware in reverse order so the first middleware is the
	// outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return core, nil
}
