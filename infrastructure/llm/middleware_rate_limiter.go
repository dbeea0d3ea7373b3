package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedLLM paces requests through a token bucket so bulk operations
// like fill and rank stay inside provider rate limits.
type rateLimitedLLM struct {
	next    CoreLLM
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces a token-bucket rate
// limit. limit is requests per second; burst allows short spikes above the
// sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreLLM) CoreLLM {
		return &rateLimitedLLM{next: next, limiter: limiter}
	}
}

// DoRequest blocks until the limiter grants a token, then forwards the
// request.
func (r *rateLimitedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", 0, 0, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoRequest(ctx, prompt, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (r *rateLimitedLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *rateLimitedLLM) SetModel(m string) { r.next.SetModel(m) }
