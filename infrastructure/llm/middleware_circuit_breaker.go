package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen indicates that the circuit breaker rejected a request
// without reaching the provider.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerState represents the current state of a circuit breaker.
type CircuitBreakerState int

const (
	// StateClosed allows all requests through; the provider is healthy.
	StateClosed CircuitBreakerState = iota

	// StateOpen rejects all requests immediately after repeated failures.
	StateOpen

	// StateHalfOpen allows a probe request after the cooldown expires.
	StateHalfOpen
)

// CircuitBreaker tracks consecutive failures and opens when they exceed
// the threshold, then tests recovery through half-open probes.
type CircuitBreaker struct {
	mu               sync.RWMutex
	state            CircuitBreakerState
	failureCount     int
	maxFailures      int
	cooldownDuration time.Duration
	lastFailure      time.Time
}

// NewCircuitBreaker creates a circuit breaker that opens after maxFailures
// consecutive errors and stays open for cooldownDuration before probing.
func NewCircuitBreaker(maxFailures int, cooldownDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		maxFailures:      maxFailures,
		cooldownDuration: cooldownDuration,
	}
}

// Call executes fn through the circuit breaker. When the circuit is open
// it returns ErrCircuitOpen immediately; otherwise it runs fn and updates
// state from the result.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cooldownDuration {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		fallthrough
	case StateHalfOpen:
		err := fn()
		if err != nil {
			cb.failureCount++
			cb.lastFailure = time.Now()
			cb.state = StateOpen
			return err
		}
		cb.failureCount = 0
		cb.state = StateClosed
		return nil
	case StateClosed:
		err := fn()
		if err != nil {
			cb.failureCount++
			cb.lastFailure = time.Now()
			if cb.failureCount >= cb.maxFailures {
				cb.state = StateOpen
			}
			return err
		}
		cb.failureCount = 0
		return nil
	}
	return nil
}

// GetState returns the current circuit breaker state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// circuitBreakedLLM fails fast when the provider has been failing
// repeatedly, giving it time to recover instead of piling on requests.
type circuitBreakedLLM struct {
	next CoreLLM
	cb   *CircuitBreaker
}

// CircuitBreakerMiddleware creates middleware implementing the circuit
// breaker pattern with the given failure threshold and cooldown.
func CircuitBreakerMiddleware(maxFailures int, cooldown time.Duration) Middleware {
	cb := NewCircuitBreaker(maxFailures, cooldown)

	return func(next CoreLLM) CoreLLM {
		return &circuitBreakedLLM{next: next, cb: cb}
	}
}

// DoRequest executes the request through the circuit breaker. When the
// circuit is open this fails immediately without touching the provider.
func (c *circuitBreakedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	var response string
	var tokensIn, tokensOut int

	err := c.cb.Call(func() error {
		var err error
		response, tokensIn, tokensOut, err = c.next.DoRequest(ctx, prompt, opts)
		return err
	})

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (c *circuitBreakedLLM) GetModel() string { return c.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (c *circuitBreakedLLM) SetModel(m string) { c.next.SetModel(m) }
