package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryMiddleware_RecoversFromTransientFailure(t *testing.T) {
	core := &stubCore{
		model:     "grok-4-fast",
		response:  "7",
		failUntil: 2,
		err:       NewProviderError("xai", ErrorTypeServerError, 503, "unavailable", nil),
	}

	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(core)

	response, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "7", response)
	assert.Equal(t, 3, core.calls)
}

func TestRetryMiddleware_DoesNotRetryAuthFailures(t *testing.T) {
	core := &stubCore{
		err:       NewProviderError("xai", ErrorTypeAuthentication, 401, "bad key", nil),
		failUntil: 10,
	}

	wrapped := RetryMiddleware(3, time.Millisecond, 10*time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.Equal(t, 1, core.calls, "non-retryable failures must abort immediately")
}

func TestRetryMiddleware_StopsOnContextCancel(t *testing.T) {
	core := &stubCore{
		err:       NewProviderError("xai", ErrorTypeServerError, 503, "unavailable", nil),
		failUntil: 10,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	wrapped := RetryMiddleware(5, time.Millisecond, 10*time.Millisecond)(core)
	_, _, _, err := wrapped.DoRequest(ctx, "prompt", nil)
	require.Error(t, err)
	assert.LessOrEqual(t, core.calls, 1)
}

func TestCircuitBreakerMiddleware_OpensAfterFailures(t *testing.T) {
	core := &stubCore{
		err:       NewProviderError("xai", ErrorTypeServerError, 500, "boom", nil),
		failUntil: 100,
	}

	wrapped := CircuitBreakerMiddleware(2, time.Hour)(core)

	for i := 0; i < 2; i++ {
		_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
		require.Error(t, err)
	}

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, core.calls, "an open circuit must not reach the provider")
}

func TestRateLimitMiddleware_PassesThrough(t *testing.T) {
	core := &stubCore{response: "ok"}
	wrapped := RateLimitMiddleware(100, 1)(core)

	response, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	deadlineSeen := false
	core := &checkDeadlineCore{sawDeadline: &deadlineSeen}

	wrapped := TimeoutMiddleware(time.Second)(core)
	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.True(t, deadlineSeen)
}

type checkDeadlineCore struct{ sawDeadline *bool }

func (c *checkDeadlineCore) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	_, ok := ctx.Deadline()
	*c.sawDeadline = ok
	return "ok", 0, 0, nil
}

func (c *checkDeadlineCore) GetModel() string  { return "stub" }
func (c *checkDeadlineCore) SetModel(m string) {}

func TestNewCore_UnknownProvider(t *testing.T) {
	_, err := NewCore("nope", ClientConfig{APIKey: "k", Model: "m"})
	require.Error(t, err)

	_, err = NewCore("openai", ClientConfig{})
	require.ErrorIs(t, err, ErrEmptyAPIKey)
}
