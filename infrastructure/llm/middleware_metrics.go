package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahrav/go-moat/internal/ports"
)

// metricsLLM records request latency, counts, and token usage so oracle
// spend is visible per provider and model.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics to the
// collector.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

// DoRequest executes the request while recording latency, status, and
// token usage.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.extractProvider(),
		"model":    m.next.GetModel(),
		"status":   "success",
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrCircuitOpen):
			labels["status"] = "circuit_open"
		case ctx.Err() == context.DeadlineExceeded:
			labels["status"] = "timeout"
		default:
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("oracle_request_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("oracle_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("oracle_tokens_total", float64(tokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("oracle_tokens_total", float64(tokensOut), labels)
		}
	}

	return response, tokensIn, tokensOut, err
}

func (m *metricsLLM) extractProvider() string {
	model := m.next.GetModel()
	switch {
	case strings.Contains(model, "grok"):
		return "xai"
	case strings.Contains(model, "gpt") || strings.HasPrefix(model, "o"):
		return "openai"
	case strings.Contains(model, "claude"):
		return "anthropic"
	case strings.Contains(model, "gemini"):
		return "google"
	}
	return "unknown"
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
