package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracingLLM wraps each request in an OpenTelemetry span carrying the
// model, prompt size, and token usage.
type tracingLLM struct {
	next   CoreLLM
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that traces requests with
// OpenTelemetry.
func TracingMiddleware() Middleware {
	return func(next CoreLLM) CoreLLM {
		return &tracingLLM{
			next:   next,
			tracer: otel.Tracer("oracle-client"),
		}
	}
}

// DoRequest executes the request inside a span, recording token usage on
// success and the error status on failure.
func (t *tracingLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	ctx, span := t.tracer.Start(ctx, "Oracle.DoRequest", trace.WithAttributes(
		attribute.String("llm.model", t.next.GetModel()),
		attribute.Int("llm.prompt_chars", len(prompt)),
	))
	defer span.End()

	response, tokensIn, tokensOut, err := t.next.DoRequest(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return response, tokensIn, tokensOut, err
	}

	span.SetAttributes(
		attribute.Int("llm.tokens_in", tokensIn),
		attribute.Int("llm.tokens_out", tokensOut),
	)
	span.SetStatus(codes.Ok, "")

	return response, tokensIn, tokensOut, nil
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracingLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *tracingLLM) SetModel(m string) { t.next.SetModel(m) }
