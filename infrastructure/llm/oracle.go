package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahrav/go-moat/internal/domain"
	"github.com/ahrav/go-moat/internal/ports"
)

// comparePromptTemplate is the forced-choice pairwise prompt. The answer
// format is constrained so the response parses without free-text handling.
const comparePromptTemplate = `Compare the competitive moat strength of these two companies:

Company 1: %s (%s)
Company 2: %s (%s)

Which company has a STRONGER competitive moat? Consider factors like:
- Brand strength and customer loyalty
- Network effects
- Switching costs
- Economies of scale
- Patents/intellectual property
- Regulatory barriers
- Unique resources or capabilities

Respond with ONLY:
- "1" if %s (%s) has a stronger moat
- "2" if %s (%s) has a stronger moat
- "equal" if they have equally strong moats (very rare)

Just respond with the number or "equal", nothing else.`

// Oracle adapts a middleware-wrapped CoreLLM to the ports.Oracle contract.
// Elicitation always runs at temperature zero so repeated runs over the
// same entity are as reproducible as the provider allows.
type Oracle struct {
	core CoreLLM
	reg  *domain.Registry
}

var _ ports.Oracle = (*Oracle)(nil)

// NewOracle wraps core as the judgment oracle for the given metric
// catalog.
func NewOracle(core CoreLLM, reg *domain.Registry) *Oracle {
	return &Oracle{core: core, reg: reg}
}

// Elicit renders the metric's elicitation prompt for the entity label,
// sends it, and returns the trimmed raw rating text. The value is not
// parsed here; records store the raw text and aggregation tolerates
// whatever comes back.
func (o *Oracle) Elicit(ctx context.Context, label string, def domain.MetricDefinition) (string, error) {
	prompt, err := o.reg.RenderPrompt(def.Key, label)
	if err != nil {
		return "", err
	}

	response, _, _, err := o.core.DoRequest(ctx, prompt, map[string]any{
		"temperature": 0.0,
		"max_tokens":  16,
	})
	if err != nil {
		return "", fmt.Errorf("eliciting %s for %s: %w", def.Key, label, err)
	}

	return strings.TrimSpace(response), nil
}

// Compare asks which of two entities has the stronger moat and parses the
// forced-choice answer. A response that names neither side is an error;
// the ranker decides the deterministic default, not this adapter.
func (o *Oracle) Compare(ctx context.Context, left, right domain.Identity) (domain.Comparison, error) {
	prompt := fmt.Sprintf(comparePromptTemplate,
		left.Label, left.Ticker,
		right.Label, right.Ticker,
		left.Label, left.Ticker,
		right.Label, right.Ticker,
	)

	response, _, _, err := o.core.DoRequest(ctx, prompt, map[string]any{
		"temperature": 0.0,
		"max_tokens":  16,
	})
	if err != nil {
		return domain.ComparisonTie, fmt.Errorf("comparing %s vs %s: %w", left.Key, right.Key, err)
	}

	return parseComparison(response, left, right)
}

// parseComparison maps the oracle's answer to a Comparison. It accepts the
// numeric forms, "equal", or an echo of either ticker.
func parseComparison(response string, left, right domain.Identity) (domain.Comparison, error) {
	answer := strings.ToLower(strings.TrimSpace(response))
	if answer == "" {
		return domain.ComparisonTie, fmt.Errorf("empty comparison response")
	}

	switch {
	case strings.Contains(answer, "equal"):
		return domain.ComparisonTie, nil
	case strings.Contains(answer, "1"),
		left.Ticker != "" && strings.Contains(answer, strings.ToLower(left.Ticker)):
		return domain.ComparisonLeft, nil
	case strings.Contains(answer, "2"),
		right.Ticker != "" && strings.Contains(answer, strings.ToLower(right.Ticker)):
		return domain.ComparisonRight, nil
	}

	return domain.ComparisonTie, fmt.Errorf("unparseable comparison response: %q", response)
}
