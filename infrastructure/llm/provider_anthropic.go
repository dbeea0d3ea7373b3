package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// AnthropicDefaultModel is the default Anthropic model.
	AnthropicDefaultModel = "claude-3-5-sonnet-20241022"
)

func init() {
	RegisterProviderFactory("anthropic", newAnthropicProvider)
}

// anthropicProvider implements CoreLLM for Anthropic's Claude API.
type anthropicProvider struct {
	BaseProvider
	client          anthropic.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newAnthropicProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &anthropicProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          anthropic.NewClient(opts...),
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "anthropic"},
	}, nil
}

// DoRequest sends a message request to the Claude API and returns the
// response with token usage.
func (p *anthropicProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())
	params := p.buildMessageParams(prompt, options)

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}

	return p.processResponse(message, prompt)
}

func (p *anthropicProvider) buildMessageParams(prompt string, options RequestOptions) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(options.Model),
		MaxTokens: int64(options.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if options.Temperature != nil {
		// Claude's temperature range tops out at 1.0.
		params.Temperature = anthropic.Float(ClampFloat64(*options.Temperature, 0.0, 1.0))
	}

	if options.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: options.System}}
	}

	return params
}

func (p *anthropicProvider) processResponse(message *anthropic.Message, originalPrompt string) (string, int, int, error) {
	var responseText strings.Builder
	for _, block := range message.Content {
		switch content := block.AsAny().(type) {
		case anthropic.TextBlock:
			responseText.WriteString(content.Text)
		}
	}

	responseStr := responseText.String()
	if responseStr == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := p.tokenCounter.GetTokenCount(int(message.Usage.InputTokens), originalPrompt)
	tokensOut := p.tokenCounter.GetTokenCount(int(message.Usage.OutputTokens), responseStr)

	return responseStr, tokensIn, tokensOut, nil
}

func (p *anthropicProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return p.errorClassifier.ClassifyHTTPError(anthropicErr.StatusCode, anthropicErr.Error(), err)
	}

	return NewProviderError("anthropic", ErrorTypeUnknown, 0, "request failed", err)
}
