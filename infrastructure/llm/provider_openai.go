package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// OpenAIDefaultModel is the default OpenAI model.
	OpenAIDefaultModel = "gpt-4o-mini"

	// XAIDefaultModel is the default model for the xAI provider.
	XAIDefaultModel = "grok-4-fast"

	// XAIBaseURL is the OpenAI-compatible endpoint for the xAI API.
	XAIBaseURL = "https://api.x.ai/v1"
)

func init() {
	RegisterProviderFactory("openai", newOpenAIProvider)
	RegisterProviderFactory("xai", newXAIProvider)
}

// openAIProvider implements CoreLLM against any OpenAI-compatible chat
// completion API. The xAI provider reuses it with a different base URL.
type openAIProvider struct {
	BaseProvider
	client          *openai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

// newOpenAIProvider creates a provider against the OpenAI API.
func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	if config.Model == "" {
		config.Model = OpenAIDefaultModel
	}
	return newCompatibleProvider("openai", config)
}

// newXAIProvider creates a provider against the xAI API. Grok speaks the
// OpenAI wire protocol, so this is the OpenAI provider pointed at x.ai.
func newXAIProvider(config ClientConfig) (CoreLLM, error) {
	if config.Model == "" {
		config.Model = XAIDefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = XAIBaseURL
	}
	return newCompatibleProvider("xai", config)
}

func newCompatibleProvider(name string, config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		validatedURL, err := ValidateBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL: %w", err)
		}
		clientConfig.BaseURL = validatedURL
	}

	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{
			Timeout: ValidateTimeout(config.Timeout),
		}
	}

	return &openAIProvider{
		BaseProvider:    BaseProvider{model: config.Model},
		client:          openai.NewClientWithConfig(clientConfig),
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: name},
	}, nil
}

// DoRequest sends a chat completion request and returns the response with
// token usage.
func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	req := p.buildChatCompletionRequest(prompt, options)
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}

	if len(resp.Choices) == 0 {
		return "", 0, 0, ErrNoResponseChoice
	}

	content := resp.Choices[0].Message.Content

	tokensIn := p.tokenCounter.GetTokenCount(resp.Usage.PromptTokens, prompt)
	tokensOut := p.tokenCounter.GetTokenCount(resp.Usage.CompletionTokens, content)

	return content, tokensIn, tokensOut, nil
}

func (p *openAIProvider) buildChatCompletionRequest(prompt string, options RequestOptions) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    options.Model,
		Messages: p.buildMessages(prompt, options),
	}
	p.applyRequestParameters(&req, options)
	return req
}

func (p *openAIProvider) buildMessages(prompt string, options RequestOptions) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)

	if options.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: options.System,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	return messages
}

func (p *openAIProvider) applyRequestParameters(req *openai.ChatCompletionRequest, options RequestOptions) {
	if options.Temperature != nil {
		temp := ClampFloat64(*options.Temperature, MinTemperature, MaxTemperature)
		req.Temperature = float32(temp)
	}

	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	if options.TopP != nil {
		topP := ClampFloat64(*options.TopP, MinTopP, MaxTopP)
		req.TopP = float32(topP)
	}

	if frequencyPenalty, ok := options.Extra["frequency_penalty"]; ok {
		if penalty, valid := SafeFloat32(frequencyPenalty); valid {
			req.FrequencyPenalty = float32(ClampFloat64(float64(penalty), MinPenalty, MaxPenalty))
		}
	}

	if presencePenalty, ok := options.Extra["presence_penalty"]; ok {
		if penalty, valid := SafeFloat32(presencePenalty); valid {
			req.PresencePenalty = float32(ClampFloat64(float64(penalty), MinPenalty, MaxPenalty))
		}
	}
}

// handleError classifies API failures into standardized ProviderErrors.
func (p *openAIProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = "unknown error"
		}
		return p.errorClassifier.ClassifyHTTPError(apiErr.HTTPStatusCode, message, err)
	}

	return NewProviderError(p.errorClassifier.Provider, ErrorTypeUnknown, 0, "request failed", err)
}
