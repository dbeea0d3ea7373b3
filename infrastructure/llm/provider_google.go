package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	// GoogleDefaultModel is the default model for the Google provider.
	GoogleDefaultModel = "gemini-2.0-flash"
)

func init() {
	RegisterProviderFactory("google", newGoogleProvider)
}

// googleProvider implements CoreLLM for Google's Gemini API.
type googleProvider struct {
	BaseProvider
	client          *genai.Client
	tokenCounter    *TokenCounter
	errorClassifier *ErrorClassifier
}

func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Google client: %w", err)
	}

	return &googleProvider{
		BaseProvider:    BaseProvider{model: model},
		client:          client,
		tokenCounter:    NewTokenCounter(),
		errorClassifier: &ErrorClassifier{Provider: "google"},
	}, nil
}

// DoRequest sends a generate-content request to the Gemini API and returns
// the response with token usage.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	options := ParseRequestOptions(opts, p.GetModel())

	req := p.buildContents(prompt, options)
	config := p.buildGenerationConfig(options)

	resp, err := p.client.Models.GenerateContent(ctx, options.Model, req, config)
	if err != nil {
		return "", 0, 0, p.handleError(err)
	}

	content := resp.Text()
	if content == "" {
		return "", 0, 0, ErrEmptyResponse
	}

	tokensIn := p.getTokenCount(resp.UsageMetadata, true, prompt)
	tokensOut := p.getTokenCount(resp.UsageMetadata, false, content)

	return content, tokensIn, tokensOut, nil
}

func (p *googleProvider) getTokenCount(usage *genai.GenerateContentResponseUsageMetadata, isInput bool, text string) int {
	if usage != nil {
		if isInput && usage.PromptTokenCount > 0 {
			return int(usage.PromptTokenCount)
		}
		if !isInput && usage.CandidatesTokenCount > 0 {
			return int(usage.CandidatesTokenCount)
		}
	}
	return p.tokenCounter.EstimateTokens(text)
}

// buildContents assembles request content. Gemini has no separate system
// role, so a system prompt is prepended to the user prompt.
func (p *googleProvider) buildContents(prompt string, options RequestOptions) []*genai.Content {
	finalPrompt := prompt
	if options.System != "" {
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", options.System, prompt)
	}

	return []*genai.Content{
		genai.NewContentFromText(finalPrompt, genai.RoleUser),
	}
}

func (p *googleProvider) buildGenerationConfig(options RequestOptions) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if options.Temperature != nil {
		temp := ClampFloat64(*options.Temperature, MinTemperature, MaxTemperature)
		config.Temperature = genai.Ptr(float32(temp))
	}

	if options.MaxTokens > 0 {
		if options.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(options.MaxTokens)
		}
	}

	if options.TopP != nil {
		topP := ClampFloat64(*options.TopP, MinTopP, MaxTopP)
		config.TopP = genai.Ptr(float32(topP))
	}

	if topK, ok := options.Extra["top_k"].(int); ok {
		// Gemini supports top_k in the range 1 to 40.
		config.TopK = genai.Ptr(float32(ClampInt(topK, 1, 40)))
	}

	return config
}

func (p *googleProvider) handleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return p.errorClassifier.ClassifyContextError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}

		if containsContentPolicyError(apiErr) {
			return NewProviderError("google", ErrorTypeContentPolicy, apiErr.Code,
				"request blocked by safety filters", err)
		}

		return p.errorClassifier.ClassifyHTTPError(apiErr.Code, message, err)
	}

	return NewProviderError("google", ErrorTypeUnknown, 0, "request failed", err)
}

// containsContentPolicyError checks whether a Google API error stems from a
// content policy block.
func containsContentPolicyError(apiErr *googleapi.Error) bool {
	if apiErr.Message != "" {
		lower := strings.ToLower(apiErr.Message)
		if strings.Contains(lower, "safety") ||
			strings.Contains(lower, "policy") ||
			strings.Contains(lower, "blocked") {
			return true
		}
	}

	for _, e := range apiErr.Errors {
		if e.Reason == "SAFETY" || e.Reason == "BLOCKED" {
			return true
		}
	}

	return false
}
