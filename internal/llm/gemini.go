package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/Veraticus/atlas/internal/common"
)

// Sampling settings for Gemini.
const (
	geminiTemperature = 0.2
	geminiTopP        = 0.9
	geminiTopK        = 40
)

// geminiClient implements the Client interface with the Google GenAI SDK.
type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// newGeminiClient creates a Gemini client in JSON response mode.
func newGeminiClient(ctx context.Context, cfg Config) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", common.ErrMissingCredential)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(ProviderGemini)
	}

	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = geminiTemperature
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = newHTTPClient(cfg.Timeout)
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiClient{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   int32(cfg.MaxTokens), //nolint:gosec // bounded by configuration
	}, nil
}

// GenerateJSON sends a prompt with the JSON MIME type and extracts the reply.
func (c *geminiClient) GenerateJSON(ctx context.Context, req Request) (Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		TopP:             genai.Ptr[float32](geminiTopP),
		TopK:             genai.Ptr[float32](geminiTopK),
		ResponseMIMEType: "application/json",
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens) //nolint:gosec // small prompt budgets
	} else if c.maxTokens > 0 {
		config.MaxOutputTokens = c.maxTokens
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return Response{}, translateGenAIError(err)
	}

	var usage Usage
	if result.UsageMetadata != nil {
		usage.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}

	return newResponse(result.Text(), c.model, usage)
}

// translateGenAIError maps SDK errors onto APIError so retry decisions are
// made the same way for every provider.
func translateGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: ProviderGemini, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{Provider: ProviderGemini, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
