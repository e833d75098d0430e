package llmclient

import (
	"context"

	genai "google.golang.org/genai"

	"personify/internal/llm"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging) are applied via llm.Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	// The genai client reads the API key from env when not set here.
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// GenerateText asks for application/json and returns the model's text.
// Provider-side failures come back as marker text, never as errors.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		cfg.Temperature = &t
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return llm.ErrorText("gemini request failed: %v", err), nil
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return llm.ErrorText("gemini returned no candidates"), nil
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

var _ llm.Client = (*GeminiClient)(nil)
