package llmclient

import (
	"context"
	"net/http"
	"time"

	"personify/internal/llm"
)

const defaultSonarBaseURL = "https://api.perplexity.ai"

// SonarClient talks to the Perplexity search-grounded API. It degrades
// gracefully: with no API key configured, Available reports false and
// every call returns marker text instead of failing the pipeline.
type SonarClient struct {
	hc      *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewSonarClient(apiKey, model, baseURL string) *SonarClient {
	if model == "" {
		model = "sonar"
	}
	if baseURL == "" {
		baseURL = defaultSonarBaseURL
	}
	return &SonarClient{
		hc:      &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}
}

func (s *SonarClient) Name() string    { return "Sonar:" + s.model }
func (s *SonarClient) Close() error    { return nil }
func (s *SonarClient) Available() bool { return s != nil && s.apiKey != "" }

func (s *SonarClient) GenerateText(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	if !s.Available() {
		return llm.ErrorText("sonar api key not configured"), nil
	}
	body := chatRequest{
		Model:              s.model,
		Messages:           []chatMessage{{Role: "user", Content: prompt}},
		Temperature:        opts.Temperature,
		MaxTokens:          opts.MaxTokens,
		SearchDomainFilter: opts.DomainFilter,
	}
	return doChat(ctx, s.hc, s.baseURL, s.apiKey, "sonar", body)
}

var _ llm.Verifier = (*SonarClient)(nil)
