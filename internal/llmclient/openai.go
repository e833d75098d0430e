package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"personify/internal/llm"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient talks to the chat-completions REST API directly.
type OpenAIClient struct {
	hc      *http.Client
	apiKey  string
	model   string
	baseURL string
}

func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o"
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		hc:      &http.Client{Timeout: 90 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}
}

func (c *OpenAIClient) Name() string { return "OpenAI:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	// Perplexity extension; OpenAI ignores unknown fields server-side
	// but we only set it from the sonar wrapper.
	SearchDomainFilter []string `json:"search_domain_filter,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	body := chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    opts.Temperature,
		MaxTokens:      opts.MaxTokens,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	return doChat(ctx, c.hc, c.baseURL, c.apiKey, "openai", body)
}

// doChat posts a chat-completions request and maps every provider-side
// failure to marker text. Only context cancellation surfaces as error.
func doChat(ctx context.Context, hc *http.Client, baseURL, apiKey, provider string, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", llm.NewPermanentError(fmt.Errorf("%s: marshal request: %w", provider, err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", llm.NewPermanentError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return llm.ErrorText("%s request failed: %v", provider, err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return llm.ErrorText("%s read response: %v", provider, err), nil
	}
	if resp.StatusCode != http.StatusOK {
		return llm.ErrorText("%s http %d: %s", provider, resp.StatusCode, firstLine(raw)), nil
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return llm.ErrorText("%s decode response: %v", provider, err), nil
	}
	if out.Error != nil {
		return llm.ErrorText("%s api error: %s", provider, out.Error.Message), nil
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return llm.ErrorText("%s returned no choices", provider), nil
	}
	return out.Choices[0].Message.Content, nil
}

func firstLine(b []byte) string {
	s := string(b)
	for i, r := range s {
		if r == '\n' || i >= 200 {
			return s[:i]
		}
	}
	return s
}
