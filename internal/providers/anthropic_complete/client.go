package anthropic_complete

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"modelstudio/internal/providers"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Version    string
	MaxTokens  int
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client speaks the prompt-completion wire format: the conversation is flattened into a
// single Human/Assistant transcript and the reply comes back in "completion".
type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 512
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	return &Client{cfg: cfg}
}

var _ providers.Provider = (*Client)(nil)

// FlattenPrompt renders messages as "\n\nSystem: ", "\n\nHuman: " and "\n\nAssistant: "
// turns and ends with the "\n\nAssistant:" cue. Unknown roles render as Assistant.
func FlattenPrompt(messages []providers.Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case providers.RoleSystem:
			b.WriteString("\n\nSystem: ")
		case providers.RoleUser:
			b.WriteString("\n\nHuman: ")
		default:
			b.WriteString("\n\nAssistant: ")
		}
		b.WriteString(m.Content)
	}
	b.WriteString("\n\nAssistant:")
	return b.String()
}

type completeRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	MaxTokensToSample int     `json:"max_tokens_to_sample"`
	Temperature       float64 `json:"temperature"`
}

func (c *Client) Chat(ctx context.Context, req providers.ChatRequest) (providers.ChatResponse, error) {
	body, err := json.Marshal(completeRequest{
		Model:             req.Model,
		Prompt:            FlattenPrompt(req.Messages),
		MaxTokensToSample: c.cfg.MaxTokens,
		Temperature:       req.Temperature,
	})
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("marshal complete payload: %w", err)
	}

	endpoint := strings.TrimSuffix(strings.TrimSpace(c.cfg.BaseURL), "/") + "/v1/complete"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	if c.cfg.Version != "" {
		httpReq.Header.Set("anthropic-version", c.cfg.Version)
	}

	resp, err := c.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return providers.ChatResponse{}, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 || resp.StatusCode < 200 {
		return providers.ChatResponse{}, &providers.UpstreamError{StatusCode: resp.StatusCode, Excerpt: providers.Excerpt(respBody)}
	}

	var parsed struct {
		Completion *string `json:"completion"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return providers.ChatResponse{}, &providers.UpstreamError{StatusCode: resp.StatusCode, Reason: "unexpected response", Excerpt: providers.Excerpt(respBody)}
	}
	if parsed.Completion == nil {
		return providers.ChatResponse{}, &providers.UpstreamError{StatusCode: resp.StatusCode, Reason: "missing completion", Excerpt: providers.Excerpt(respBody)}
	}
	return providers.ChatResponse{Text: *parsed.Completion}, nil
}
