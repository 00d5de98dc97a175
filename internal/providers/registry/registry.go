package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"modelstudio/internal/apperr"
	"modelstudio/internal/config"
	"modelstudio/internal/metrics"
	"modelstudio/internal/providers"
	"modelstudio/internal/providers/anthropic_complete"
	"modelstudio/internal/providers/custom_http"
	"modelstudio/internal/providers/openai_compat"
)

const (
	TagOpenAI    = "openai"
	TagAnthropic = "anthropic"
	TagCustom    = "custom"
)

// Entry registers one provider tag. Provider is nil when the credential named by
// CredentialEnv is absent from the configuration.
type Entry struct {
	Tag           string
	Label         string
	CredentialEnv string
	Provider      providers.Provider
}

type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mock bool   `json:"mock"`
}

type Options struct {
	AllowMock bool
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// Gateway dispatches canonical conversations to the provider registered for a tag.
type Gateway struct {
	entries   map[string]Entry
	order     []string
	allowMock bool
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func New(opts Options, entries ...Entry) *Gateway {
	m := opts.Metrics
	if m == nil {
		m = metrics.Global()
	}
	g := &Gateway{
		entries:   make(map[string]Entry, len(entries)),
		allowMock: opts.AllowMock,
		logger:    opts.Logger,
		metrics:   m,
	}
	for _, e := range entries {
		if _, dup := g.entries[e.Tag]; !dup {
			g.order = append(g.order, e.Tag)
		}
		g.entries[e.Tag] = e
	}
	return g
}

// Build registers the providers known to this deployment from cfg. A nil httpClient
// gives each provider its own client with the configured timeout.
func Build(cfg config.ProvidersConfig, httpClient *http.Client, opts Options) (*Gateway, error) {
	opts.AllowMock = cfg.AllowMock

	openai := Entry{Tag: TagOpenAI, Label: "OpenAI", CredentialEnv: "OPENAI_API_KEY"}
	if cfg.OpenAI.APIKey != "" {
		openai.Provider = openai_compat.New(openai_compat.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKey:     cfg.OpenAI.APIKey,
			Headers:    cfg.OpenAI.Headers,
			HTTPClient: httpClient,
			Timeout:    cfg.OpenAI.Timeout,
		})
	}

	anthropic := Entry{Tag: TagAnthropic, Label: "Anthropic", CredentialEnv: "ANTHROPIC_API_KEY"}
	if cfg.Anthropic.APIKey != "" {
		anthropic.Provider = anthropic_complete.New(anthropic_complete.Config{
			BaseURL:    cfg.Anthropic.BaseURL,
			APIKey:     cfg.Anthropic.APIKey,
			Version:    cfg.Anthropic.Version,
			MaxTokens:  cfg.Anthropic.MaxTokens,
			HTTPClient: httpClient,
			Timeout:    cfg.Anthropic.Timeout,
		})
	}

	custom := Entry{Tag: TagCustom, Label: "Custom HTTP", CredentialEnv: "CUSTOM_PROVIDER_URL"}
	if cfg.Custom.URL != "" {
		p, err := custom_http.New(custom_http.Config{
			URL:          cfg.Custom.URL,
			APIKey:       cfg.Custom.APIKey,
			Headers:      cfg.Custom.Headers,
			BodyTemplate: cfg.Custom.BodyTemplate,
			HTTPClient:   httpClient,
			Timeout:      cfg.Custom.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("build custom provider: %w", err)
		}
		custom.Provider = p
	}

	return New(opts, openai, anthropic, custom), nil
}

// Dispatch sends messages to the provider registered under tag and returns the reply.
// Unknown tags and disabled providers are bad requests; anything that goes wrong
// talking to the provider is a provider error.
func (g *Gateway) Dispatch(ctx context.Context, tag, model string, messages []providers.Message, temperature float64) (string, error) {
	entry, ok := g.entries[tag]
	if !ok {
		g.metrics.ProviderRequests.WithLabelValues("unknown", "unknown").Inc()
		return "", apperr.BadRequest("Unknown provider '%s'", tag)
	}

	if entry.Provider == nil {
		if g.allowMock {
			g.metrics.ProviderRequests.WithLabelValues(tag, "mock").Inc()
			return MockReply(entry), nil
		}
		g.metrics.ProviderRequests.WithLabelValues(tag, "disabled").Inc()
		return "", apperr.BadRequest("%s provider disabled (%s missing).", entry.Label, entry.CredentialEnv)
	}

	start := time.Now()
	resp, err := entry.Provider.Chat(ctx, providers.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	g.metrics.ProviderLatency.WithLabelValues(tag).Observe(time.Since(start).Seconds())
	if err != nil {
		g.metrics.ProviderRequests.WithLabelValues(tag, "error").Inc()
		g.logger.Warn().Err(err).Str("provider", tag).Str("model", model).Msg("provider call failed")
		return "", apperr.Provider(fmt.Sprintf("%s error: %s", entry.Label, describe(err)), err)
	}
	g.metrics.ProviderRequests.WithLabelValues(tag, "ok").Inc()
	return resp.Text, nil
}

// Providers lists the providers a client can use right now: those with a credential,
// plus the rest flagged as mock when mock mode is on.
func (g *Gateway) Providers() []Info {
	out := make([]Info, 0, len(g.order))
	for _, tag := range g.order {
		e := g.entries[tag]
		switch {
		case e.Provider != nil:
			out = append(out, Info{ID: e.Tag, Name: e.Label})
		case g.allowMock:
			out = append(out, Info{ID: e.Tag, Name: e.Label + " (mockable)", Mock: true})
		}
	}
	return out
}

func MockReply(e Entry) string {
	return fmt.Sprintf("[MOCK %s reply] This is a mock reply because %s is not set.", strings.ToUpper(e.Tag), e.CredentialEnv)
}

func describe(err error) string {
	var upstream *providers.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	msg := err.Error()
	if r := []rune(msg); len(r) > providers.ExcerptLimit {
		msg = string(r[:providers.ExcerptLimit]) + "…"
	}
	return msg
}
