package anthropic

import (
	"context"
	"strings"

	"github.com/futureproof/aitracker/internal/ai/llmhttp"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
)

const apiVersion = "2023-06-01"

// Provider implements models.AIProvider using the Anthropic messages API.
// The same type backs the judge, advisor and question generator with a
// different model and token budget.
type Provider struct {
	cfg    config.ProviderConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.ProviderConfig, client *llmhttp.Client) *Provider {
	if client == nil {
		client = llmhttp.New(models.PlatformClaude, 0)
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Platform() models.Platform { return models.PlatformClaude }

func (p *Provider) Name() string { return "anthropic" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

func (p *Provider) Query(ctx context.Context, prompt string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", p.client.Misconfigured("ANTHROPIC_API_KEY is not set")
	}

	body, err := p.client.PostJSON(ctx,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/messages",
		map[string]string{
			"x-api-key":         p.cfg.APIKey,
			"anthropic-version": apiVersion,
		},
		messagesRequest{
			Model:     p.cfg.Model,
			MaxTokens: p.cfg.MaxTokens,
			Messages:  []message{{Role: "user", Content: prompt}},
		},
	)
	if err != nil {
		return "", err
	}
	return p.client.ExtractText(body, "content.0.text")
}

var _ models.AIProvider = (*Provider)(nil)
