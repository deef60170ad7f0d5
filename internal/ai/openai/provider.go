package openai

import (
	"context"
	"strings"

	"github.com/futureproof/aitracker/internal/ai/llmhttp"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
)

// Provider implements models.AIProvider using the OpenAI chat completions API.
type Provider struct {
	cfg    config.ProviderConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.ProviderConfig, client *llmhttp.Client) *Provider {
	if client == nil {
		client = llmhttp.New(models.PlatformChatGPT, 0)
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Platform() models.Platform { return models.PlatformChatGPT }

func (p *Provider) Name() string { return "openai" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

func (p *Provider) Query(ctx context.Context, prompt string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", p.client.Misconfigured("OPENAI_API_KEY is not set")
	}

	body, err := p.client.PostJSON(ctx,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/chat/completions",
		map[string]string{"Authorization": "Bearer " + p.cfg.APIKey},
		chatRequest{
			Model:     p.cfg.Model,
			Messages:  []message{{Role: "user", Content: prompt}},
			MaxTokens: p.cfg.MaxTokens,
		},
	)
	if err != nil {
		return "", err
	}
	return p.client.ExtractText(body, "choices.0.message.content")
}

var _ models.AIProvider = (*Provider)(nil)
