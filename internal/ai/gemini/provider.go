package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/futureproof/aitracker/internal/ai/llmhttp"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
)

// Provider implements models.AIProvider using the Gemini generateContent API.
// The key travels in the x-goog-api-key header.
type Provider struct {
	cfg    config.ProviderConfig
	client *llmhttp.Client
}

func NewProvider(cfg config.ProviderConfig, client *llmhttp.Client) *Provider {
	if client == nil {
		client = llmhttp.New(models.PlatformGemini, 0)
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Platform() models.Platform { return models.PlatformGemini }

func (p *Provider) Name() string { return "gemini" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

func (p *Provider) Query(ctx context.Context, prompt string) (string, error) {
	if p.cfg.APIKey == "" {
		return "", p.client.Misconfigured("GEMINI_API_KEY is not set")
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(p.cfg.BaseURL, "/"), url.PathEscape(p.cfg.Model))

	req := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}
	if p.cfg.MaxTokens > 0 {
		req.GenerationConfig = &generationConfig{MaxOutputTokens: p.cfg.MaxTokens}
	}

	body, err := p.client.PostJSON(ctx, u, map[string]string{"x-goog-api-key": p.cfg.APIKey}, req)
	if err != nil {
		return "", err
	}
	return p.client.ExtractText(body, "candidates.0.content.parts.0.text")
}

var _ models.AIProvider = (*Provider)(nil)
