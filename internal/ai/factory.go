package ai

import (
	"time"

	"github.com/futureproof/aitracker/internal/ai/anthropic"
	"github.com/futureproof/aitracker/internal/ai/gemini"
	"github.com/futureproof/aitracker/internal/ai/llmhttp"
	"github.com/futureproof/aitracker/internal/ai/openai"
	"github.com/futureproof/aitracker/internal/ai/perplexity"
	"github.com/futureproof/aitracker/internal/config"
	"github.com/futureproof/aitracker/pkg/models"
)

// NewProviders constructs the four assistant adapters in models.Platforms order.
// Called once at server startup. timeout bounds each individual call.
func NewProviders(cfg config.AIConfig, timeout time.Duration) []models.AIProvider {
	return []models.AIProvider{
		openai.NewProvider(cfg.OpenAI, llmhttp.New(models.PlatformChatGPT, timeout)),
		anthropic.NewProvider(cfg.Anthropic, llmhttp.New(models.PlatformClaude, timeout)),
		gemini.NewProvider(cfg.Gemini, llmhttp.New(models.PlatformGemini, timeout)),
		perplexity.NewProvider(cfg.Perplexity, llmhttp.New(models.PlatformPerplexity, timeout)),
	}
}

// NewJudgeClient returns the Anthropic client used for scoring, content
// advice and question generation. It shares the Anthropic credentials but
// runs with the judge model and token budget.
func NewJudgeClient(cfg config.AIConfig, timeout time.Duration) *anthropic.Provider {
	judgeCfg := cfg.Anthropic
	if cfg.Judge.Model != "" {
		judgeCfg.Model = cfg.Judge.Model
	}
	if cfg.Judge.MaxTokens > 0 {
		judgeCfg.MaxTokens = cfg.Judge.MaxTokens
	}
	return anthropic.NewProvider(judgeCfg, llmhttp.New(models.PlatformClaude, timeout))
}
