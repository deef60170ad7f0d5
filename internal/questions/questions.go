// Package questions drafts buyer-intent questions for a brand profile.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futureproof/aitracker/internal/llmjson"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/tidwall/gjson"
)

const (
	MinCount = 1
	MaxCount = 50
)

var (
	ErrInvalidProfile = errors.New("invalid brand profile")
	ErrNoQuestions    = errors.New("model returned no questions")
)

// Completer is the model call the generator depends on.
type Completer interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Profile describes the brand questions are drafted for.
type Profile struct {
	BrandName string `json:"brand_name"`
	BrandURL  string `json:"brand_url,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Goals     string `json:"business_goals,omitempty"`
	Count     int    `json:"count"`
}

// Validate checks the profile before any model call.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.BrandName) == "" {
		return fmt.Errorf("%w: brand_name is required", ErrInvalidProfile)
	}
	if p.Count < MinCount || p.Count > MaxCount {
		return fmt.Errorf("%w: count must be between %d and %d, got %d", ErrInvalidProfile, MinCount, MaxCount, p.Count)
	}
	return nil
}

type Generator struct {
	client  Completer
	timeout time.Duration
}

func New(client Completer, timeout time.Duration) *Generator {
	return &Generator{client: client, timeout: timeout}
}

// Generate asks the model for p.Count questions. Unlike the judge and the
// advisor there is no fallback: callers get the error.
func (g *Generator) Generate(ctx context.Context, p Profile) ([]models.Question, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.client.Query(callCtx, BuildPrompt(p))
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	qs, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if len(qs) > p.Count {
		qs = qs[:p.Count]
	}
	return qs, nil
}

// Parse reads a JSON array whose items are either plain strings or
// {text, category} objects. Blank items are skipped.
func Parse(raw string) ([]models.Question, error) {
	payload, err := llmjson.Array(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoQuestions, err)
	}

	var qs []models.Question
	gjson.Parse(payload).ForEach(func(_, item gjson.Result) bool {
		var q models.Question
		switch {
		case item.Type == gjson.String:
			q = models.Question{Text: item.String(), Category: models.CategoryGeneral}
		case item.IsObject():
			q = models.Question{Text: item.Get("text").String(), Category: models.ParseCategory(item.Get("category").String())}
		default:
			return true
		}
		q.Text = strings.TrimSpace(q.Text)
		if q.Text != "" {
			qs = append(qs, q)
		}
		return true
	})

	if len(qs) == 0 {
		return nil, ErrNoQuestions
	}
	return qs, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

// BuildPrompt renders the question-drafting request.
func BuildPrompt(p Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI visibility tracking expert. Your task is to generate exactly %d recommendation-style questions that real consumers would ask AI assistants (e.g. ChatGPT, Claude, Perplexity) when researching or shopping.\n\n", p.Count)
	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(&b, "- Brand: %s\n", p.BrandName)
	fmt.Fprintf(&b, "- Brand URL: %s\n", orDefault(p.BrandURL, "not provided"))
	fmt.Fprintf(&b, "- Industry: %s\n", orDefault(p.Industry, "not specified"))
	fmt.Fprintf(&b, "- User's business goals for AI visibility tracking: %s\n\n", orDefault(p.Goals, "not specified"))
	b.WriteString("REQUIREMENTS:\n")
	fmt.Fprintf(&b, "1. Generate exactly %d questions.\n", p.Count)
	b.WriteString(`2. Questions MUST be in formats like:
   - "What are the best [category] for [use case]?"
   - "What [product type] do you recommend for [scenario]?"
   - "Which [category] should I consider for [audience/need]?"
   - "Top [number] [category] for [specific situation]?"
3. Align questions with the user's business goals (e.g. brand awareness, competitor comparison, product recommendations, use-case scenarios).
4. Distribute across buyer journey stages: Awareness (30%), Consideration (40%), Decision (30%).
`)
	fmt.Fprintf(&b, "5. Do NOT mention the brand name %q in any question. These are questions consumers would ask, not brand-specific.\n", p.BrandName)
	b.WriteString(`6. Questions should be relevant to the industry and typical buyer intent.

Return ONLY a JSON array:
[{"text": "question text", "category": "Awareness|Consideration|Decision"}]

No explanation. JSON only.`)
	return b.String()
}
