// Package advisor turns a finished report into content-strategy suggestions.
package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/futureproof/aitracker/internal/llmjson"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/tidwall/gjson"
)

// Count is how many recommendations every report carries.
const Count = 5

const (
	sampleQuestions = 5
	sampleChars     = 500
	topBrands       = 5
)

// Completer is the model call the advisor depends on.
type Completer interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Input is the slice of a report the advisor looks at.
type Input struct {
	BrandName      string
	Industry       string
	Category       string
	Coverage       float64
	Rankings       []models.BrandRanking
	TopCompetitors []string
	Results        []models.QuestionResult
}

type Advisor struct {
	client  Completer
	timeout time.Duration
}

func New(client Completer, timeout time.Duration) *Advisor {
	return &Advisor{client: client, timeout: timeout}
}

// Recommend always returns exactly Count items. Short model output is padded
// with generic defaults; a failed call or unreadable output yields the
// brand-specific defaults instead.
func (a *Advisor) Recommend(ctx context.Context, in Input) []models.ContentRecommendation {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.client.Query(callCtx, BuildPrompt(in))
	if err != nil {
		slog.Warn("content recommendations fell back to defaults", "brand", in.BrandName, "error", err)
		return Fallback(in)
	}

	recs, err := Parse(raw)
	if err != nil {
		slog.Warn("content recommendations fell back to defaults", "brand", in.BrandName, "error", err)
		return Fallback(in)
	}
	return Pad(recs)
}

// Parse reads a JSON array of recommendation objects out of model output.
// Items without a title are dropped.
func Parse(raw string) ([]models.ContentRecommendation, error) {
	payload, err := llmjson.Array(raw)
	if err != nil {
		return nil, err
	}

	var recs []models.ContentRecommendation
	gjson.Parse(payload).ForEach(func(_, item gjson.Result) bool {
		title := strings.TrimSpace(item.Get("title").String())
		if title == "" {
			return true
		}
		priority := strings.ToLower(strings.TrimSpace(item.Get("priority").String()))
		if priority != "high" && priority != "medium" && priority != "low" {
			priority = "medium"
		}
		recs = append(recs, models.ContentRecommendation{
			Priority:    priority,
			Title:       title,
			Description: strings.TrimSpace(item.Get("description").String()),
			ContentType: strings.TrimSpace(item.Get("content_type").String()),
		})
		return true
	})
	return recs, nil
}

// Pad trims recs to Count or fills the missing positions from the generic
// defaults.
func Pad(recs []models.ContentRecommendation) []models.ContentRecommendation {
	if len(recs) >= Count {
		return recs[:Count]
	}
	out := append([]models.ContentRecommendation(nil), recs...)
	for len(out) < Count {
		out = append(out, genericDefaults[len(out)])
	}
	return out
}

var genericDefaults = [Count]models.ContentRecommendation{
	{Priority: "high", Title: "Create comparison content vs top competitors", Description: "Develop detailed comparison guides showing your brand's advantages over competitors frequently mentioned by AI. Focus on the specific features and benefits AI models highlight.", ContentType: "Comparison Guide"},
	{Priority: "high", Title: "Publish expert thought leadership content", Description: "Create authoritative content that positions your brand as an industry leader. AI models favor brands with strong expertise signals and comprehensive educational content.", ContentType: "Blog Post Series"},
	{Priority: "medium", Title: "Build detailed use case documentation", Description: "Document specific use cases and success stories that align with how AI models categorize solutions in your space. Include concrete examples and outcomes.", ContentType: "Case Studies"},
	{Priority: "medium", Title: "Optimize for question-based queries", Description: "Create FAQ and Q&A content that directly addresses the types of questions users ask AI assistants about your category. Mirror the question formats in your content.", ContentType: "FAQ Page"},
	{Priority: "medium", Title: "Strengthen technical documentation", Description: "Enhance your technical docs and feature explanations to match the depth of information AI models cite when recommending solutions.", ContentType: "Documentation"},
}

// Fallback returns the defaults used when the model call fails.
func Fallback(in Input) []models.ContentRecommendation {
	rival := "competitors"
	if len(in.TopCompetitors) > 0 {
		rival = in.TopCompetitors[0]
	}
	return []models.ContentRecommendation{
		{Priority: "high", Title: "Create comparison content vs top competitors", Description: fmt.Sprintf("Develop detailed comparison guides showing %s's advantages over %s. AI models frequently cite comparative information when making recommendations.", in.BrandName, rival), ContentType: "Comparison Guide"},
		{Priority: "high", Title: "Publish expert thought leadership content", Description: fmt.Sprintf("Create authoritative %s content that positions %s as an industry leader. AI models favor brands with strong expertise signals.", in.Industry, in.BrandName), ContentType: "Blog Post Series"},
		{Priority: "medium", Title: "Build detailed use case documentation", Description: fmt.Sprintf("Document specific %s use cases with concrete examples and outcomes. AI models value solution-oriented content with measurable results.", in.Category), ContentType: "Case Studies"},
		{Priority: "medium", Title: "Optimize FAQ content for AI queries", Description: fmt.Sprintf("Create comprehensive Q&A content addressing common %s questions. Structure content to match how users query AI assistants.", in.Category), ContentType: "FAQ Page"},
		{Priority: "medium", Title: "Strengthen feature and benefit documentation", Description: fmt.Sprintf("Enhance documentation of %s's key features and benefits. AI models cite detailed product information when recommending solutions.", in.BrandName), ContentType: "Product Documentation"},
	}
}

// BuildPrompt renders the content-strategy request.
func BuildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("You are an AI visibility and content strategy expert. Analyze these AI responses and generate 5 specific, actionable content recommendations.\n\n")
	fmt.Fprintf(&b, "BRAND: %s\n", in.BrandName)
	fmt.Fprintf(&b, "CATEGORY: %s\n", in.Category)
	fmt.Fprintf(&b, "INDUSTRY: %s\n", in.Industry)
	fmt.Fprintf(&b, "CURRENT COVERAGE: %.1f%% of queries mention this brand\n", in.Coverage)
	fmt.Fprintf(&b, "TOP COMPETITORS IN AI RESPONSES: %s\n", strings.Join(in.TopCompetitors, ", "))

	var brands []string
	for i, r := range in.Rankings {
		if i == topBrands {
			break
		}
		brands = append(brands, r.Brand)
	}
	fmt.Fprintf(&b, "TOP MENTIONED BRANDS: %s\n\n", strings.Join(brands, ", "))

	b.WriteString("SAMPLE AI RESPONSES TO CATEGORY QUESTIONS:\n")
	for i, r := range in.Results {
		if i == sampleQuestions {
			break
		}
		fmt.Fprintf(&b, "\nQ%d: %s\n", i+1, r.QuestionText)
		for _, p := range models.Platforms {
			fmt.Fprintf(&b, "- %s highlighted: %s\n", p.DisplayName(), truncate(r.Answers[p].Text, sampleChars))
		}
	}

	b.WriteString(`
Based on what the AI models value and recommend, generate exactly 5 content strategy recommendations. Each recommendation should:
1. Be specific and actionable (not generic advice)
2. Focus on creating content that will improve AI visibility
3. Address specific topics, attributes, or themes the AI models seem to prioritize
4. Help the brand get mentioned more and ranked higher in future AI responses
5. Include specific content types (blog posts, comparison pages, case studies, etc.)

Return ONLY valid JSON array with exactly 5 items:
[
  {
    "priority": "high|medium|low",
    "title": "Short action title (5-8 words)",
    "description": "Detailed explanation of what content to create and why it will help (2-3 sentences)",
    "content_type": "Type of content (e.g., Blog Post, Comparison Guide, Case Study, FAQ Page, etc.)"
  }
]`)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
