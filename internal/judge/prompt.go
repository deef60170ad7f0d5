package judge

import (
	"fmt"
	"strings"

	"github.com/futureproof/aitracker/pkg/models"
)

const rubric = `Score each response (0-100) on:
- mention: Was the brand mentioned? (0=no, 100=yes prominently)
- position: Where was brand positioned? (100=first, 75=second, 50=mentioned, 0=absent)
- sentiment: How positive? (0=negative, 50=neutral, 100=positive)
- recommendation: Was it recommended? (0=no, 100=explicitly recommended)
- message_alignment: Did it reflect key messages? (0-100)
- overall: Weighted average
- competitors_mentioned: Comma-separated names of other brands the response mentioned
- notes: A brief 2-3 sentence summary of how this AI answered the question and what it prioritized (which brands it featured, what criteria it emphasized, whether it gave a direct recommendation)

A response that starts with "Error:" failed to load; score it 0 on every dimension.

Return ONLY valid JSON:
{
  "chatgpt": {"mention":0,"position":0,"sentiment":0,"recommendation":0,"message_alignment":0,"overall":0,"competitors_mentioned":"","notes":""},
  "claude": {"mention":0,"position":0,"sentiment":0,"recommendation":0,"message_alignment":0,"overall":0,"competitors_mentioned":"","notes":""},
  "gemini": {"mention":0,"position":0,"sentiment":0,"recommendation":0,"message_alignment":0,"overall":0,"competitors_mentioned":"","notes":""},
  "perplexity": {"mention":0,"position":0,"sentiment":0,"recommendation":0,"message_alignment":0,"overall":0,"competitors_mentioned":"","notes":""}
}`

// BuildPrompt renders the evaluation request for one question. Failed
// answers appear as their error marker.
func BuildPrompt(brand models.BrandContext, question string, answers map[models.Platform]models.ProviderAnswer) string {
	var b strings.Builder
	b.WriteString("You are analyzing AI responses for brand visibility.\n")
	fmt.Fprintf(&b, "BRAND: %s\n", brand.Name)
	fmt.Fprintf(&b, "KEY MESSAGES: %s\n", strings.Join(brand.KeyMessages, ", "))
	fmt.Fprintf(&b, "COMPETITORS: %s\n", strings.Join(brand.Competitors, ", "))
	fmt.Fprintf(&b, "QUESTION: %s\n", question)
	b.WriteString("RESPONSES:\n")
	for _, p := range models.Platforms {
		a, ok := answers[p]
		text := a.Marker()
		if !ok {
			text = "Error: no response"
		}
		fmt.Fprintf(&b, "%s: %s\n", p.DisplayName(), text)
	}
	b.WriteString("\n")
	b.WriteString(rubric)
	return b.String()
}
