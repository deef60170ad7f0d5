package advisor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/futureproof/aitracker/internal/advisor"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply  string
	err    error
	prompt string
}

func (s *stubCompleter) Query(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func sampleInput() advisor.Input {
	answers := map[models.Platform]models.ProviderAnswer{}
	for _, p := range models.Platforms {
		answers[p] = models.ProviderAnswer{Platform: p, Text: "Acme is the usual pick for " + string(p)}
	}
	return advisor.Input{
		BrandName:      "Futureproof",
		Industry:       "Marketing",
		Category:       "AI visibility",
		Coverage:       33.3,
		TopCompetitors: []string{"Acme", "Globex"},
		Rankings:       []models.BrandRanking{{Brand: "Acme", Mentions: 4}, {Brand: "Futureproof", Mentions: 1}},
		Results:        []models.QuestionResult{{QuestionNumber: 1, QuestionText: "Best AEO tools?", Answers: answers}},
	}
}

func TestRecommend_FullReply(t *testing.T) {
	stub := &stubCompleter{reply: "Here you go:\n```json\n[" +
		`{"priority":"High","title":"A","description":"d1","content_type":"Blog Post"},` +
		`{"priority":"low","title":"B","description":"d2","content_type":"FAQ Page"},` +
		`{"priority":"medium","title":"C","description":"d3","content_type":"Case Study"},` +
		`{"priority":"medium","title":"D","description":"d4","content_type":"Guide"},` +
		`{"priority":"medium","title":"E","description":"d5","content_type":"Docs"},` +
		`{"priority":"medium","title":"F","description":"d6","content_type":"Extra"}` +
		"]\n```"}

	recs := advisor.New(stub, 0).Recommend(context.Background(), sampleInput())
	require.Len(t, recs, advisor.Count)
	assert.Equal(t, "high", recs[0].Priority)
	assert.Equal(t, "A", recs[0].Title)
	assert.Equal(t, "E", recs[4].Title)

	assert.Contains(t, stub.prompt, "BRAND: Futureproof")
	assert.Contains(t, stub.prompt, "CURRENT COVERAGE: 33.3% of queries mention this brand")
	assert.Contains(t, stub.prompt, "TOP MENTIONED BRANDS: Acme, Futureproof")
	assert.Contains(t, stub.prompt, "- Perplexity highlighted: Acme is the usual pick for perplexity")
}

func TestRecommend_ShortReplyIsPadded(t *testing.T) {
	stub := &stubCompleter{reply: `[{"priority":"high","title":"Only one","description":"d","content_type":"Blog Post"}]`}

	recs := advisor.New(stub, 0).Recommend(context.Background(), sampleInput())
	require.Len(t, recs, advisor.Count)
	assert.Equal(t, "Only one", recs[0].Title)
	assert.Equal(t, "Publish expert thought leadership content", recs[1].Title)
	assert.Equal(t, "Documentation", recs[4].ContentType)
}

func TestRecommend_CallFailureUsesBrandDefaults(t *testing.T) {
	stub := &stubCompleter{err: errors.New("upstream 529")}

	recs := advisor.New(stub, 0).Recommend(context.Background(), sampleInput())
	require.Len(t, recs, advisor.Count)
	assert.Contains(t, recs[0].Description, "Futureproof's advantages over Acme")
	assert.Contains(t, recs[1].Description, "authoritative Marketing content")
	assert.Contains(t, recs[3].Description, "common AI visibility questions")
}

func TestRecommend_UnreadableReplyUsesBrandDefaults(t *testing.T) {
	stub := &stubCompleter{reply: "I cannot help with that."}

	recs := advisor.New(stub, 0).Recommend(context.Background(), sampleInput())
	require.Len(t, recs, advisor.Count)
	assert.Equal(t, "Product Documentation", recs[4].ContentType)
}

func TestFallback_NoCompetitors(t *testing.T) {
	in := sampleInput()
	in.TopCompetitors = nil
	recs := advisor.Fallback(in)
	assert.Contains(t, recs[0].Description, "advantages over competitors.")
}

func TestParse_DropsUntitledAndNormalizesPriority(t *testing.T) {
	recs, err := advisor.Parse(`[{"priority":"urgent","title":"X"},{"priority":"low","title":"  "}]`)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "medium", recs[0].Priority)
}
