package questions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/futureproof/aitracker/internal/questions"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (s *stubCompleter) Query(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.reply, s.err
}

func TestGenerate_ObjectsWithCategories(t *testing.T) {
	stub := &stubCompleter{reply: "```json\n" + `[
		{"text": "What are the best AEO tools for startups?", "category": "consideration"},
		{"text": "Which visibility tracker should I choose?", "category": "Decision"},
		{"text": "How do brands show up in AI answers?", "category": "funnel-top"}
	]` + "\n```"}

	qs, err := questions.New(stub, 0).Generate(context.Background(), questions.Profile{BrandName: "Futureproof", Industry: "Marketing", Count: 3})
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, models.CategoryConsideration, qs[0].Category)
	assert.Equal(t, models.CategoryDecision, qs[1].Category)
	assert.Equal(t, models.CategoryGeneral, qs[2].Category)

	assert.Contains(t, stub.prompt, "generate exactly 3 recommendation-style questions")
	assert.Contains(t, stub.prompt, "- Brand URL: not provided")
	assert.Contains(t, stub.prompt, "- Industry: Marketing")
	assert.Contains(t, stub.prompt, `Do NOT mention the brand name "Futureproof"`)
}

func TestGenerate_PlainStringsAreTrimmedToCount(t *testing.T) {
	stub := &stubCompleter{reply: `Sure! ["Best CRM for agencies?", "  ", "Top 5 CRMs for SMBs?", "Which CRM is cheapest?"]`}

	qs, err := questions.New(stub, 0).Generate(context.Background(), questions.Profile{BrandName: "Acme", Count: 2})
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "Best CRM for agencies?", qs[0].Text)
	assert.Equal(t, "Top 5 CRMs for SMBs?", qs[1].Text)
	assert.Equal(t, models.CategoryGeneral, qs[1].Category)
}

func TestGenerate_InvalidProfileSkipsModel(t *testing.T) {
	tests := []struct {
		name    string
		profile questions.Profile
	}{
		{"missing brand", questions.Profile{Count: 5}},
		{"zero count", questions.Profile{BrandName: "Acme", Count: 0}},
		{"count above cap", questions.Profile{BrandName: "Acme", Count: 51}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCompleter{}
			_, err := questions.New(stub, 0).Generate(context.Background(), tc.profile)
			assert.ErrorIs(t, err, questions.ErrInvalidProfile)
			assert.Zero(t, stub.calls)
		})
	}
}

func TestGenerate_ModelFailure(t *testing.T) {
	boom := errors.New("status 500")
	stub := &stubCompleter{err: boom}

	_, err := questions.New(stub, 0).Generate(context.Background(), questions.Profile{BrandName: "Acme", Count: 10})
	assert.ErrorIs(t, err, boom)
}

func TestParse_NoArray(t *testing.T) {
	_, err := questions.Parse("I am unable to produce questions.")
	assert.ErrorIs(t, err, questions.ErrNoQuestions)

	_, err = questions.Parse(`[1, 2, {"category": "Awareness"}]`)
	assert.ErrorIs(t, err, questions.ErrNoQuestions)
}
