package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futureproof/aitracker/internal/ai"
	"github.com/futureproof/aitracker/internal/cache/cachetest"
	"github.com/futureproof/aitracker/internal/questions"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGenerator() *mockGenerator {
	return &mockGenerator{fn: func(p questions.Profile) ([]models.Question, error) {
		out := make([]models.Question, p.Count)
		for i := range out {
			out[i] = models.Question{Text: fmt.Sprintf("question %d about %s", i+1, p.BrandName), Category: models.CategoryAwareness}
		}
		return out, nil
	}}
}

func generateRequest(t *testing.T, body any) *http.Request {
	return jsonRequest(t, http.MethodPost, "/api/v1/questions/generate", body)
}

func TestGenerateQuestions_OK(t *testing.T) {
	gen := fixedGenerator()
	h := NewGenerateQuestionsHandler(gen, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, generateRequest(t, map[string]any{"brand_name": "Acme", "industry": "CRM", "count": 3}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	qs := data["questions"].([]any)
	require.Len(t, qs, 3)
	assert.Equal(t, "question 1 about Acme", qs[0].(map[string]any)["text"])
	assert.Equal(t, "Awareness", qs[0].(map[string]any)["category"])
	assert.Equal(t, false, data["cached"])
}

func TestGenerateQuestions_ServesRepeatFromCache(t *testing.T) {
	gen := fixedGenerator()
	h := NewGenerateQuestionsHandler(gen, cachetest.NewMemory())

	body := map[string]any{"brand_name": "Acme", "industry": "CRM", "count": 2}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, generateRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	body["brand_name"] = "  ACME "
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, generateRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, true, data["cached"])
	assert.Len(t, data["questions"], 2)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateQuestions_RefreshEvictsCachedSet(t *testing.T) {
	gen := fixedGenerator()
	c := cachetest.NewMemory()
	h := NewGenerateQuestionsHandler(gen, c)

	body := map[string]any{"brand_name": "Acme", "industry": "CRM", "count": 2}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, generateRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	req := jsonRequest(t, http.MethodPost, "/api/v1/questions/generate?refresh=true", body)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeData(t, rec)["cached"])
	assert.Equal(t, 2, gen.calls)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, generateRequest(t, body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeData(t, rec)["cached"])
	assert.Equal(t, 2, gen.calls)
}

func TestGenerateQuestions_InvalidProfile(t *testing.T) {
	gen := fixedGenerator()
	h := NewGenerateQuestionsHandler(gen, nil)

	for _, body := range []any{
		map[string]any{"brand_name": "", "count": 5},
		map[string]any{"brand_name": "Acme", "count": 0},
		map[string]any{"brand_name": "Acme", "count": 51},
		"{broken",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, generateRequest(t, body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
	}
	assert.Zero(t, gen.calls)
}

func TestGenerateQuestions_ProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"timeout", fmt.Errorf("generate questions: %w", ai.ErrInferenceTimeout), http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT"},
		{"unavailable", fmt.Errorf("generate questions: %w", ai.ErrProviderUnavailable), http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE"},
		{"no questions", questions.ErrNoQuestions, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &mockGenerator{fn: func(questions.Profile) ([]models.Question, error) { return nil, tc.err }}
			h := NewGenerateQuestionsHandler(gen, cachetest.NewMemory())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, generateRequest(t, map[string]any{"brand_name": "Acme", "count": 5}))

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}
