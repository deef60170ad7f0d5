package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/futureproof/aitracker/internal/api/response"
	"github.com/futureproof/aitracker/internal/cache"
	"github.com/futureproof/aitracker/internal/questions"
	"github.com/futureproof/aitracker/pkg/models"
)

const questionSetTTL = 24 * time.Hour

type generateQuestionsResponse struct {
	Questions []models.Question `json:"questions"`
	Cached    bool              `json:"cached"`
}

// NewGenerateQuestionsHandler returns an http.HandlerFunc for
// POST /api/v1/questions/generate. Sets are cached per brand, industry and
// count when c is non-nil; ?refresh=true evicts the cached set first.
func NewGenerateQuestionsHandler(gen QuestionGenerator, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p questions.Profile
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if err := p.Validate(); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		key := cache.QuestionSetKey(p.BrandName, p.Industry, p.Count)
		refresh := r.URL.Query().Get("refresh") == "true"
		if c != nil && refresh {
			if err := c.Delete(r.Context(), key); err != nil {
				slog.Warn("evicting question set failed", "key", key, "error", err)
			}
		}
		if c != nil && !refresh {
			if data, ok, err := c.Get(r.Context(), key); err == nil && ok {
				var qs []models.Question
				if err := json.Unmarshal(data, &qs); err == nil {
					response.JSON(w, generateQuestionsResponse{Questions: qs, Cached: true})
					return
				}
			}
		}

		qs, err := gen.Generate(r.Context(), p)
		if err != nil {
			if errors.Is(err, questions.ErrInvalidProfile) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
				return
			}
			writeProviderError(w, err)
			return
		}

		if c != nil {
			if data, err := json.Marshal(qs); err == nil {
				if err := c.Set(r.Context(), key, data, questionSetTTL); err != nil {
					slog.Warn("caching question set failed", "key", key, "error", err)
				}
			}
		}
		response.JSON(w, generateQuestionsResponse{Questions: qs})
	}
}
