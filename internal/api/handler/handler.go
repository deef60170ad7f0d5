// Package handler holds the HTTP handlers. Each depends on the smallest
// interface it needs.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/futureproof/aitracker/internal/ai"
	"github.com/futureproof/aitracker/internal/api/response"
	"github.com/futureproof/aitracker/internal/questions"
	"github.com/futureproof/aitracker/internal/run"
	"github.com/futureproof/aitracker/pkg/models"
)

// RunService is the slice of the orchestrator the run endpoints use.
type RunService interface {
	StartRun(ctx context.Context, req run.Request) (*models.Run, error)
	GetStatus(ctx context.Context, sessionID string) (*models.RunState, error)
	Report(ctx context.Context, sessionID string) (*models.RunAggregate, error)
	QuestionResults(ctx context.Context, sessionID string) ([]models.QuestionResult, error)
	UserReports(ctx context.Context, userID string, limit int) ([]*models.RunAggregate, error)
}

// QuestionGenerator drafts questions for a brand profile.
type QuestionGenerator interface {
	Generate(ctx context.Context, p questions.Profile) ([]models.Question, error)
}

// flexList accepts either a JSON list of strings or one comma-separated string.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err == nil {
		*l = compact(items)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("must be a list of strings or a comma-separated string")
	}
	*l = compact(strings.Split(s, ","))
	return nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// flexQuestion accepts a plain string or a {text, category} object.
type flexQuestion models.Question

func (q *flexQuestion) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*q = flexQuestion{Text: strings.TrimSpace(text), Category: models.CategoryGeneral}
		return nil
	}
	var obj struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.New("question must be a string or an object with text and category")
	}
	*q = flexQuestion{Text: strings.TrimSpace(obj.Text), Category: models.ParseCategory(obj.Category)}
	return nil
}

// writeProviderError maps a failed model call onto a gateway status.
func writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ai.ErrInferenceTimeout):
		response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
			"The AI provider took too long to respond", nil)
	case errors.Is(err, ai.ErrProviderUnavailable),
		errors.Is(err, ai.ErrInvalidResponse),
		errors.Is(err, ai.ErrMisconfigured),
		errors.Is(err, questions.ErrNoQuestions):
		response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
			"The AI provider did not return usable questions", nil)
	default:
		internalError(w, err)
	}
}

func internalError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"An unexpected error occurred", nil)
}
