package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/futureproof/aitracker/internal/api/response"
	"github.com/futureproof/aitracker/internal/run"
	"github.com/futureproof/aitracker/internal/store"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type startRunRequest struct {
	SessionID   string         `json:"session_id"`
	RunID       string         `json:"run_id"`
	UserID      string         `json:"user_id"`
	BrandName   string         `json:"brand_name"`
	Email       string         `json:"email"`
	Industry    string         `json:"industry"`
	Category    string         `json:"category"`
	KeyMessages flexList       `json:"key_messages"`
	Competitors flexList       `json:"competitors"`
	Questions   []flexQuestion `json:"questions"`
}

func (b startRunRequest) toRequest() run.Request {
	req := run.Request{
		SessionID:   strings.TrimSpace(b.SessionID),
		RunID:       strings.TrimSpace(b.RunID),
		BrandName:   strings.TrimSpace(b.BrandName),
		Email:       strings.TrimSpace(b.Email),
		Industry:    b.Industry,
		Category:    b.Category,
		KeyMessages: b.KeyMessages,
		Competitors: b.Competitors,
		Questions:   make([]models.Question, len(b.Questions)),
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if id := strings.TrimSpace(b.UserID); id != "" {
		req.UserID = &id
	}
	for i, q := range b.Questions {
		req.Questions[i] = models.Question(q)
	}
	return req
}

type startRunResponse struct {
	SessionID string `json:"session_id"`
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
}

// NewStartRunHandler returns an http.HandlerFunc for POST /api/v1/runs.
func NewStartRunHandler(svc RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body startRunRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		created, err := svc.StartRun(r.Context(), body.toRequest())
		if err != nil {
			switch {
			case errors.Is(err, run.ErrInvalidRequest):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			case errors.Is(err, store.ErrDuplicateKey):
				response.Error(w, http.StatusConflict, "DUPLICATE_RUN",
					"A run with this session_id or run_id already exists", nil)
			default:
				internalError(w, err)
			}
			return
		}

		response.Accepted(w, startRunResponse{
			SessionID: created.SessionID,
			RunID:     created.RunID,
			Status:    models.PollProcessing,
		})
	}
}

// NewRunStatusHandler returns an http.HandlerFunc for GET /api/v1/runs/{sessionID}/status.
func NewRunStatusHandler(svc RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := svc.GetStatus(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RUN_NOT_FOUND", "No run exists for this session", nil)
				return
			}
			internalError(w, err)
			return
		}
		response.JSON(w, state)
	}
}

// NewRunReportHandler returns an http.HandlerFunc for GET /api/v1/runs/{sessionID}/report.
func NewRunReportHandler(svc RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agg, err := svc.Report(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "REPORT_NOT_FOUND", "No report exists for this session yet", nil)
				return
			}
			internalError(w, err)
			return
		}
		response.JSON(w, agg)
	}
}

// NewRunQuestionsHandler returns an http.HandlerFunc for
// GET /api/v1/runs/{sessionID}/questions, the per-question drill-down of a report.
func NewRunQuestionsHandler(svc RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := svc.QuestionResults(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RUN_NOT_FOUND", "No run exists for this session", nil)
				return
			}
			internalError(w, err)
			return
		}
		response.Collection(w, results, response.ListMeta{Limit: len(results), Count: len(results)})
	}
}

// NewUserReportsHandler returns an http.HandlerFunc for GET /api/v1/users/{userID}/reports.
func NewUserReportsHandler(svc RunService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.ReportFilter{UserID: chi.URLParam(r, "userID")}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			filter.Limit = n
		}

		reports, err := svc.UserReports(r.Context(), filter.UserID, filter.Limit)
		if err != nil {
			internalError(w, err)
			return
		}
		response.Collection(w, reports, response.ListMeta{
			Limit: filter.EffectiveLimit(),
			Count: len(reports),
		})
	}
}
