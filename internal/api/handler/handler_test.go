package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/futureproof/aitracker/internal/questions"
	"github.com/futureproof/aitracker/internal/run"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// --- mock RunService ---

type mockRunService struct {
	startFn   func(req run.Request) (*models.Run, error)
	statusFn  func(sessionID string) (*models.RunState, error)
	reportFn  func(sessionID string) (*models.RunAggregate, error)
	resultsFn func(sessionID string) ([]models.QuestionResult, error)
	reportsFn func(userID string, limit int) ([]*models.RunAggregate, error)
}

func (m *mockRunService) StartRun(_ context.Context, req run.Request) (*models.Run, error) {
	return m.startFn(req)
}

func (m *mockRunService) GetStatus(_ context.Context, sessionID string) (*models.RunState, error) {
	return m.statusFn(sessionID)
}

func (m *mockRunService) Report(_ context.Context, sessionID string) (*models.RunAggregate, error) {
	return m.reportFn(sessionID)
}

func (m *mockRunService) QuestionResults(_ context.Context, sessionID string) ([]models.QuestionResult, error) {
	return m.resultsFn(sessionID)
}

func (m *mockRunService) UserReports(_ context.Context, userID string, limit int) ([]*models.RunAggregate, error) {
	return m.reportsFn(userID, limit)
}

// --- mock QuestionGenerator ---

type mockGenerator struct {
	calls int
	fn    func(p questions.Profile) ([]models.Question, error)
}

func (m *mockGenerator) Generate(_ context.Context, p questions.Profile) ([]models.Question, error) {
	m.calls++
	return m.fn(p)
}

// --- helpers ---

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withParams attaches chi URL params the way the router would.
func withParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	return env.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	return env.Error.Code
}
