package handler

import (
	"context"
	"net/http"

	"github.com/futureproof/aitracker/internal/api/response"
)

// Pinger is anything that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
// A down database makes the service unavailable; a down cache only degrades it.
func NewHealthHandler(db, c Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Database: pingStatus(r.Context(), db), Cache: pingStatus(r.Context(), c)}
		if resp.Cache == "down" {
			resp.Status = "degraded"
		}
		if resp.Database != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database is unreachable",
				map[string][]string{"database": {resp.Database}})
			return
		}
		response.JSON(w, resp)
	}
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not_configured"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "ok"
}
