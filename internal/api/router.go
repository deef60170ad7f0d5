package api

import (
	"net/http"

	mw "github.com/futureproof/aitracker/internal/api/middleware"
	"github.com/futureproof/aitracker/internal/api/response"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit
	// TrustProxyHeaders rewrites RemoteAddr from X-Forwarded-For and
	// X-Real-IP before rate limiting. Off, the TCP peer address is used.
	TrustProxyHeaders bool

	HealthHandler       http.HandlerFunc
	StartRunHandler     http.HandlerFunc
	RunStatusHandler    http.HandlerFunc
	RunReportHandler    http.HandlerFunc
	RunQuestionsHandler http.HandlerFunc
	UserReportsHandler  http.HandlerFunc
	PricingHandler      http.HandlerFunc
	QuestionsHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	if deps.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Throttled routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Identify)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/runs", orNotImplemented(deps.StartRunHandler))
		r.Get("/api/v1/runs/{sessionID}/status", orNotImplemented(deps.RunStatusHandler))
		r.Get("/api/v1/runs/{sessionID}/report", orNotImplemented(deps.RunReportHandler))
		r.Get("/api/v1/runs/{sessionID}/questions", orNotImplemented(deps.RunQuestionsHandler))

		r.Get("/api/v1/users/{userID}/reports", orNotImplemented(deps.UserReportsHandler))

		r.Get("/api/v1/pricing", orNotImplemented(deps.PricingHandler))
		r.Post("/api/v1/questions/generate", orNotImplemented(deps.QuestionsHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
