// Package run drives one brand-visibility run from questions to report.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/futureproof/aitracker/internal/advisor"
	"github.com/futureproof/aitracker/internal/analysis"
	"github.com/futureproof/aitracker/internal/cache"
	"github.com/futureproof/aitracker/internal/notify"
	"github.com/futureproof/aitracker/internal/store"
	"github.com/futureproof/aitracker/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	statusTTL = 24 * time.Hour
	reportTTL = time.Hour
)

var ErrInvalidRequest = errors.New("invalid run request")

// PersistenceError is a failed store write. It fails the run.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Scorer rates the four answers to one question.
type Scorer interface {
	Score(ctx context.Context, brand models.BrandContext, questionNumber int, question string, answers map[models.Platform]models.ProviderAnswer) (map[models.Platform]models.PlatformScore, error)
}

// Advisor produces content recommendations for a finished report.
type Advisor interface {
	Recommend(ctx context.Context, in advisor.Input) []models.ContentRecommendation
}

// Request is everything a run needs. SessionID and RunID are chosen by the
// caller and must be fresh for every run.
type Request struct {
	SessionID   string            `json:"session_id"`
	RunID       string            `json:"run_id"`
	UserID      *string           `json:"user_id,omitempty"`
	BrandName   string            `json:"brand_name"`
	Email       string            `json:"email,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	Category    string            `json:"category,omitempty"`
	KeyMessages []string          `json:"key_messages"`
	Competitors []string          `json:"competitors"`
	Questions   []models.Question `json:"questions"`
}

// Validate checks a request before any record is written.
func (r Request) Validate(maxQuestions int) error {
	switch {
	case strings.TrimSpace(r.SessionID) == "":
		return fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	case strings.TrimSpace(r.RunID) == "":
		return fmt.Errorf("%w: run_id is required", ErrInvalidRequest)
	case strings.TrimSpace(r.BrandName) == "":
		return fmt.Errorf("%w: brand_name is required", ErrInvalidRequest)
	case len(r.Questions) == 0:
		return fmt.Errorf("%w: at least one question is required", ErrInvalidRequest)
	case maxQuestions > 0 && len(r.Questions) > maxQuestions:
		return fmt.Errorf("%w: at most %d questions per run, got %d", ErrInvalidRequest, maxQuestions, len(r.Questions))
	}
	for i, q := range r.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidRequest, i+1)
		}
	}
	return nil
}

// Deps are the collaborators of a Service. Advisor and Notifier may be nil.
type Deps struct {
	Providers       []models.AIProvider
	Judge           Scorer
	Advisor         Advisor
	Notifier        notify.Notifier
	Store           store.Store
	Cache           cache.Cache
	ProviderTimeout time.Duration
	MaxQuestions    int
}

// Service orchestrates runs.
type Service struct {
	providers       []models.AIProvider
	judge           Scorer
	advisor         Advisor
	notifier        notify.Notifier
	store           store.Store
	cache           cache.Cache
	providerTimeout time.Duration
	maxQuestions    int

	wg       sync.WaitGroup
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a new Service.
func NewService(d Deps) *Service {
	n := d.Notifier
	if n == nil {
		n = notify.Noop{}
	}
	return &Service{
		providers:       d.Providers,
		judge:           d.Judge,
		advisor:         d.Advisor,
		notifier:        n,
		store:           d.Store,
		cache:           d.Cache,
		providerTimeout: d.ProviderTimeout,
		maxQuestions:    d.MaxQuestions,
		inFlight:        make(map[string]struct{}),
	}
}

// StartRun creates the run record and processes it in a background
// goroutine. It returns as soon as the record exists.
func (s *Service) StartRun(ctx context.Context, req Request) (*models.Run, error) {
	if err := req.Validate(s.maxQuestions); err != nil {
		return nil, err
	}

	run := &models.Run{
		RunID:         req.RunID,
		SessionID:     req.SessionID,
		UserID:        req.UserID,
		BrandName:     req.BrandName,
		Status:        models.RunStatusCreated,
		QuestionCount: len(req.Questions),
	}
	if req.Email != "" {
		email := req.Email
		run.Email = &email
	}

	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}

	s.setStatus(ctx, req.SessionID, models.PollProcessing)

	s.mu.Lock()
	s.inFlight[req.SessionID] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(req)

	return run, nil
}

// Wait blocks until every background run has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Drain waits for background runs like Wait but gives up when ctx is done,
// returning ctx's error. InFlight then lists the runs still executing.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the session ids of runs that have not finished, sorted.
func (s *Service) InFlight() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.inFlight))
	for id := range s.inFlight {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// execute runs the pipeline in the background. It recovers from panics and
// always leaves the run complete or failed.
func (s *Service) execute(req Request) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, req.SessionID)
		s.mu.Unlock()
	}()
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in run", "error", r, "session_id", req.SessionID)
			s.fail(ctx, req.SessionID, fmt.Errorf("panic: %v", r))
		}
	}()

	if _, err := s.Run(ctx, req); err != nil {
		slog.Error("run failed", "session_id", req.SessionID, "run_id", req.RunID, "error", err)
	}
}

// Run executes the pipeline synchronously for a run whose record already
// exists. A non-nil error means the run ended failed.
func (s *Service) Run(ctx context.Context, req Request) (*models.RunAggregate, error) {
	if err := s.advance(ctx, req.SessionID, models.RunStatusRunning, store.WithQuestionCount(len(req.Questions))); err != nil {
		return nil, s.fail(ctx, req.SessionID, err)
	}

	brand := models.BrandContext{Name: req.BrandName, KeyMessages: req.KeyMessages, Competitors: req.Competitors}
	results := make([]models.QuestionResult, 0, len(req.Questions))
	for i, q := range req.Questions {
		results = append(results, s.processQuestion(ctx, req, brand, i+1, q))
	}

	if err := s.advance(ctx, req.SessionID, models.RunStatusAggregating); err != nil {
		return nil, s.fail(ctx, req.SessionID, err)
	}

	if err := s.store.UpsertQuestionResults(ctx, results); err != nil {
		return nil, s.fail(ctx, req.SessionID, &PersistenceError{Op: "question results", Err: err})
	}

	agg, err := analysis.Aggregate(analysis.Input{
		RunID:       req.RunID,
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		BrandName:   req.BrandName,
		Industry:    req.Industry,
		Category:    req.Category,
		Competitors: req.Competitors,
		Results:     results,
	})
	if err != nil {
		return nil, s.fail(ctx, req.SessionID, fmt.Errorf("aggregating: %w", err))
	}

	if s.advisor != nil {
		agg.ContentRecommendations = s.advisor.Recommend(ctx, advisor.Input{
			BrandName:      agg.BrandName,
			Industry:       req.Industry,
			Category:       req.Category,
			Coverage:       agg.BrandCoverage,
			Rankings:       agg.BrandRankings,
			TopCompetitors: agg.ExecutiveSummary.TopCompetitors,
			Results:        results,
		})
	}

	if err := s.store.UpsertAggregate(ctx, agg); err != nil {
		return nil, s.fail(ctx, req.SessionID, &PersistenceError{Op: "aggregate", Err: err})
	}
	if err := s.advance(ctx, req.SessionID, models.RunStatusPersisted); err != nil {
		return nil, s.fail(ctx, req.SessionID, err)
	}
	s.cacheReport(ctx, agg)

	if req.Email != "" {
		err := s.notifier.ReportReady(ctx, notify.Notification{Email: req.Email, SessionID: req.SessionID, Report: agg})
		if err != nil {
			slog.Warn("report email failed", "session_id", req.SessionID, "error", err)
		} else if err := s.advance(ctx, req.SessionID, models.RunStatusEmailed); err != nil {
			slog.Warn("recording email status failed", "session_id", req.SessionID, "error", err)
		}
	}

	if err := s.advance(ctx, req.SessionID, models.RunStatusComplete); err != nil {
		return nil, s.fail(ctx, req.SessionID, err)
	}
	s.setStatus(ctx, req.SessionID, models.PollComplete)

	slog.Info("run complete", "session_id", req.SessionID, "run_id", req.RunID,
		"questions", len(results), "visibility_score", agg.VisibilityScore)
	return agg, nil
}

// processQuestion fans out to every provider, then scores the answers. A
// panic anywhere in here yields an all-error result for this question only.
func (s *Service) processQuestion(ctx context.Context, req Request, brand models.BrandContext, n int, q models.Question) (result models.QuestionResult) {
	result = models.QuestionResult{
		RunID:            req.RunID,
		SessionID:        req.SessionID,
		QuestionNumber:   n,
		QuestionText:     q.Text,
		QuestionCategory: models.ParseCategory(string(q.Category)),
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic processing question", "session_id", req.SessionID, "question_number", n, "error", r)
			msg := fmt.Sprintf("panic: %v", r)
			result.Answers = failedAnswers(msg)
			result.Scores = models.ZeroScores()
			result.JudgeError = &msg
		}
	}()

	result.Answers = s.queryPlatforms(ctx, q.Text)

	scores, err := s.judge.Score(ctx, brand, n, q.Text, result.Answers)
	if err != nil {
		msg := err.Error()
		result.JudgeError = &msg
	}
	result.Scores = scores
	return result
}

// queryPlatforms asks every provider concurrently and waits for all of them.
// Each goroutine owns one slot; failures become error answers.
func (s *Service) queryPlatforms(ctx context.Context, prompt string) map[models.Platform]models.ProviderAnswer {
	slots := make([]models.ProviderAnswer, len(s.providers))

	var g errgroup.Group
	for i, p := range s.providers {
		g.Go(func() error {
			slots[i] = s.ask(ctx, p, prompt)
			return nil
		})
	}
	_ = g.Wait()

	answers := make(map[models.Platform]models.ProviderAnswer, len(models.Platforms))
	for _, a := range slots {
		answers[a.Platform] = a
	}
	for _, p := range models.Platforms {
		if _, ok := answers[p]; !ok {
			answers[p] = models.ProviderAnswer{Platform: p, Error: &models.ProviderError{
				Platform: p, Kind: models.ProviderErrMisconfigured, Message: "no provider configured",
			}}
		}
	}
	return answers
}

func (s *Service) ask(ctx context.Context, p models.AIProvider, prompt string) (answer models.ProviderAnswer) {
	platform := p.Platform()
	answer.Platform = platform

	defer func() {
		if r := recover(); r != nil {
			answer = models.ProviderAnswer{Platform: platform, Error: &models.ProviderError{
				Platform: platform, Kind: models.ProviderErrInternal, Message: fmt.Sprintf("panic: %v", r),
			}}
		}
	}()

	callCtx := ctx
	if s.providerTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()
	}

	text, err := p.Query(callCtx, prompt)
	if err != nil {
		pe := models.AsProviderError(platform, err)
		slog.Warn("provider call failed", "platform", platform, "kind", pe.Kind, "status", pe.Status, "error", err)
		answer.Error = pe
		return answer
	}
	answer.Text = text
	return answer
}

func failedAnswers(msg string) map[models.Platform]models.ProviderAnswer {
	out := make(map[models.Platform]models.ProviderAnswer, len(models.Platforms))
	for _, p := range models.Platforms {
		out[p] = models.ProviderAnswer{Platform: p, Error: &models.ProviderError{
			Platform: p, Kind: models.ProviderErrInternal, Message: msg,
		}}
	}
	return out
}

func (s *Service) advance(ctx context.Context, sessionID string, status models.RunStatus, opts ...store.RunUpdateOption) error {
	if err := s.store.UpdateRunStatus(ctx, sessionID, status, opts...); err != nil {
		return &PersistenceError{Op: "run status " + string(status), Err: err}
	}
	return nil
}

// fail records err on the run and returns it unchanged.
func (s *Service) fail(ctx context.Context, sessionID string, err error) error {
	if uerr := s.store.UpdateRunStatus(ctx, sessionID, models.RunStatusFailed, store.WithErrorMessage(err.Error())); uerr != nil {
		slog.Error("marking run failed", "session_id", sessionID, "error", uerr)
	}
	s.setStatus(ctx, sessionID, models.PollFailed)
	return err
}

func (s *Service) setStatus(ctx context.Context, sessionID, status string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetRunStatus(ctx, sessionID, status, statusTTL); err != nil {
		slog.Warn("caching run status", "session_id", sessionID, "error", err)
	}
}

func (s *Service) cacheReport(ctx context.Context, agg *models.RunAggregate) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.ReportKey(agg.SessionID), data, reportTTL); err != nil {
		slog.Warn("caching report", "session_id", agg.SessionID, "error", err)
	}
}

// GetStatus answers a poll. Complete means an aggregate exists; failed
// carries the recorded error; anything else is processing.
func (s *Service) GetStatus(ctx context.Context, sessionID string) (*models.RunState, error) {
	if s.cache != nil {
		if st, ok, err := s.cache.GetRunStatus(ctx, sessionID); err == nil && ok && st == models.PollComplete {
			return &models.RunState{SessionID: sessionID, Status: st}, nil
		}
	}

	_, err := s.store.GetAggregateBySession(ctx, sessionID)
	if err == nil {
		s.setStatus(ctx, sessionID, models.PollComplete)
		return &models.RunState{SessionID: sessionID, Status: models.PollComplete}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("checking report: %w", err)
	}

	run, err := s.store.GetRunBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if run.Status == models.RunStatusFailed {
		state := &models.RunState{SessionID: sessionID, Status: models.PollFailed}
		if run.ErrorMessage != nil {
			state.Error = *run.ErrorMessage
		}
		return state, nil
	}
	return &models.RunState{SessionID: sessionID, Status: models.PollProcessing}, nil
}

// Report returns the aggregate for a session, served from cache when present.
func (s *Service) Report(ctx context.Context, sessionID string) (*models.RunAggregate, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, cache.ReportKey(sessionID)); err == nil && ok {
			var agg models.RunAggregate
			if err := json.Unmarshal(data, &agg); err == nil {
				return &agg, nil
			}
		}
	}

	agg, err := s.store.GetAggregateBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.cacheReport(ctx, agg)
	return agg, nil
}

// QuestionResults returns the per-question results of a session in
// question order. An unknown session is store.ErrNotFound; a known run
// that has not persisted results yet gives an empty list.
func (s *Service) QuestionResults(ctx context.Context, sessionID string) ([]models.QuestionResult, error) {
	results, err := s.store.ListQuestionResults(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return results, nil
	}
	if _, err := s.store.GetRunBySession(ctx, sessionID); err != nil {
		return nil, err
	}
	return []models.QuestionResult{}, nil
}

// UserReports lists a user's reports, newest first.
func (s *Service) UserReports(ctx context.Context, userID string, limit int) ([]*models.RunAggregate, error) {
	return s.store.ListAggregatesByUser(ctx, store.ReportFilter{UserID: userID, Limit: limit})
}
