// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/futureproof/aitracker/internal/store"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/google/uuid"
)

// Memory is a store.Store backed by maps. It enforces the same run state
// machine as the Postgres store. Set the *Err fields to inject failures.
type Memory struct {
	mu         sync.Mutex
	runs       map[string]*models.Run
	results    map[string]map[int]models.QuestionResult
	aggregates map[string]*models.RunAggregate
	history    map[string][]models.RunStatus

	CreateRunErr       error
	UpsertResultsErr   error
	UpsertAggregateErr error
	GetAggregateErr    error
}

var _ store.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		runs:       make(map[string]*models.Run),
		results:    make(map[string]map[int]models.QuestionResult),
		aggregates: make(map[string]*models.RunAggregate),
		history:    make(map[string][]models.RunStatus),
	}
}

func (m *Memory) Ping(_ context.Context) error { return nil }

func (m *Memory) CreateRun(_ context.Context, run *models.Run) error {
	if m.CreateRunErr != nil {
		return m.CreateRunErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.SessionID]; ok {
		return store.ErrDuplicateKey
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = models.RunStatusCreated
	}
	now := time.Now().UTC()
	run.CreatedAt, run.UpdatedAt = now, now
	cp := *run
	m.runs[run.SessionID] = &cp
	m.history[run.SessionID] = []models.RunStatus{cp.Status}
	return nil
}

func (m *Memory) GetRunBySession(_ context.Context, sessionID string) (*models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Memory) UpdateRunStatus(_ context.Context, sessionID string, status models.RunStatus, opts ...store.RunUpdateOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[sessionID]
	if !ok {
		return store.ErrNotFound
	}
	if !store.CanTransition(r.Status, status) {
		return fmt.Errorf("%w: %s -> %s", store.ErrInvalidTransition, r.Status, status)
	}
	u := store.ApplyRunUpdate(opts...)
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	if u.ErrorMessage != nil {
		msg := *u.ErrorMessage
		r.ErrorMessage = &msg
	}
	if u.QuestionCount != nil {
		r.QuestionCount = *u.QuestionCount
	}
	m.history[sessionID] = append(m.history[sessionID], status)
	return nil
}

// History returns every status a run has been in, oldest first.
func (m *Memory) History(sessionID string) []models.RunStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RunStatus(nil), m.history[sessionID]...)
}

func (m *Memory) UpsertQuestionResults(_ context.Context, results []models.QuestionResult) error {
	if m.UpsertResultsErr != nil {
		return m.UpsertResultsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		if m.results[r.SessionID] == nil {
			m.results[r.SessionID] = make(map[int]models.QuestionResult)
		}
		m.results[r.SessionID][r.QuestionNumber] = r
	}
	return nil
}

func (m *Memory) ListQuestionResults(_ context.Context, sessionID string) ([]models.QuestionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.QuestionResult
	for _, r := range m.results[sessionID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionNumber < out[j].QuestionNumber })
	return out, nil
}

func (m *Memory) UpsertAggregate(_ context.Context, agg *models.RunAggregate) error {
	if m.UpsertAggregateErr != nil {
		return m.UpsertAggregateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := m.aggregates[agg.SessionID]; ok {
		agg.ID, agg.CreatedAt = prev.ID, prev.CreatedAt
	}
	if agg.ID == uuid.Nil {
		agg.ID = uuid.New()
	}
	if agg.CreatedAt.IsZero() {
		agg.CreatedAt = now
	}
	agg.UpdatedAt = now
	cp := *agg
	m.aggregates[agg.SessionID] = &cp
	return nil
}

func (m *Memory) GetAggregateBySession(_ context.Context, sessionID string) (*models.RunAggregate, error) {
	if m.GetAggregateErr != nil {
		return nil, m.GetAggregateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.aggregates[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAggregatesByUser(_ context.Context, filter store.ReportFilter) ([]*models.RunAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.RunAggregate{}
	for _, a := range m.aggregates {
		if a.UserID != nil && *a.UserID == filter.UserID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit := filter.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
