package store

import (
	"context"
	"errors"

	"github.com/futureproof/aitracker/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid run status transition")

// Store is the report store gateway. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateRun(ctx context.Context, run *models.Run) error
	GetRunBySession(ctx context.Context, sessionID string) (*models.Run, error)
	UpdateRunStatus(ctx context.Context, sessionID string, status models.RunStatus, opts ...RunUpdateOption) error

	// UpsertQuestionResults writes a run's results as one batch, keyed by
	// (run_id, question_number). Re-writing the same batch is a no-op.
	UpsertQuestionResults(ctx context.Context, results []models.QuestionResult) error
	ListQuestionResults(ctx context.Context, sessionID string) ([]models.QuestionResult, error)

	// UpsertAggregate is keyed by session_id and safe to repeat.
	UpsertAggregate(ctx context.Context, agg *models.RunAggregate) error
	GetAggregateBySession(ctx context.Context, sessionID string) (*models.RunAggregate, error)
	ListAggregatesByUser(ctx context.Context, filter ReportFilter) ([]*models.RunAggregate, error)
}

// Listing limits for ListAggregatesByUser.
const (
	DefaultReportLimit = 20
	MaxReportLimit     = 100
)

// ReportFilter selects a user's reports, newest first.
type ReportFilter struct {
	UserID string
	Limit  int
}

// RunUpdate holds the optional fields written alongside a status change.
type RunUpdate struct {
	ErrorMessage  *string
	QuestionCount *int
}

type RunUpdateOption func(*RunUpdate)

func WithErrorMessage(msg string) RunUpdateOption {
	return func(p *RunUpdate) {
		p.ErrorMessage = &msg
	}
}

func WithQuestionCount(n int) RunUpdateOption {
	return func(p *RunUpdate) {
		p.QuestionCount = &n
	}
}

// ApplyRunUpdate folds opts into a RunUpdate.
func ApplyRunUpdate(opts ...RunUpdateOption) RunUpdate {
	var u RunUpdate
	for _, opt := range opts {
		opt(&u)
	}
	return u
}

// validTransitions is the run state machine. Failed is reachable from every
// non-terminal state; emailing is optional.
var validTransitions = map[models.RunStatus][]models.RunStatus{
	models.RunStatusCreated:     {models.RunStatusRunning, models.RunStatusFailed},
	models.RunStatusRunning:     {models.RunStatusAggregating, models.RunStatusFailed},
	models.RunStatusAggregating: {models.RunStatusPersisted, models.RunStatusFailed},
	models.RunStatusPersisted:   {models.RunStatusEmailed, models.RunStatusComplete, models.RunStatusFailed},
	models.RunStatusEmailed:     {models.RunStatusComplete, models.RunStatusFailed},
}

// CanTransition reports whether a run may move from one status to another.
func CanTransition(from, to models.RunStatus) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// EffectiveLimit clamps a requested listing limit to [1, MaxReportLimit],
// defaulting to DefaultReportLimit.
func (f ReportFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultReportLimit
	case f.Limit > MaxReportLimit:
		return MaxReportLimit
	default:
		return f.Limit
	}
}
