package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Runs ---

const runColumns = `id, run_id, session_id, user_id, brand_name, email, status, question_count,
	error_message, started_at, completed_at, created_at, updated_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = models.RunStatusCreated
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, run_id, session_id, user_id, brand_name, email, status, question_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.RunID, run.SessionID, run.UserID, run.BrandName, run.Email,
		string(run.Status), run.QuestionCount, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRunBySession(ctx context.Context, sessionID string) (*models.Run, error) {
	var r models.Run
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs WHERE session_id = $1`, sessionID,
	).Scan(&r.ID, &r.RunID, &r.SessionID, &r.UserID, &r.BrandName, &r.Email, &status, &r.QuestionCount,
		&r.ErrorMessage, &r.StartedAt, &r.CompletedAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.Status = models.RunStatus(status)
	return &r, nil
}

// UpdateRunStatus moves a run along the state machine. The current status is
// read under a row lock so concurrent updates cannot skip a state.
func (s *PostgresStore) UpdateRunStatus(ctx context.Context, sessionID string, status models.RunStatus, opts ...RunUpdateOption) error {
	params := ApplyRunUpdate(opts...)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin run update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM runs WHERE session_id = $1 FOR UPDATE`, sessionID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get run status: %w", err)
	}

	if !CanTransition(models.RunStatus(current), status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	now := time.Now().UTC()
	update := psql.Update("runs").
		Set("status", string(status)).
		Set("updated_at", now).
		Where(sq.Eq{"session_id": sessionID})

	if status == models.RunStatusRunning {
		update = update.Set("started_at", now)
	}
	if status.Terminal() {
		update = update.Set("completed_at", now)
	}
	if params.ErrorMessage != nil {
		update = update.Set("error_message", *params.ErrorMessage)
	}
	if params.QuestionCount != nil {
		update = update.Set("question_count", *params.QuestionCount)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return tx.Commit(ctx)
}

// --- Question results ---

func (s *PostgresStore) UpsertQuestionResults(ctx context.Context, results []models.QuestionResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin question results: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i := range results {
		r := &results[i]
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		answers, err := json.Marshal(r.Answers)
		if err != nil {
			return fmt.Errorf("encode answers for question %d: %w", r.QuestionNumber, err)
		}
		scores, err := json.Marshal(r.Scores)
		if err != nil {
			return fmt.Errorf("encode scores for question %d: %w", r.QuestionNumber, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO question_results (id, run_id, session_id, question_number, question_text, question_category, answers, scores, judge_error, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (run_id, question_number) DO UPDATE SET
			   question_text = EXCLUDED.question_text,
			   question_category = EXCLUDED.question_category,
			   answers = EXCLUDED.answers,
			   scores = EXCLUDED.scores,
			   judge_error = EXCLUDED.judge_error`,
			r.ID, r.RunID, r.SessionID, r.QuestionNumber, r.QuestionText, string(r.QuestionCategory),
			answers, scores, r.JudgeError, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert question %d: %w", r.QuestionNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit question results: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListQuestionResults(ctx context.Context, sessionID string) ([]models.QuestionResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, session_id, question_number, question_text, question_category, answers, scores, judge_error, created_at
		 FROM question_results WHERE session_id = $1 ORDER BY question_number`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list question results: %w", err)
	}
	defer rows.Close()

	var results []models.QuestionResult
	for rows.Next() {
		var r models.QuestionResult
		var category string
		var answers, scores []byte
		if err := rows.Scan(&r.ID, &r.RunID, &r.SessionID, &r.QuestionNumber, &r.QuestionText, &category,
			&answers, &scores, &r.JudgeError, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question result: %w", err)
		}
		r.QuestionCategory = models.QuestionCategory(category)
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, fmt.Errorf("decode answers for question %d: %w", r.QuestionNumber, err)
		}
		if err := json.Unmarshal(scores, &r.Scores); err != nil {
			return nil, fmt.Errorf("decode scores for question %d: %w", r.QuestionNumber, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Aggregates ---

func (s *PostgresStore) UpsertAggregate(ctx context.Context, agg *models.RunAggregate) error {
	if agg.ID == uuid.Nil {
		agg.ID = uuid.New()
	}
	now := time.Now().UTC()
	if agg.CreatedAt.IsZero() {
		agg.CreatedAt = now
	}
	agg.UpdatedAt = now

	report, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO run_aggregates (id, run_id, session_id, user_id, brand_name, visibility_score, grade, report, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (session_id) DO UPDATE SET
		   visibility_score = EXCLUDED.visibility_score,
		   grade = EXCLUDED.grade,
		   report = EXCLUDED.report,
		   updated_at = EXCLUDED.updated_at`,
		agg.ID, agg.RunID, agg.SessionID, agg.UserID, agg.BrandName, agg.VisibilityScore, agg.Grade,
		report, agg.CreatedAt, agg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert aggregate: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAggregateBySession(ctx context.Context, sessionID string) (*models.RunAggregate, error) {
	var report []byte
	err := s.pool.QueryRow(ctx,
		`SELECT report FROM run_aggregates WHERE session_id = $1`, sessionID).Scan(&report)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get aggregate: %w", err)
	}

	var agg models.RunAggregate
	if err := json.Unmarshal(report, &agg); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return &agg, nil
}

func (s *PostgresStore) ListAggregatesByUser(ctx context.Context, filter ReportFilter) ([]*models.RunAggregate, error) {
	query, args, err := psql.Select("report").
		From("run_aggregates").
		Where(sq.Eq{"user_id": filter.UserID}).
		OrderBy("created_at DESC").
		Limit(uint64(filter.EffectiveLimit())).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build report listing: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	defer rows.Close()

	aggs := []*models.RunAggregate{}
	for rows.Next() {
		var report []byte
		if err := rows.Scan(&report); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		var agg models.RunAggregate
		if err := json.Unmarshal(report, &agg); err != nil {
			return nil, fmt.Errorf("decode aggregate: %w", err)
		}
		aggs = append(aggs, &agg)
	}
	return aggs, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
