package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the internal state of a run record.
type RunStatus string

const (
	RunStatusCreated     RunStatus = "created"
	RunStatusRunning     RunStatus = "running"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusPersisted   RunStatus = "persisted"
	RunStatusEmailed     RunStatus = "emailed"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s RunStatus) Terminal() bool {
	return s == RunStatusComplete || s == RunStatusFailed
}

// Public poll statuses returned by GET /api/v1/runs/{session_id}/status.
const (
	PollProcessing = "processing"
	PollComplete   = "complete"
	PollFailed     = "failed"
)

// Run tracks one pipeline execution. Clients poll by session_id until the
// status is complete or failed.
type Run struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	RunID         string     `db:"run_id"         json:"run_id"`
	SessionID     string     `db:"session_id"     json:"session_id"`
	UserID        *string    `db:"user_id"        json:"user_id,omitempty"`
	BrandName     string     `db:"brand_name"     json:"brand_name"`
	Email         *string    `db:"email"          json:"email,omitempty"`
	Status        RunStatus  `db:"status"         json:"status"`
	QuestionCount int        `db:"question_count" json:"question_count"`
	ErrorMessage  *string    `db:"error_message"  json:"error_message,omitempty"`
	StartedAt     *time.Time `db:"started_at"     json:"started_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at"   json:"completed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"     json:"updated_at"`
}

// RunState is the answer to a status poll.
type RunState struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
