package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionCategory groups buyer-intent questions by funnel stage.
type QuestionCategory string

const (
	CategoryAwareness     QuestionCategory = "Awareness"
	CategoryConsideration QuestionCategory = "Consideration"
	CategoryDecision      QuestionCategory = "Decision"
	CategoryCustom        QuestionCategory = "Custom"
	CategoryGeneral       QuestionCategory = "General"
)

// ParseCategory maps free text onto a known category, case-insensitively.
// Unknown or empty values become General.
func ParseCategory(s string) QuestionCategory {
	for _, c := range []QuestionCategory{CategoryAwareness, CategoryConsideration, CategoryDecision, CategoryCustom, CategoryGeneral} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c
		}
	}
	return CategoryGeneral
}

// Question is one tracked buyer-intent question.
type Question struct {
	Text     string           `json:"text"`
	Category QuestionCategory `json:"category"`
}

// BrandContext is the brand identity the judge scores answers against.
type BrandContext struct {
	Name        string   `json:"name"`
	KeyMessages []string `json:"key_messages"`
	Competitors []string `json:"competitors"`
}

// ProviderAnswer is the outcome of one adapter call. Exactly one of Text or
// Error is meaningful.
type ProviderAnswer struct {
	Platform Platform       `json:"platform"`
	Text     string         `json:"text,omitempty"`
	Error    *ProviderError `json:"error,omitempty"`
}

// Failed reports whether the adapter call failed.
func (a ProviderAnswer) Failed() bool { return a.Error != nil }

// Marker is the text shown to the judge in place of a failed answer.
func (a ProviderAnswer) Marker() string {
	if a.Error == nil {
		return a.Text
	}
	if a.Error.Status > 0 {
		return "Error: " + strconv.Itoa(a.Error.Status)
	}
	return "Error: " + string(a.Error.Kind)
}

// PlatformScore is the judge's rubric output for one answer. All numeric
// fields are on a 0-100 scale.
type PlatformScore struct {
	Mention              float64 `json:"mention"`
	Position             float64 `json:"position"`
	Sentiment            float64 `json:"sentiment"`
	Recommendation       float64 `json:"recommendation"`
	MessageAlignment     float64 `json:"message_alignment"`
	Overall              float64 `json:"overall"`
	CompetitorsMentioned string  `json:"competitors_mentioned"`
	Notes                string  `json:"notes"`
}

// ZeroScores returns an all-zero score for every tracked platform.
func ZeroScores() map[Platform]PlatformScore {
	out := make(map[Platform]PlatformScore, len(Platforms))
	for _, p := range Platforms {
		out[p] = PlatformScore{}
	}
	return out
}

// QuestionResult is the persisted outcome of one question within a run.
type QuestionResult struct {
	ID               uuid.UUID                   `db:"id"                json:"id"`
	RunID            string                      `db:"run_id"            json:"run_id"`
	SessionID        string                      `db:"session_id"        json:"session_id"`
	QuestionNumber   int                         `db:"question_number"   json:"question_number"`
	QuestionText     string                      `db:"question_text"     json:"question_text"`
	QuestionCategory QuestionCategory            `db:"question_category" json:"question_category"`
	Answers          map[Platform]ProviderAnswer `db:"answers"           json:"answers"`
	Scores           map[Platform]PlatformScore  `db:"scores"            json:"scores"`
	JudgeError       *string                     `db:"judge_error"       json:"judge_error,omitempty"`
	CreatedAt        time.Time                   `db:"created_at"        json:"created_at"`
}
