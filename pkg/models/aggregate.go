package models

import (
	"time"

	"github.com/google/uuid"
)

// PlatformSummary holds per-platform averages across every question of a run.
type PlatformSummary struct {
	Score          float64 `json:"score"`
	Mention        float64 `json:"mention"`
	Sentiment      float64 `json:"sentiment"`
	Recommendation float64 `json:"recommendation"`
}

// PlatformConsistency describes how evenly the brand is mentioned across platforms.
type PlatformConsistency struct {
	Rates        map[Platform]float64 `json:"rates"`
	Variance     float64              `json:"variance"`
	Strongest    Platform             `json:"strongest"`
	Weakest      Platform             `json:"weakest"`
	IsConsistent bool                 `json:"is_consistent"`
}

// BrandRanking is one entry of the share-of-voice table.
type BrandRanking struct {
	Brand          string  `json:"brand"`
	Mentions       int     `json:"mentions"`
	ShareOfVoice   float64 `json:"share_of_voice"`
	IsTrackedBrand bool    `json:"is_tracked_brand"`
}

// QuestionRollup is the compact per-question view used by dashboards.
type QuestionRollup struct {
	QuestionNumber int              `json:"q"`
	Text           string           `json:"text"`
	Category       QuestionCategory `json:"category"`
	Mentioned      bool             `json:"mentioned"`
	MentionedOn    []Platform       `json:"mentioned_on"`
}

// Recommendation is a threshold-driven improvement hint.
type Recommendation struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Detail   string `json:"detail"`
}

// ContentRecommendation is a content-strategy suggestion produced by the advisor.
type ContentRecommendation struct {
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentType string `json:"content_type"`
}

// Alert flags a platform whose recommendation rate is low.
type Alert struct {
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	Platform Platform `json:"platform"`
}

// Action is a follow-up item derived from the best and worst platforms.
type Action struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Impact   string `json:"impact"`
	Effort   string `json:"effort"`
}

// ExecutiveSummary is the headline block of a report.
type ExecutiveSummary struct {
	Headline          string   `json:"headline"`
	Paragraphs        []string `json:"paragraphs"`
	Bullets           []string `json:"bullets"`
	VisibilityScore   float64  `json:"visibility_score"`
	BrandCoverage     float64  `json:"brand_coverage"`
	BrandRank         *int     `json:"brand_rank"`
	BrandSOV          float64  `json:"brand_sov"`
	BestModel         string   `json:"best_model"`
	WorstModel        string   `json:"worst_model"`
	AvgSentiment      float64  `json:"avg_sentiment"`
	AvgRecommendation float64  `json:"avg_recommendation"`
	TopCompetitors    []string `json:"top_competitors"`
}

// RunAggregate is the full report derived from one run's question results.
type RunAggregate struct {
	ID                     uuid.UUID                    `json:"id"`
	RunID                  string                       `json:"run_id"`
	SessionID              string                       `json:"session_id"`
	UserID                 *string                      `json:"user_id,omitempty"`
	BrandName              string                       `json:"brand_name"`
	Industry               string                       `json:"industry"`
	Category               string                       `json:"category,omitempty"`
	VisibilityScore        float64                      `json:"visibility_score"`
	Grade                  string                       `json:"grade"`
	BrandRank              *int                         `json:"brand_rank"`
	BrandSOV               float64                      `json:"brand_sov"`
	BrandCoverage          float64                      `json:"brand_coverage"`
	BrandMentions          int                          `json:"brand_mentions"`
	QuestionsProcessed     int                          `json:"num_questions_processed"`
	BestModel              string                       `json:"best_model"`
	WorstModel             string                       `json:"worst_model"`
	PlatformsSummary       map[Platform]PlatformSummary `json:"platforms_summary"`
	PlatformConsistency    PlatformConsistency          `json:"platform_consistency"`
	BrandRankings          []BrandRanking               `json:"brand_rankings"`
	QuestionBreakdown      []QuestionRollup             `json:"question_breakdown"`
	Recommendations        []Recommendation             `json:"recommendations"`
	ContentRecommendations []ContentRecommendation      `json:"content_recommendations,omitempty"`
	Alerts                 []Alert                      `json:"alerts"`
	Actions                []Action                     `json:"actions"`
	ExecutiveSummary       ExecutiveSummary             `json:"executive_summary"`
	CreatedAt              time.Time                    `json:"created_at"`
	UpdatedAt              time.Time                    `json:"updated_at"`
}
