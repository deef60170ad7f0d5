// Package judge scores the four assistant answers to one question against a
// fixed rubric using a secondary model call.
package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/futureproof/aitracker/internal/llmjson"
	"github.com/futureproof/aitracker/pkg/models"
	"github.com/tidwall/gjson"
)

var (
	ErrUnparseable = errors.New("judge output is not parseable")
	ErrSchema      = errors.New("judge output does not match the score schema")
)

// Failure reports why a question fell back to all-zero scores.
type Failure struct {
	QuestionNumber int
	Cause          error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("judging question %d: %v", f.QuestionNumber, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Completer is the model call the judge depends on.
type Completer interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Judge scores answers with one model call per question.
type Judge struct {
	client  Completer
	timeout time.Duration
}

// New returns a Judge. A zero timeout leaves the deadline to the caller.
func New(client Completer, timeout time.Duration) *Judge {
	return &Judge{client: client, timeout: timeout}
}

// Score returns a complete score for every platform. When the model call
// fails or its output cannot be recovered, every score is zero and the
// returned error is a *Failure; the scores are never partially real.
func (j *Judge) Score(ctx context.Context, brand models.BrandContext, questionNumber int, question string, answers map[models.Platform]models.ProviderAnswer) (map[models.Platform]models.PlatformScore, error) {
	prompt := BuildPrompt(brand, question, answers)

	callCtx := ctx
	if j.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	raw, err := j.client.Query(callCtx, prompt)
	if err != nil {
		return j.fallback(questionNumber, err)
	}

	scores, err := Parse(raw)
	if err != nil {
		return j.fallback(questionNumber, err)
	}
	return scores, nil
}

func (j *Judge) fallback(questionNumber int, cause error) (map[models.Platform]models.PlatformScore, error) {
	slog.Warn("judge fell back to zero scores", "question_number", questionNumber, "error", cause)
	return models.ZeroScores(), &Failure{QuestionNumber: questionNumber, Cause: cause}
}

// Parse recovers the score object from raw model output and validates it.
func Parse(raw string) (map[models.Platform]models.PlatformScore, error) {
	payload, err := llmjson.Object(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}

	var doc any
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if err := scoreSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	out := make(map[models.Platform]models.PlatformScore, len(models.Platforms))
	for _, p := range models.Platforms {
		out[p] = scoreFrom(gjson.Get(payload, string(p)))
	}
	return out, nil
}

func scoreFrom(obj gjson.Result) models.PlatformScore {
	return models.PlatformScore{
		Mention:              number(obj.Get("mention")),
		Position:             number(obj.Get("position")),
		Sentiment:            number(obj.Get("sentiment")),
		Recommendation:       number(obj.Get("recommendation")),
		MessageAlignment:     number(obj.Get("message_alignment")),
		Overall:              number(obj.Get("overall")),
		CompetitorsMentioned: competitors(obj.Get("competitors_mentioned")),
		Notes:                strings.TrimSpace(obj.Get("notes").String()),
	}
}

// number reads a numeric or numeric-string field. Negative values clamp to
// 0; values above 100 are kept so the aggregator can discard them.
func number(v gjson.Result) float64 {
	f := v.Float()
	if v.Type == gjson.String {
		f, _ = strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
	}
	if f < 0 {
		return 0
	}
	return f
}

// competitors normalizes a string or list of names to "A, B, C".
func competitors(v gjson.Result) string {
	if !v.IsArray() {
		return strings.TrimSpace(v.String())
	}
	var names []string
	v.ForEach(func(_, item gjson.Result) bool {
		if s := strings.TrimSpace(item.String()); s != "" {
			names = append(names, s)
		}
		return true
	})
	return strings.Join(names, ", ")
}
