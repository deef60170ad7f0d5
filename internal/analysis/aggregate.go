// Package analysis turns a run's question results into the visibility report.
package analysis

import (
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/futureproof/aitracker/pkg/models"
	"github.com/google/uuid"
)

// ErrMalformedResult is returned when question results are out of sequence
// or missing platform scores. The run fails instead of reporting on bad data.
var ErrMalformedResult = errors.New("malformed question result")

// consistencyThreshold is the max-min mention-rate spread, in points, below
// which platforms count as consistent.
const consistencyThreshold = 30

const breakdownTextLen = 50

// Input is everything Aggregate needs for one run.
type Input struct {
	RunID       string
	SessionID   string
	UserID      *string
	BrandName   string
	Industry    string
	Category    string
	Competitors []string
	Results     []models.QuestionResult
}

type platformSeries struct {
	mention        []float64
	sentiment      []float64
	recommendation []float64
	overall        []float64
}

// Aggregate computes the RunAggregate for one run. It performs no I/O.
// An empty result set yields a zeroed report.
func Aggregate(in Input) (*models.RunAggregate, error) {
	if err := validate(in.Results); err != nil {
		return nil, err
	}

	brandName := capitalizeFirst(in.BrandName)
	norm := NewNormalizer(in.Competitors)
	tracked := norm.Normalize(brandName)
	if tracked == "" {
		tracked = brandName
	}

	series := make(map[models.Platform]*platformSeries, len(models.Platforms))
	for _, p := range models.Platforms {
		series[p] = &platformSeries{}
	}

	tally := newMentionTally()
	breakdown := make([]models.QuestionRollup, 0, len(in.Results))
	covered := 0
	brandMentions := 0

	for _, r := range in.Results {
		var mentionedOn []models.Platform
		for _, p := range models.Platforms {
			s := r.Scores[p]
			ps := series[p]
			ps.mention = append(ps.mention, s.Mention)
			ps.sentiment = append(ps.sentiment, s.Sentiment)
			ps.recommendation = append(ps.recommendation, min(s.Recommendation, maxScore))
			ps.overall = append(ps.overall, s.Overall)

			if s.Mention > 0 {
				mentionedOn = append(mentionedOn, p)
				tally.add(tracked)
				brandMentions++
			}
			for _, c := range norm.Competitors(s.CompetitorsMentioned) {
				if SameBrand(c, tracked) {
					continue
				}
				tally.add(c)
			}
		}
		if len(mentionedOn) > 0 {
			covered++
		}
		breakdown = append(breakdown, models.QuestionRollup{
			QuestionNumber: r.QuestionNumber,
			Text:           truncateRunes(r.QuestionText, breakdownTextLen),
			Category:       r.QuestionCategory,
			Mentioned:      len(mentionedOn) > 0,
			MentionedOn:    mentionedOn,
		})
	}

	rankings := tally.rankings(tracked)
	var brandRank *int
	var brandSOV float64
	for i, b := range rankings {
		if b.IsTrackedBrand {
			rank := i + 1
			brandRank = &rank
			brandSOV = b.ShareOfVoice
			break
		}
	}

	summary := make(map[models.Platform]models.PlatformSummary, len(models.Platforms))
	var scoreSum float64
	for _, p := range models.Platforms {
		ps := series[p]
		summary[p] = models.PlatformSummary{
			Score:          avg(ps.overall),
			Mention:        avg(ps.mention),
			Sentiment:      avgNonzero(ps.sentiment),
			Recommendation: avg(ps.recommendation),
		}
		scoreSum += summary[p].Score
	}
	visibility := round1(scoreSum / float64(len(models.Platforms)))

	best, worst := bestAndWorst(summary)

	agg := &models.RunAggregate{
		ID:                  uuid.New(),
		RunID:               in.RunID,
		SessionID:           in.SessionID,
		UserID:              in.UserID,
		BrandName:           brandName,
		Industry:            in.Industry,
		Category:            in.Category,
		VisibilityScore:     visibility,
		Grade:               Grade(visibility),
		BrandRank:           brandRank,
		BrandSOV:            brandSOV,
		BrandCoverage:       percent(covered, len(in.Results)),
		BrandMentions:       brandMentions,
		QuestionsProcessed:  len(in.Results),
		BestModel:           best.DisplayName(),
		WorstModel:          worst.DisplayName(),
		PlatformsSummary:    summary,
		PlatformConsistency: consistency(series),
		BrandRankings:       rankings,
		QuestionBreakdown:   breakdown,
		CreatedAt:           time.Now().UTC(),
	}
	agg.UpdatedAt = agg.CreatedAt

	avgRec, avgSent := crossPlatformAverages(summary)
	agg.Recommendations = recommendations(agg.BrandCoverage, avgRec, avgSent)
	agg.Alerts = alerts(brandName, summary)
	agg.Actions = actions(best, worst, summary)
	agg.ExecutiveSummary = executiveSummary(agg, avgRec, avgSent)

	return agg, nil
}

// validate checks that results are numbered 1..N in order and carry a
// score for every platform.
func validate(results []models.QuestionResult) error {
	for i, r := range results {
		if r.QuestionNumber != i+1 {
			return fmt.Errorf("%w: position %d has question_number %d", ErrMalformedResult, i+1, r.QuestionNumber)
		}
		for _, p := range models.Platforms {
			if _, ok := r.Scores[p]; !ok {
				return fmt.Errorf("%w: question %d has no %s score", ErrMalformedResult, r.QuestionNumber, p)
			}
		}
	}
	return nil
}

// mentionTally counts mentions per brand, remembering first-seen order so
// ties rank deterministically.
type mentionTally struct {
	order  []string
	counts map[string]int
}

func newMentionTally() *mentionTally {
	return &mentionTally{counts: make(map[string]int)}
}

func (t *mentionTally) add(brand string) {
	if _, ok := t.counts[brand]; !ok {
		t.order = append(t.order, brand)
	}
	t.counts[brand]++
}

func (t *mentionTally) rankings(tracked string) []models.BrandRanking {
	total := 0
	for _, c := range t.counts {
		total += c
	}

	out := make([]models.BrandRanking, 0, len(t.order))
	for _, b := range t.order {
		out = append(out, models.BrandRanking{
			Brand:          b,
			Mentions:       t.counts[b],
			ShareOfVoice:   percent(t.counts[b], total),
			IsTrackedBrand: SameBrand(b, tracked),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mentions > out[j].Mentions })
	return out
}

// bestAndWorst picks the platforms with the highest and lowest score; ties
// go to the earlier platform.
func bestAndWorst(summary map[models.Platform]models.PlatformSummary) (best, worst models.Platform) {
	best, worst = models.Platforms[0], models.Platforms[0]
	for _, p := range models.Platforms[1:] {
		if summary[p].Score > summary[best].Score {
			best = p
		}
		if summary[p].Score < summary[worst].Score {
			worst = p
		}
	}
	return best, worst
}

func consistency(series map[models.Platform]*platformSeries) models.PlatformConsistency {
	rates := make(map[models.Platform]float64, len(models.Platforms))
	strongest, weakest := models.Platforms[0], models.Platforms[0]
	for _, p := range models.Platforms {
		rates[p] = avg(series[p].mention)
	}
	for _, p := range models.Platforms[1:] {
		if rates[p] > rates[strongest] {
			strongest = p
		}
		if rates[p] < rates[weakest] {
			weakest = p
		}
	}
	spread := rates[strongest] - rates[weakest]
	return models.PlatformConsistency{
		Rates:        rates,
		Variance:     round1(spread),
		Strongest:    strongest,
		Weakest:      weakest,
		IsConsistent: spread < consistencyThreshold,
	}
}

// crossPlatformAverages returns the mean recommendation rate and the
// nonzero-mean sentiment across the four platform summaries.
func crossPlatformAverages(summary map[models.Platform]models.PlatformSummary) (avgRec, avgSent float64) {
	recs := make([]float64, 0, len(models.Platforms))
	sents := make([]float64, 0, len(models.Platforms))
	for _, p := range models.Platforms {
		recs = append(recs, summary[p].Recommendation)
		sents = append(sents, summary[p].Sentiment)
	}
	return avg(recs), avgNonzero(sents)
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
