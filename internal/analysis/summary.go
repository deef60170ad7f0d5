package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/futureproof/aitracker/pkg/models"
)

// Thresholds for the heuristic recommendations and dashboard alerts.
const (
	lowCoverage        = 50
	lowRecommendation  = 30
	lowSentiment       = 60
	leaderRank         = 3
	warnRecommendation = 40
	neutralSentiment   = 50
	topCompetitorCount = 3
)

// Grade maps a visibility score to a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// recommendations are emitted in check order, not by priority.
func recommendations(coverage, avgRec, avgSent float64) []models.Recommendation {
	out := []models.Recommendation{}
	if coverage < lowCoverage {
		out = append(out, models.Recommendation{Priority: "high", Action: "Increase visibility", Detail: num(coverage) + "% coverage"})
	}
	if avgRec < lowRecommendation {
		out = append(out, models.Recommendation{Priority: "high", Action: "Improve recommendations", Detail: num(avgRec) + "% rate"})
	}
	if avgSent > 0 && avgSent < lowSentiment {
		out = append(out, models.Recommendation{Priority: "medium", Action: "Enhance sentiment", Detail: num(avgSent) + "%"})
	}
	return out
}

func alerts(brand string, summary map[models.Platform]models.PlatformSummary) []models.Alert {
	out := []models.Alert{}
	for _, p := range models.Platforms {
		rec := summary[p].Recommendation
		switch {
		case rec == 0:
			out = append(out, models.Alert{
				Type:     "critical",
				Message:  fmt.Sprintf("%s never recommends %s", p.DisplayName(), brand),
				Platform: p,
			})
		case rec < warnRecommendation:
			out = append(out, models.Alert{
				Type:     "warning",
				Message:  fmt.Sprintf("%s recommendation rate is only %s%%", p.DisplayName(), num(rec)),
				Platform: p,
			})
		}
	}
	return out
}

func actions(best, worst models.Platform, summary map[models.Platform]models.PlatformSummary) []models.Action {
	return []models.Action{
		{
			Priority: "high",
			Action:   fmt.Sprintf("Investigate why %s underperforms", worst.DisplayName()),
			Impact:   "Score: " + num(summary[worst].Score),
			Effort:   "High",
		},
		{
			Priority: "low",
			Action:   fmt.Sprintf("Maintain %s performance", best.DisplayName()),
			Impact:   "Protect top performer",
			Effort:   "Low",
		},
	}
}

// executiveSummary builds the headline block. The headline has exactly three
// outcomes: leads, moderate, limited.
func executiveSummary(agg *models.RunAggregate, avgRec, avgSent float64) models.ExecutiveSummary {
	brand := agg.BrandName
	score := num(agg.VisibilityScore)
	coverage := num(agg.BrandCoverage)

	sentDisplay := avgSent
	if sentDisplay <= 0 {
		sentDisplay = neutralSentiment
	}

	competitors := []string{}
	for _, b := range agg.BrandRankings {
		if len(competitors) == topCompetitorCount {
			break
		}
		if !b.IsTrackedBrand {
			competitors = append(competitors, b.Brand)
		}
	}

	var headline string
	var paragraphs []string
	switch {
	case agg.BrandRank != nil && *agg.BrandRank <= leaderRank && agg.BrandCoverage >= lowCoverage:
		headline = brand + " leads AI visibility in its category"
		paragraphs = []string{
			fmt.Sprintf("%s demonstrates strong AI visibility with a score of %s, appearing in %s%% of relevant AI queries. The brand is consistently mentioned and recommended across major AI platforms.", brand, score, coverage),
			fmt.Sprintf("%s shows the strongest affinity for %s, while %s presents the biggest opportunity for improvement. The brand maintains a %s%% positive sentiment rating across all platforms.", agg.BestModel, brand, agg.WorstModel, num(sentDisplay)),
		}
	case agg.BrandCoverage >= lowCoverage:
		headline = brand + " has moderate AI visibility with room to grow"
		paragraphs = []string{
			fmt.Sprintf("%s appears in %s%% of relevant AI queries with a visibility score of %s. While the brand has established presence, there are opportunities to strengthen positioning.", brand, coverage, score),
			fmt.Sprintf("Performance varies across platforms, with %s providing the strongest visibility and %s offering the most room for improvement.", agg.BestModel, agg.WorstModel),
		}
	default:
		headline = brand + " has limited AI visibility - action needed"
		paragraphs = []string{
			fmt.Sprintf("%s currently appears in only %s%% of relevant AI queries, with a visibility score of %s. This indicates significant opportunity to improve AI discoverability.", brand, coverage, score),
			"Focusing on content optimization and brand authority signals could help improve visibility across AI platforms.",
		}
	}

	bullets := []string{
		fmt.Sprintf("Visibility Score: %s out of 100", score),
		fmt.Sprintf("Brand Coverage: Mentioned in %s%% of queries", coverage),
		fmt.Sprintf("Best Platform: %s (strongest performance)", agg.BestModel),
		fmt.Sprintf("Recommendation Rate: %s%% across all platforms", num(avgRec)),
	}
	if len(competitors) > 0 {
		bullets = append(bullets, "Top Competitors: "+strings.Join(competitors, ", "))
	}
	if agg.BrandSOV > 0 {
		bullets = append(bullets, fmt.Sprintf("Share of Voice: %s%% of total brand mentions", num(agg.BrandSOV)))
	}

	return models.ExecutiveSummary{
		Headline:          headline,
		Paragraphs:        paragraphs,
		Bullets:           bullets,
		VisibilityScore:   agg.VisibilityScore,
		BrandCoverage:     agg.BrandCoverage,
		BrandRank:         agg.BrandRank,
		BrandSOV:          agg.BrandSOV,
		BestModel:         agg.BestModel,
		WorstModel:        agg.WorstModel,
		AvgSentiment:      sentDisplay,
		AvgRecommendation: avgRec,
		TopCompetitors:    competitors,
	}
}

// num formats a one-decimal metric without a trailing ".0".
func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
