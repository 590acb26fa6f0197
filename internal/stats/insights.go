package stats

import (
	"context"
	"fmt"

	"github.com/LHenrique2502/futstats/internal/pkg/models"
)

// Insight types, in display order. The order also breaks probability ties.
const (
	InsightOver25  = "over_25"
	InsightBTTS    = "btts"
	InsightCards   = "cards"
	InsightCorners = "corners"
)

var insightOrder = []string{InsightOver25, InsightBTTS, InsightCards, InsightCorners}

// Insight is one derived talking point for a fixture. Probability holds a
// whole percent for over_25/btts and a per-match average for cards/corners;
// Label is the human-readable line for feeds.
type Insight struct {
	Type        string  `json:"type"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// MatchInsight pairs a fixture with one of its insights.
type MatchInsight struct {
	Match   models.Match `json:"match"`
	Insight Insight      `json:"insight"`
}

// MatchInsights computes the four standard insights for a fixture by
// averaging the two teams' estimates.
func (e *Estimator) MatchInsights(ctx context.Context, match models.Match) ([]Insight, error) {
	homeOver := e.Over25Rate(match.HomeTeamID)
	awayOver := e.Over25Rate(match.AwayTeamID)
	homeBTTS := e.BTTSRate(match.HomeTeamID)
	awayBTTS := e.BTTSRate(match.AwayTeamID)

	homeCards, err := e.AvgCards(ctx, match.HomeTeamID)
	if err != nil {
		return nil, err
	}
	awayCards, err := e.AvgCards(ctx, match.AwayTeamID)
	if err != nil {
		return nil, err
	}
	homeCorners, err := e.AvgCorners(ctx, match.HomeTeamID)
	if err != nil {
		return nil, err
	}
	awayCorners, err := e.AvgCorners(ctx, match.AwayTeamID)
	if err != nil {
		return nil, err
	}

	overPct := (homeOver + awayOver) / 2
	bttsPct := (homeBTTS + awayBTTS) / 2
	cardsAvg := round1((homeCards + awayCards) / 2)
	cornersAvg := round1((homeCorners + awayCorners) / 2)

	return []Insight{
		{Type: InsightOver25, Label: fmt.Sprintf("%d%% chance of over 2.5 goals", overPct), Probability: float64(overPct)},
		{Type: InsightBTTS, Label: fmt.Sprintf("%d%% chance both teams score", bttsPct), Probability: float64(bttsPct)},
		{Type: InsightCards, Label: fmt.Sprintf("%.1f cards per match on average", cardsAvg), Probability: cardsAvg},
		{Type: InsightCorners, Label: fmt.Sprintf("%.1f corners per match on average", cornersAvg), Probability: cornersAvg},
	}, nil
}

// BestInsight picks the insight with the highest probability. Ties keep the
// earlier entry, so the display order above doubles as priority.
func BestInsight(insights []Insight) (Insight, bool) {
	if len(insights) == 0 {
		return Insight{}, false
	}
	best := insights[0]
	for _, in := range insights[1:] {
		if in.Probability > best.Probability {
			best = in
		}
	}
	return best, true
}

// BestFixturePerInsight selects, for each insight type, the fixture where
// that insight scores highest. Ties keep the first fixture seen. The result
// is ordered by insight type display order.
func (e *Estimator) BestFixturePerInsight(ctx context.Context, matches []models.Match) ([]MatchInsight, error) {
	best := make(map[string]MatchInsight)

	for _, match := range matches {
		insights, err := e.MatchInsights(ctx, match)
		if err != nil {
			return nil, err
		}
		for _, in := range insights {
			current, ok := best[in.Type]
			if !ok || in.Probability > current.Insight.Probability {
				best[in.Type] = MatchInsight{Match: match, Insight: in}
			}
		}
	}

	var out []MatchInsight
	for _, typ := range insightOrder {
		if mi, ok := best[typ]; ok {
			out = append(out, mi)
		}
	}
	return out, nil
}
