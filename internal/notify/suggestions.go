package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/stats"
)

// Scoring-form thresholds, tuned against last-5 goal averages.
const (
	overGoalsAvg = 1.5 // both teams this prolific points to over 2.5
	bttsGoalsAvg = 1.2 // both teams at least this points to both scoring
)

// Suggestion is one human-readable tip for an upcoming fixture.
type Suggestion struct {
	Match models.Match `json:"match"`
	Text  string       `json:"text"`
}

// BuildSuggestions derives one tip per fixture from both teams' recent goal
// averages. Fixtures with no signal produce nothing.
func BuildSuggestions(e *stats.Estimator, matches []models.Match) []Suggestion {
	var out []Suggestion
	for _, m := range matches {
		home := e.AvgGoals(m.HomeTeamID)
		away := e.AvgGoals(m.AwayTeamID)

		var text string
		switch {
		case home >= overGoalsAvg && away >= overGoalsAvg:
			text = "Over 2.5 goals"
		case home >= bttsGoalsAvg && away >= bttsGoalsAvg:
			text = "Both teams to score"
		case home >= overGoalsAvg:
			text = fmt.Sprintf("%s to score 1.5+", m.HomeTeam.Name)
		case away >= overGoalsAvg:
			text = fmt.Sprintf("%s to score 1.5+", m.AwayTeam.Name)
		default:
			continue
		}
		out = append(out, Suggestion{Match: m, Text: text})
	}
	return out
}

// FormatSuggestions renders the daily digest message. Returns "" when there
// is nothing to say, so the caller can skip sending.
func FormatSuggestions(date time.Time, suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("⚽ *Suggestions for %s*\n\n", date.Format("2006-01-02")))
	for _, s := range suggestions {
		builder.WriteString(fmt.Sprintf("*%s x %s*\n",
			escapeMarkdown(s.Match.HomeTeam.Name), escapeMarkdown(s.Match.AwayTeam.Name)))
		builder.WriteString(fmt.Sprintf("💡 %s\n", escapeMarkdown(s.Text)))
		if !s.Match.Date.IsZero() {
			builder.WriteString(fmt.Sprintf("🕐 %s\n", s.Match.Date.Format("15:04")))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// FormatValueBets renders the top recommendations digest.
func FormatValueBets(recs []models.BetRecommendation) string {
	if len(recs) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("🚨 *Value Bets*\n\n")
	for _, r := range recs {
		builder.WriteString(fmt.Sprintf("*%s* @ %.2f (%s)\n",
			formatBetType(r.BetType), r.OddValue, escapeMarkdown(r.Bookmaker.Name)))
		builder.WriteString(fmt.Sprintf("📈 model %.1f%% vs implied %.1f%% | EV %+.1f%%\n\n",
			r.CalculatedProbability, r.ImpliedProbability, r.ExpectedValue))
	}
	return builder.String()
}

func formatBetType(betType string) string {
	parts := strings.Split(betType, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return strings.Join(parts, " ")
}
