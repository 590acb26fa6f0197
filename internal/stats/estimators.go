package stats

import (
	"context"
	"math"
)

// TeamStatsSource is the slice of the store the estimators need.
type TeamStatsSource interface {
	CountCardEvents(ctx context.Context, teamID int64) (int, error)
	CornerTotals(ctx context.Context, teamID int64) (totalCorners, records int, err error)
}

// Estimator derives per-team probabilities and averages from recent form.
// Percentage estimators use Laplace smoothing so a short perfect streak
// never claims certainty, and are capped below 100 on principle: past form
// is evidence, not a guarantee.
type Estimator struct {
	store TeamStatsSource
	cache *RecentMatchCache
}

func NewEstimator(store TeamStatsSource, cache *RecentMatchCache) *Estimator {
	return &Estimator{store: store, cache: cache}
}

// Over25Rate estimates the probability (whole percent) that the team's next
// match has 3+ total goals, from its recent completed matches. Returns 0
// when the team has no completed history.
func (e *Estimator) Over25Rate(teamID int64) int {
	matches := e.cache.Recent(teamID)
	if len(matches) == 0 {
		return 0
	}

	hits := 0
	for _, m := range matches {
		if m.TotalGoals() > 2 {
			hits++
		}
	}
	return smoothedPercent(hits, len(matches))
}

// BTTSRate estimates the probability (whole percent) that both teams score
// in the team's next match.
func (e *Estimator) BTTSRate(teamID int64) int {
	matches := e.cache.Recent(teamID)
	if len(matches) == 0 {
		return 0
	}

	hits := 0
	for _, m := range matches {
		if *m.HomeScore >= 1 && *m.AwayScore >= 1 {
			hits++
		}
	}
	return smoothedPercent(hits, len(matches))
}

// smoothedPercent applies add-one smoothing: (hits+1)/(n+2) as a whole
// percent. Capped at 95 with a full sample, 85 with fewer than
// DefaultRecentMatches observations.
func smoothedPercent(hits, n int) int {
	pct := 100 * (hits + 1) / (n + 2)

	limit := 85
	if n >= DefaultRecentMatches {
		limit = 95
	}
	if pct > limit {
		pct = limit
	}
	return pct
}

// AvgCards returns the team's average card events per match, one decimal.
// The event count covers the team's full stored history while the divisor
// is the recent-match window, so teams with deep history skew high. Kept
// because downstream thresholds were tuned against this ratio.
func (e *Estimator) AvgCards(ctx context.Context, teamID int64) (float64, error) {
	matches := e.cache.Recent(teamID)
	if len(matches) == 0 {
		return 0, nil
	}

	cards, err := e.store.CountCardEvents(ctx, teamID)
	if err != nil {
		return 0, err
	}
	return round1(float64(cards) / float64(len(matches))), nil
}

// AvgCorners returns the team's average corner kicks per match with
// statistics on record, one decimal. 0 when no statistics exist.
func (e *Estimator) AvgCorners(ctx context.Context, teamID int64) (float64, error) {
	total, records, err := e.store.CornerTotals(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if records == 0 {
		return 0, nil
	}
	return round1(float64(total) / float64(records)), nil
}

// AvgGoals returns the team's average goals scored across its recent
// matches, two decimals. Matches where the team's goals cannot be resolved
// are skipped.
func (e *Estimator) AvgGoals(teamID int64) float64 {
	matches := e.cache.Recent(teamID)

	total, counted := 0, 0
	for _, m := range matches {
		if goals, ok := m.GoalsFor(teamID); ok {
			total += goals
			counted++
		}
	}
	if counted == 0 {
		return 0
	}
	return round2(float64(total) / float64(counted))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
