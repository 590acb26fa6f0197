package analyzer

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
	"github.com/LHenrique2502/futstats/internal/stats"
)

// Analyzer recomputes bet recommendations for upcoming fixtures from recent
// team form and stored bookmaker odds. Each run regenerates the whole
// window; recommendations are a cache, not a ledger.
type Analyzer struct {
	store storage.Store
	cfg   config.AnalyzerConfig
}

func New(store storage.Store, cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{store: store, cfg: cfg}
}

// Report summarizes one analysis run.
type Report struct {
	MatchesAnalyzed int
	MatchesSkipped  int // no odds on record
	Recommendations int
	ValueBets       int
}

// Probabilities holds the model's estimate (whole-percent scale) for each
// analyzed market of one fixture.
type Probabilities struct {
	Over25  float64
	BTTSYes float64
	HomeWin float64
	AwayWin float64
	Draw    float64
}

// ComputeProbabilities derives market probabilities for a fixture. The
// outcome probabilities deliberately do not sum to 100: each market is
// priced independently against the bookmaker's own margin, and a small
// home-field constant shifts the win markets.
func ComputeProbabilities(e *stats.Estimator, m models.Match) Probabilities {
	over := float64(e.Over25Rate(m.HomeTeamID)+e.Over25Rate(m.AwayTeamID)) / 2
	btts := float64(e.BTTSRate(m.HomeTeamID)+e.BTTSRate(m.AwayTeamID)) / 2

	homeGoals := e.AvgGoals(m.HomeTeamID)
	awayGoals := e.AvgGoals(m.AwayTeamID)
	diff := homeGoals - awayGoals

	return Probabilities{
		Over25:  over,
		BTTSYes: btts,
		HomeWin: clamp(33.33+10+8*diff, 15, 75),
		AwayWin: clamp(33.33-5-8*diff, 15, 75),
		Draw:    clamp(30-3*math.Abs(diff), 20, 35),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Evaluate scores one (probability, odd) pair. probability is a whole
// percent. Expected value and value percentage are whole-percent too; a
// positive expected value marks a value bet.
func Evaluate(probability, odd float64) (implied, expectedValue, valuePct float64) {
	implied = 100 / odd
	expectedValue = (probability/100*odd - 1) * 100
	valuePct = (probability - implied) / implied * 100
	return implied, expectedValue, valuePct
}

// ConfidenceFor buckets a value percentage into a confidence tier.
func ConfidenceFor(valuePct float64) string {
	switch {
	case valuePct > 10:
		return models.ConfidenceHigh
	case valuePct > 5:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// bestOffer is the most generous quote for one bet type across bookmakers.
type bestOffer struct {
	odd         float64
	bookmakerID int64
}

// bestOffers keeps, per bet type, the highest odd seen across all bookmaker
// rows for the fixture. Competing quotes for the same market collapse to
// the single best price before evaluation.
func bestOffers(oddsRows []models.MatchOdds) map[string]bestOffer {
	offers := make(map[string]bestOffer)
	consider := func(betType string, odd *float64, bookmakerID int64) {
		if odd == nil || *odd <= 1 {
			return
		}
		if cur, ok := offers[betType]; !ok || *odd > cur.odd {
			offers[betType] = bestOffer{odd: *odd, bookmakerID: bookmakerID}
		}
	}

	for _, row := range oddsRows {
		consider(models.BetTypeOver25, row.Over25Odd, row.BookmakerID)
		consider(models.BetTypeBTTSYes, row.BTTSYesOdd, row.BookmakerID)
		consider(models.BetTypeHomeWin, row.HomeWinOdd, row.BookmakerID)
		consider(models.BetTypeAwayWin, row.AwayWinOdd, row.BookmakerID)
		consider(models.BetTypeDraw, row.DrawOdd, row.BookmakerID)
	}
	return offers
}

func probabilityFor(p Probabilities, betType string) float64 {
	switch betType {
	case models.BetTypeOver25:
		return p.Over25
	case models.BetTypeBTTSYes:
		return p.BTTSYes
	case models.BetTypeHomeWin:
		return p.HomeWin
	case models.BetTypeAwayWin:
		return p.AwayWin
	case models.BetTypeDraw:
		return p.Draw
	}
	return 0
}

// analyzedBetTypes are the markets the model prices. Under-2.5 and BTTS-no
// odds are stored for display but have no estimator behind them yet.
var analyzedBetTypes = []string{
	models.BetTypeOver25,
	models.BetTypeBTTSYes,
	models.BetTypeHomeWin,
	models.BetTypeAwayWin,
	models.BetTypeDraw,
}

// AnalyzeMatch builds recommendations for one fixture from its probability
// estimates and stored odds.
func AnalyzeMatch(match models.Match, probs Probabilities, oddsRows []models.MatchOdds) []models.BetRecommendation {
	offers := bestOffers(oddsRows)

	var recs []models.BetRecommendation
	for _, betType := range analyzedBetTypes {
		offer, ok := offers[betType]
		if !ok {
			continue
		}
		prob := probabilityFor(probs, betType)
		if prob <= 0 {
			continue
		}

		implied, ev, valuePct := Evaluate(prob, offer.odd)
		recs = append(recs, models.BetRecommendation{
			MatchID:               match.ID,
			BookmakerID:           offer.bookmakerID,
			BetType:               betType,
			CalculatedProbability: round2(prob),
			ImpliedProbability:    round2(implied),
			OddValue:              offer.odd,
			ExpectedValue:         round2(ev),
			ValuePercentage:       round2(valuePct),
			Confidence:            ConfidenceFor(valuePct),
			IsValueBet:            ev > 0,
		})
	}
	return recs
}

// Run analyzes all fixtures from the start of today through DaysAhead days
// out and replaces the stored recommendations for that window.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	cache, err := stats.LoadRecentMatchCache(ctx, a.store, stats.DefaultRecentMatches)
	if err != nil {
		return nil, err
	}
	estimator := stats.NewEstimator(a.store, cache)

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, a.cfg.DaysAhead)

	matches, err := a.store.MatchesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var all []models.BetRecommendation
	for _, match := range matches {
		oddsRows, err := a.store.OddsForMatch(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		if len(oddsRows) == 0 {
			report.MatchesSkipped++
			continue
		}

		probs := ComputeProbabilities(estimator, match)
		recs := AnalyzeMatch(match, probs, oddsRows)
		all = append(all, recs...)
		report.MatchesAnalyzed++
	}

	// Most probable first; the API and notifier read them in this order.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CalculatedProbability > all[j].CalculatedProbability
	})

	deleted, err := a.store.DeleteRecommendationsFrom(ctx, from)
	if err != nil {
		return nil, err
	}
	if err := a.store.InsertRecommendations(ctx, all); err != nil {
		return nil, err
	}

	for _, r := range all {
		if r.IsValueBet {
			report.ValueBets++
		}
	}
	report.Recommendations = len(all)

	slog.Info("analysis run finished",
		"matches_analyzed", report.MatchesAnalyzed,
		"matches_skipped", report.MatchesSkipped,
		"recommendations", report.Recommendations,
		"value_bets", report.ValueBets,
		"replaced", deleted)
	return report, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
