package odds

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

// Reconciliation thresholds. A candidate fixture must kick off within
// kickoffTolerance of the provider's commence time and clear minMatchScore
// on team names before odds are attached to it.
const (
	kickoffTolerance = 24 * time.Hour
	minMatchScore    = 1.5

	// oddsMaxAge is how long fetched odds for a league stay fresh before
	// another provider request is warranted.
	oddsMaxAge = 6 * time.Hour
)

// brazilianBookmakers marks bookmakers as locally relevant for display
// prioritization. Matching is by substring on the provider key, so
// "betano_br" and "betanomx" both count as betano.
var brazilianBookmakers = []string{
	"bet365", "betfair", "betway", "unibet", "pinnacle", "1xbet",
	"betano", "sportingbet", "rivalo", "betboo", "betsul", "galera",
	"estrela", "pixbet", "blaze",
}

// NormalizeTeamName lowercases, trims, and strips common club suffixes so
// "Arsenal FC" and "arsenal" compare equal.
func NormalizeTeamName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimSuffix(n, " fc")
	n = strings.TrimSuffix(n, " cf")
	return n
}

// nameScore compares two normalized team names: 1 for an exact match, 0.5
// when one contains the other, 0 otherwise.
func nameScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.5
	}
	return 0
}

// MatchScore scores how well a provider event lines up with a fixture.
// Both orientations are tried because some providers flip home and away.
func MatchScore(event Event, match models.Match) float64 {
	evHome := NormalizeTeamName(event.HomeTeam)
	evAway := NormalizeTeamName(event.AwayTeam)
	home := NormalizeTeamName(match.HomeTeam.Name)
	away := NormalizeTeamName(match.AwayTeam.Name)

	straight := nameScore(evHome, home) + nameScore(evAway, away)
	flipped := nameScore(evHome, away) + nameScore(evAway, home)
	return math.Max(straight, flipped)
}

// FindFixture picks the stored fixture that best matches the event, or
// false when nothing clears the kickoff window and score threshold. Ties
// keep the first candidate seen.
func FindFixture(event Event, matches []models.Match) (models.Match, bool) {
	var best models.Match
	bestScore := 0.0
	found := false

	for _, m := range matches {
		diff := event.CommenceTime.Sub(m.Date)
		if diff < 0 {
			diff = -diff
		}
		if diff >= kickoffTolerance {
			continue
		}

		score := MatchScore(event, m)
		if score < minMatchScore {
			continue
		}
		if !found || score > bestScore {
			best = m
			bestScore = score
			found = true
		}
	}
	return best, found
}

// IsLocalBookmaker reports whether the provider key belongs to a bookmaker
// on the Brazilian reference list.
func IsLocalBookmaker(key string) bool {
	k := strings.ToLower(key)
	for _, ref := range brazilianBookmakers {
		if strings.Contains(k, ref) {
			return true
		}
	}
	return false
}

// ExtractOdds maps one bookmaker's markets onto our seven odds fields.
// Unrecognized markets, outcomes, and totals lines other than 2.5 are
// ignored.
func ExtractOdds(bm BookmakerData, match models.Match) models.MatchOdds {
	odds := models.MatchOdds{MatchID: match.ID}

	home := NormalizeTeamName(match.HomeTeam.Name)
	away := NormalizeTeamName(match.AwayTeam.Name)

	for _, market := range bm.Markets {
		switch market.Key {
		case "h2h":
			for _, out := range market.Outcomes {
				price := out.Price
				name := NormalizeTeamName(out.Name)
				switch {
				case nameScore(name, home) > 0:
					odds.HomeWinOdd = &price
				case nameScore(name, away) > 0:
					odds.AwayWinOdd = &price
				case strings.Contains(name, "draw") || strings.Contains(name, "tie"):
					odds.DrawOdd = &price
				}
			}
		case "totals":
			for _, out := range market.Outcomes {
				if out.Point == nil || math.Abs(*out.Point-2.5) > 0.1 {
					continue
				}
				price := out.Price
				name := strings.ToLower(out.Name)
				switch {
				case strings.Contains(name, "over"):
					odds.Over25Odd = &price
				case strings.Contains(name, "under"):
					odds.Under25Odd = &price
				}
			}
		case "btts":
			for _, out := range market.Outcomes {
				price := out.Price
				name := strings.ToLower(out.Name)
				switch {
				case strings.Contains(name, "yes"):
					odds.BTTSYesOdd = &price
				case strings.Contains(name, "no"):
					odds.BTTSNoOdd = &price
				}
			}
		}
	}
	return odds
}

// EventOdds pairs one bookmaker's identity with its extracted odds row.
type EventOdds struct {
	Key     string
	Title   string
	IsLocal bool
	Odds    models.MatchOdds
}

// ExtractEventOdds applies the bookmaker allow-list (lowercased keys, empty
// allows all) and market extraction to every bookmaker quoting the event.
// Entries with no priced market are dropped.
func ExtractEventOdds(event Event, match models.Match, allowed map[string]bool) []EventOdds {
	var out []EventOdds
	for _, bm := range event.Bookmakers {
		if len(allowed) > 0 && !allowed[strings.ToLower(bm.Key)] {
			continue
		}

		odds := ExtractOdds(bm, match)
		if !odds.HasAnyOdd() {
			continue
		}
		odds.APIEventID = event.ID

		out = append(out, EventOdds{
			Key:     bm.Key,
			Title:   bm.Title,
			IsLocal: IsLocalBookmaker(bm.Key),
			Odds:    odds,
		})
	}
	return out
}

// Importer pulls provider odds for every league and reconciles them against
// stored fixtures.
type Importer struct {
	store  storage.Store
	client *Client
	cfg    config.OddsConfig

	allowed map[string]bool
}

func NewImporter(store storage.Store, client *Client, cfg config.OddsConfig) *Importer {
	allowed := make(map[string]bool, len(cfg.AllowedBookmakers))
	for _, key := range cfg.AllowedBookmakers {
		allowed[strings.ToLower(key)] = true
	}
	return &Importer{store: store, client: client, cfg: cfg, allowed: allowed}
}

// Report summarizes one import run.
type Report struct {
	LeaguesProcessed int
	LeaguesSkipped   int
	EventsMatched    int
	EventsUnmatched  int
	OddsUpserted     int
}

// ImportUpcoming fetches odds for all leagues with fixtures in the next
// daysAhead days. Leagues whose fixtures all carry odds fetched within the
// last 6 hours are skipped unless force is set. Events that match no stored
// fixture are counted, never treated as errors.
func (im *Importer) ImportUpcoming(ctx context.Context, daysAhead int, force bool) (*Report, error) {
	leagues, err := im.store.Leagues(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := now.Add(-2 * time.Hour) // include fixtures kicking off right now
	to := now.AddDate(0, 0, daysAhead)

	report := &Report{}
	for _, league := range leagues {
		if !force {
			fresh, err := im.store.LeagueOddsFresh(ctx, league.ID, from, to, oddsMaxAge)
			if err != nil {
				return nil, err
			}
			if fresh {
				slog.Info("odds still fresh, skipping league", "league", league.Name)
				report.LeaguesSkipped++
				continue
			}
		}

		if err := im.importLeague(ctx, league, from, to, report); err != nil {
			// One broken league must not sink the whole run.
			slog.Error("failed to import league odds", "league", league.Name, "error", err)
			continue
		}
		report.LeaguesProcessed++
	}

	slog.Info("odds import finished",
		"leagues_processed", report.LeaguesProcessed,
		"leagues_skipped", report.LeaguesSkipped,
		"events_matched", report.EventsMatched,
		"events_unmatched", report.EventsUnmatched,
		"odds_upserted", report.OddsUpserted)
	return report, nil
}

func (im *Importer) importLeague(ctx context.Context, league models.League, from, to time.Time, report *Report) error {
	matches, err := im.store.MatchesBetweenForLeague(ctx, league.ID, from, to)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		slog.Info("no upcoming fixtures for league", "league", league.Name)
		return nil
	}

	events, err := im.client.EventOdds(ctx, SportKeyForLeague(league.Name))
	if err != nil {
		return err
	}

	fetchedAt := time.Now()
	for _, event := range events {
		match, ok := FindFixture(event, matches)
		if !ok {
			slog.Debug("no fixture for odds event",
				"home", event.HomeTeam, "away", event.AwayTeam, "commence", event.CommenceTime)
			report.EventsUnmatched++
			continue
		}
		report.EventsMatched++

		for _, eo := range ExtractEventOdds(event, match, im.allowed) {
			bookmaker, err := im.store.GetOrCreateBookmaker(ctx, eo.Key, eo.Title, eo.IsLocal)
			if err != nil {
				return err
			}

			odds := eo.Odds
			odds.BookmakerID = bookmaker.ID
			odds.LastAPIFetch = fetchedAt
			if err := im.store.UpsertMatchOdds(ctx, &odds); err != nil {
				return err
			}
			report.OddsUpserted++
		}
	}
	return nil
}
