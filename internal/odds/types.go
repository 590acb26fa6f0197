package odds

import (
	"sort"
	"time"
)

// Event is one upcoming fixture as reported by the odds provider. Team
// names are free-form strings owned by the provider; reconciliation against
// our fixtures happens by fuzzy name matching, never by ID.
type Event struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Bookmakers   []BookmakerData `json:"bookmakers"`
}

// BookmakerData is one bookmaker's quote sheet for an event.
type BookmakerData struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is a priced market (h2h, totals, btts).
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Outcome is one side of a market. Point is only present for point-based
// markets like totals.
type Outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// sportKeys maps our league names to the provider's sport keys. Leagues not
// listed fall back to the EPL key; a wrong guess only costs one request that
// matches nothing.
var sportKeys = map[string]string{
	"Premier League":   "soccer_epl",
	"La Liga":          "soccer_spain_la_liga",
	"Serie A":          "soccer_italy_serie_a",
	"Bundesliga":       "soccer_germany_bundesliga",
	"Ligue 1":          "soccer_france_ligue_one",
	"Primeira Liga":    "soccer_portugal_primeira_liga",
	"Eredivisie":       "soccer_netherlands_eredivisie",
	"Brasileirão":      "soccer_brazil_campeonato",
	"Série A":          "soccer_brazil_campeonato",
	"Série B":          "soccer_brazil_serie_b",
	"MLS":              "soccer_usa_mls",
	"Champions League": "soccer_uefa_champs_league",
	"Europa League":    "soccer_uefa_europa_league",
}

const defaultSportKey = "soccer_epl"

// SportKeyForLeague resolves the provider sport key for a league name.
func SportKeyForLeague(leagueName string) string {
	if key, ok := sportKeys[leagueName]; ok {
		return key
	}
	return defaultSportKey
}

// LeagueNamesForSportKey is the reverse lookup: every league name mapped to
// the given provider sport key, sorted for stable output.
func LeagueNamesForSportKey(sportKey string) []string {
	var names []string
	for name, key := range sportKeys {
		if key == sportKey {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
