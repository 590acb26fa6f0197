package models

import "time"

// League is a competition imported from the upstream football API.
type League struct {
	ID            int64     `json:"id"`
	APIID         int64     `json:"api_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Country       string    `json:"country"`
	Logo          string    `json:"logo"`
	Season        string    `json:"season"`
	LastFetchedAt time.Time `json:"last_fetched_at"`
}

// Team is refreshed from upstream on every sync, otherwise immutable.
type Team struct {
	ID            int64     `json:"id"`
	APIID         int64     `json:"api_id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Country       string    `json:"country"`
	Logo          string    `json:"logo"`
	LeagueID      int64     `json:"league_id"`
	LastFetchedAt time.Time `json:"last_fetched_at"`
}

type Player struct {
	ID       int64  `json:"id"`
	APIID    int64  `json:"api_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	TeamID   int64  `json:"team_id"`
}

// Match is a fixture between two teams. HomeScore/AwayScore stay nil until
// the match is completed; League/HomeTeam/AwayTeam are join-loaded by the
// store so callers never re-query per row.
type Match struct {
	ID         int64  `json:"id"`
	APIID      int64  `json:"api_id"`
	LeagueID   int64  `json:"league_id"`
	LeagueName string `json:"league"`

	HomeTeamID int64 `json:"home_team_id"`
	AwayTeamID int64 `json:"away_team_id"`
	HomeTeam   Team  `json:"home_team"`
	AwayTeam   Team  `json:"away_team"`

	Date      time.Time `json:"date"`
	HomeScore *int      `json:"home_score"`
	AwayScore *int      `json:"away_score"`
	Venue     string    `json:"venue,omitempty"`
	Referee   string    `json:"referee,omitempty"`

	EventsFetchedAt *time.Time `json:"events_fetched_at,omitempty"`
	StatsFetchedAt  *time.Time `json:"stats_fetched_at,omitempty"`
}

// Completed reports whether both scores are recorded.
func (m Match) Completed() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// TotalGoals returns home+away goals; only meaningful for completed matches.
func (m Match) TotalGoals() int {
	if !m.Completed() {
		return 0
	}
	return *m.HomeScore + *m.AwayScore
}

// GoalsFor returns the goals scored by teamID in this match and whether the
// team actually played in it.
func (m Match) GoalsFor(teamID int64) (int, bool) {
	if !m.Completed() {
		return 0, false
	}
	switch teamID {
	case m.HomeTeamID:
		return *m.HomeScore, true
	case m.AwayTeamID:
		return *m.AwayScore, true
	}
	return 0, false
}

// MatchEvent is append-only within a fixture once ingested.
type MatchEvent struct {
	ID      int64  `json:"id"`
	MatchID int64  `json:"match_id"`
	TeamID  int64  `json:"team_id"`
	Type    string `json:"type"` // Goal, Card, subst, ...
	Minute  int    `json:"minute"`
	Player  string `json:"player,omitempty"`
	Assist  string `json:"assist,omitempty"`
}

// TeamStatistics holds per-(match, team) aggregate counts. At most one row
// per pair.
type TeamStatistics struct {
	ID            int64   `json:"id"`
	MatchID       int64   `json:"match_id"`
	TeamID        int64   `json:"team_id"`
	Shots         int     `json:"shots"`
	ShotsOnTarget int     `json:"shots_on_target"`
	Possession    float64 `json:"possession"`
	CornerKicks   int     `json:"corner_kicks"`
	Fouls         int     `json:"fouls"`
	YellowCards   int     `json:"yellow_cards"`
	RedCards      int     `json:"red_cards"`
	Offsides      int     `json:"offsides"`
}

// Bookmaker is created lazily on first odds ingestion. IsLocal marks
// regionally relevant bookmakers used for display prioritization.
type Bookmaker struct {
	ID      int64  `json:"id"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	IsLocal bool   `json:"is_local"`
}

// MatchOdds is unique per (match, bookmaker). All seven market fields are
// optional; a row is only written when at least one is present.
type MatchOdds struct {
	ID          int64 `json:"id"`
	MatchID     int64 `json:"match_id"`
	BookmakerID int64 `json:"bookmaker_id"`

	HomeWinOdd *float64 `json:"home_win_odd"`
	DrawOdd    *float64 `json:"draw_odd"`
	AwayWinOdd *float64 `json:"away_win_odd"`
	Over25Odd  *float64 `json:"over_25_odd"`
	Under25Odd *float64 `json:"under_25_odd"`
	BTTSYesOdd *float64 `json:"btts_yes_odd"`
	BTTSNoOdd  *float64 `json:"btts_no_odd"`

	APIEventID   string    `json:"api_event_id"`
	LastAPIFetch time.Time `json:"last_api_fetch"`
	LastUpdated  time.Time `json:"last_updated"`

	Bookmaker Bookmaker `json:"bookmaker"`
}

// HasAnyOdd reports whether at least one of the seven market fields is set.
func (o MatchOdds) HasAnyOdd() bool {
	for _, v := range []*float64{o.HomeWinOdd, o.DrawOdd, o.AwayWinOdd, o.Over25Odd, o.Under25Odd, o.BTTSYesOdd, o.BTTSNoOdd} {
		if v != nil {
			return true
		}
	}
	return false
}

// Bet types for recommendations.
const (
	BetTypeOver25  = "over_25"
	BetTypeBTTSYes = "btts_yes"
	BetTypeHomeWin = "home_win"
	BetTypeAwayWin = "away_win"
	BetTypeDraw    = "draw"
)

// Confidence tiers.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// BetRecommendation is a derived, disposable row per (match, bet_type,
// bookmaker). The whole analyzed date range is regenerated on every run;
// this is a cache, not a ledger.
type BetRecommendation struct {
	ID          int64  `json:"id"`
	MatchID     int64  `json:"match_id"`
	BookmakerID int64  `json:"bookmaker_id"`
	BetType     string `json:"bet_type"`

	CalculatedProbability float64 `json:"calculated_probability"`
	ImpliedProbability    float64 `json:"implied_probability"`
	OddValue              float64 `json:"odd_value"`
	ExpectedValue         float64 `json:"expected_value"`
	ValuePercentage       float64 `json:"value_percentage"`
	Confidence            string  `json:"confidence"`
	IsValueBet            bool    `json:"is_value_bet"`

	CreatedAt time.Time `json:"created_at"`

	Match     Match     `json:"match"`
	Bookmaker Bookmaker `json:"bookmaker"`
}
