package storage

import (
	"context"
	"errors"
	"time"

	"github.com/LHenrique2502/futstats/internal/pkg/models"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence boundary for the whole service. All entities are
// owned by the store; core components only read, compute, and write back
// idempotently (odds and recommendations).
type Store interface {
	// Reference data.
	UpsertLeague(ctx context.Context, league *models.League) error
	Leagues(ctx context.Context) ([]models.League, error)
	LeaguesByNames(ctx context.Context, names []string) ([]models.League, error)
	UpsertTeam(ctx context.Context, team *models.Team) error
	Teams(ctx context.Context) ([]models.Team, error)
	TeamsForLeague(ctx context.Context, leagueID int64) ([]models.Team, error)
	UpsertPlayer(ctx context.Context, player *models.Player) error

	// Fixtures.
	UpsertMatch(ctx context.Context, match *models.Match) error
	MatchByID(ctx context.Context, id int64) (*models.Match, error)
	MatchesPage(ctx context.Context, limit, offset int) ([]models.Match, error)
	MatchesBetween(ctx context.Context, from, to time.Time) ([]models.Match, error)
	MatchesBetweenForLeague(ctx context.Context, leagueID int64, from, to time.Time) ([]models.Match, error)
	CompletedMatchesByDateDesc(ctx context.Context) ([]models.Match, error)
	CompletedMatchesNeedingEvents(ctx context.Context) ([]models.Match, error)
	CompletedMatchesNeedingStats(ctx context.Context) ([]models.Match, error)
	CountMatches(ctx context.Context) (int, error)
	CountTeams(ctx context.Context) (int, error)
	LeagueAggregates(ctx context.Context) ([]LeagueAggregate, error)

	// Events and statistics.
	ReplaceMatchEvents(ctx context.Context, matchID int64, events []models.MatchEvent) error
	EventsForMatch(ctx context.Context, matchID int64) ([]models.MatchEvent, error)
	CountCardEvents(ctx context.Context, teamID int64) (int, error)
	UpsertTeamStatistics(ctx context.Context, stats *models.TeamStatistics) error
	StatisticsForMatch(ctx context.Context, matchID int64) ([]models.TeamStatistics, error)
	CornerTotals(ctx context.Context, teamID int64) (totalCorners, records int, err error)

	// Bookmakers and odds.
	GetOrCreateBookmaker(ctx context.Context, key, name string, isLocal bool) (*models.Bookmaker, error)
	Bookmakers(ctx context.Context) ([]models.Bookmaker, error)
	BookmakersForLeagues(ctx context.Context, leagueIDs []int64) ([]models.Bookmaker, error)
	UpsertMatchOdds(ctx context.Context, odds *models.MatchOdds) error
	OddsForMatch(ctx context.Context, matchID int64) ([]models.MatchOdds, error)
	LeagueOddsFresh(ctx context.Context, leagueID int64, from, to time.Time, maxAge time.Duration) (bool, error)

	// Recommendations (fully recomputed materialized view).
	DeleteRecommendationsFrom(ctx context.Context, from time.Time) (int64, error)
	InsertRecommendations(ctx context.Context, recs []models.BetRecommendation) error
	RecommendationsFrom(ctx context.Context, from time.Time, limit int) ([]models.BetRecommendation, error)

	Close() error
}

// LeagueAggregate is a per-league summary for list views.
type LeagueAggregate struct {
	League           string  `json:"league"`
	TotalMatches     int     `json:"total_matches"`
	CompletedMatches int     `json:"completed_matches"`
	AverageGoals     float64 `json:"average_goals"`
}
