package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

// fakeStore backs the handlers with fixed data.
type fakeStore struct {
	matches            []models.Match
	teams              []models.Team
	teamsByLeague      map[int64][]models.Team
	leagues            []models.League
	recs               []models.BetRecommendation
	odds               map[int64][]models.MatchOdds
	bookmaker          []models.Bookmaker
	bookmakersByLeague map[int64][]models.Bookmaker
}

func (f *fakeStore) UpsertLeague(context.Context, *models.League) error { return nil }
func (f *fakeStore) Leagues(context.Context) ([]models.League, error)  { return f.leagues, nil }
func (f *fakeStore) LeaguesByNames(_ context.Context, names []string) ([]models.League, error) {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []models.League
	for _, l := range f.leagues {
		if wanted[l.Name] {
			out = append(out, l)
		}
	}
	return out, nil
}
func (f *fakeStore) UpsertTeam(context.Context, *models.Team) error { return nil }
func (f *fakeStore) Teams(context.Context) ([]models.Team, error)   { return f.teams, nil }
func (f *fakeStore) TeamsForLeague(_ context.Context, leagueID int64) ([]models.Team, error) {
	return f.teamsByLeague[leagueID], nil
}
func (f *fakeStore) UpsertPlayer(context.Context, *models.Player) error { return nil }
func (f *fakeStore) UpsertMatch(context.Context, *models.Match) error   { return nil }

func (f *fakeStore) MatchByID(_ context.Context, id int64) (*models.Match, error) {
	for _, m := range f.matches {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) MatchesPage(_ context.Context, limit, offset int) ([]models.Match, error) {
	if offset >= len(f.matches) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.matches) {
		end = len(f.matches)
	}
	return f.matches[offset:end], nil
}

func (f *fakeStore) MatchesBetween(_ context.Context, from, to time.Time) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f.matches {
		if !m.Date.Before(from) && m.Date.Before(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) MatchesBetweenForLeague(_ context.Context, _ int64, from, to time.Time) ([]models.Match, error) {
	return f.MatchesBetween(context.Background(), from, to)
}

func (f *fakeStore) CompletedMatchesByDateDesc(context.Context) ([]models.Match, error) {
	var out []models.Match
	for _, m := range f.matches {
		if m.Completed() {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) CompletedMatchesNeedingEvents(context.Context) ([]models.Match, error) {
	return nil, nil
}
func (f *fakeStore) CompletedMatchesNeedingStats(context.Context) ([]models.Match, error) {
	return nil, nil
}
func (f *fakeStore) CountMatches(context.Context) (int, error) { return len(f.matches), nil }
func (f *fakeStore) CountTeams(context.Context) (int, error)   { return len(f.teams), nil }
func (f *fakeStore) LeagueAggregates(context.Context) ([]storage.LeagueAggregate, error) {
	return nil, nil
}
func (f *fakeStore) ReplaceMatchEvents(context.Context, int64, []models.MatchEvent) error {
	return nil
}
func (f *fakeStore) EventsForMatch(context.Context, int64) ([]models.MatchEvent, error) {
	return nil, nil
}
func (f *fakeStore) CountCardEvents(context.Context, int64) (int, error) { return 0, nil }
func (f *fakeStore) UpsertTeamStatistics(context.Context, *models.TeamStatistics) error {
	return nil
}
func (f *fakeStore) StatisticsForMatch(context.Context, int64) ([]models.TeamStatistics, error) {
	return nil, nil
}
func (f *fakeStore) CornerTotals(context.Context, int64) (int, int, error) { return 0, 0, nil }
func (f *fakeStore) GetOrCreateBookmaker(context.Context, string, string, bool) (*models.Bookmaker, error) {
	return &models.Bookmaker{ID: 1}, nil
}
func (f *fakeStore) Bookmakers(context.Context) ([]models.Bookmaker, error) {
	return f.bookmaker, nil
}
func (f *fakeStore) BookmakersForLeagues(_ context.Context, leagueIDs []int64) ([]models.Bookmaker, error) {
	seen := make(map[int64]bool)
	var out []models.Bookmaker
	for _, id := range leagueIDs {
		for _, b := range f.bookmakersByLeague[id] {
			if !seen[b.ID] {
				seen[b.ID] = true
				out = append(out, b)
			}
		}
	}
	return out, nil
}
func (f *fakeStore) UpsertMatchOdds(context.Context, *models.MatchOdds) error { return nil }
func (f *fakeStore) OddsForMatch(_ context.Context, matchID int64) ([]models.MatchOdds, error) {
	return f.odds[matchID], nil
}
func (f *fakeStore) LeagueOddsFresh(context.Context, int64, time.Time, time.Time, time.Duration) (bool, error) {
	return false, nil
}
func (f *fakeStore) DeleteRecommendationsFrom(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeStore) InsertRecommendations(context.Context, []models.BetRecommendation) error {
	return nil
}
func (f *fakeStore) RecommendationsFrom(_ context.Context, _ time.Time, limit int) ([]models.BetRecommendation, error) {
	if limit > len(f.recs) {
		limit = len(f.recs)
	}
	return f.recs[:limit], nil
}
func (f *fakeStore) Close() error { return nil }

func intPtr(v int) *int { return &v }

func testServer(store storage.Store) (*Server, *mux.Router) {
	cfg := &config.Config{}
	cfg.Analyzer.Limit = 10
	cfg.Server.Port = "0"
	s := NewServer(cfg, store)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/teams", s.handleTeams).Methods("GET")
	api.HandleFunc("/bookmakers", s.handleBookmakers).Methods("GET")
	api.HandleFunc("/matches", s.handleMatches).Methods("GET")
	api.HandleFunc("/matches/today", s.handleMatchesToday).Methods("GET")
	api.HandleFunc("/matches/{id:[0-9]+}", s.handleMatchByID).Methods("GET")
	api.HandleFunc("/value-bets", s.handleValueBets).Methods("GET")
	api.HandleFunc("/counts", s.handleCounts).Methods("GET")
	return s, router
}

func TestHealth(t *testing.T) {
	_, router := testServer(&fakeStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMatchByIDNotFound(t *testing.T) {
	_, router := testServer(&fakeStore{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/99", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "match not found")
}

func TestMatchByID(t *testing.T) {
	store := &fakeStore{
		matches: []models.Match{{ID: 7, HomeTeam: models.Team{Name: "Flamengo"}}},
		odds:    map[int64][]models.MatchOdds{7: {{MatchID: 7}}},
	}
	_, router := testServer(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Flamengo")
	assert.Contains(t, rec.Body.String(), `"odds"`)
}

func TestMatchesPagination(t *testing.T) {
	store := &fakeStore{matches: []models.Match{{ID: 1}, {ID: 2}, {ID: 3}}}
	_, router := testServer(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches?limit=2&offset=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":2`)
	assert.Contains(t, rec.Body.String(), `"offset":1`)
}

func TestValueBetsLimit(t *testing.T) {
	store := &fakeStore{recs: []models.BetRecommendation{
		{BetType: models.BetTypeOver25}, {BetType: models.BetTypeDraw},
	}}
	_, router := testServer(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/value-bets?limit=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.BetTypeOver25)
	assert.NotContains(t, rec.Body.String(), models.BetTypeDraw)
}

func TestMatchesToday(t *testing.T) {
	now := time.Now()
	store := &fakeStore{matches: []models.Match{
		{ID: 1, Date: now, HomeTeamID: 1, AwayTeamID: 2},
		{ID: 2, Date: now.AddDate(0, 0, 3), HomeTeamID: 3, AwayTeamID: 4}, // outside today
		{ID: 3, Date: now.AddDate(0, 0, -7), HomeTeamID: 1, AwayTeamID: 2, HomeScore: intPtr(2), AwayScore: intPtr(1)},
	}}
	_, router := testServer(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches/today", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"insights"`)
	assert.Contains(t, rec.Body.String(), `"id":1`)
	assert.NotContains(t, rec.Body.String(), `"id":2,`)
}

func TestTeamsLeagueFilter(t *testing.T) {
	store := &fakeStore{
		teams: []models.Team{{ID: 1, Name: "Arsenal"}, {ID: 2, Name: "Flamengo"}},
		teamsByLeague: map[int64][]models.Team{
			39: {{ID: 1, Name: "Arsenal"}},
		},
	}
	_, router := testServer(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teams?league_id=39", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Arsenal")
	assert.NotContains(t, rec.Body.String(), "Flamengo")

	// Unfiltered list still returns everything.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teams", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Flamengo")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/teams?league_id=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookmakersSportKeyFilter(t *testing.T) {
	store := &fakeStore{
		leagues: []models.League{
			{ID: 1, Name: "Premier League"},
			{ID: 2, Name: "Série A"},
		},
		bookmaker: []models.Bookmaker{
			{ID: 1, Key: "bet365", Name: "Bet365"},
			{ID: 2, Key: "betano", Name: "Betano"},
		},
		bookmakersByLeague: map[int64][]models.Bookmaker{
			1: {{ID: 1, Key: "bet365", Name: "Bet365"}},
			2: {{ID: 2, Key: "betano", Name: "Betano"}},
		},
	}
	_, router := testServer(store)

	// No filter: every stored bookmaker.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookmakers", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bet365")
	assert.Contains(t, rec.Body.String(), "Betano")

	// sport_key narrows to bookmakers quoting that sport's leagues.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookmakers?sport_key=soccer_epl", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bet365")
	assert.NotContains(t, rec.Body.String(), "Betano")

	// Unknown sport key maps to no leagues: empty list, not an error.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bookmakers?sport_key=basketball_nba", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bookmakers":[]`)
}

func TestCounts(t *testing.T) {
	store := &fakeStore{
		matches: []models.Match{{ID: 1}},
		teams:   []models.Team{{ID: 1}, {ID: 2}},
	}
	_, router := testServer(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/counts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matches":1`)
	assert.Contains(t, rec.Body.String(), `"teams":2`)
}
