package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/LHenrique2502/futstats/internal/odds"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
	"github.com/LHenrique2502/futstats/internal/stats"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// estimator builds a fresh form estimator for this request.
func (s *Server) estimator(r *http.Request) (*stats.Estimator, error) {
	cache, err := stats.LoadRecentMatchCache(r.Context(), s.store, stats.DefaultRecentMatches)
	if err != nil {
		return nil, err
	}
	return stats.NewEstimator(s.store, cache), nil
}

func todayRange() (time.Time, time.Time) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return from, from.AddDate(0, 0, 1)
}

func limitParam(r *http.Request, fallback, max int) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > max {
		return fallback
	}
	return limit
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

func (s *Server) handleLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := s.store.Leagues(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leagues": leagues})
}

func (s *Server) handleLeagueStats(w http.ResponseWriter, r *http.Request) {
	aggs, err := s.store.LeagueAggregates(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leagues": aggs})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	var teams []models.Team
	var err error

	if v := r.URL.Query().Get("league_id"); v != "" {
		leagueID, parseErr := strconv.ParseInt(v, 10, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid league_id")
			return
		}
		teams, err = s.store.TeamsForLeague(r.Context(), leagueID)
	} else {
		teams, err = s.store.Teams(r.Context())
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// handleFeaturedTeams ranks teams by recent scoring form.
func (s *Server) handleFeaturedTeams(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, s.cfg.Analyzer.Limit, 50)

	teams, err := s.store.Teams(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	estimator, err := s.estimator(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	type featuredTeam struct {
		Team       models.Team `json:"team"`
		AvgGoals   float64     `json:"avg_goals"`
		Over25Rate int         `json:"over_25_rate"`
	}

	var featured []featuredTeam
	for _, team := range teams {
		avg := estimator.AvgGoals(team.ID)
		if avg == 0 {
			continue
		}
		featured = append(featured, featuredTeam{
			Team:       team,
			AvgGoals:   avg,
			Over25Rate: estimator.Over25Rate(team.ID),
		})
	}
	sort.SliceStable(featured, func(i, j int) bool {
		return featured[i].AvgGoals > featured[j].AvgGoals
	})
	if len(featured) > limit {
		featured = featured[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": featured})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 50, 100)
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	matches, err := s.store.MatchesPage(r.Context(), limit, offset)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) handleMatchesToday(w http.ResponseWriter, r *http.Request) {
	from, to := todayRange()
	matches, err := s.store.MatchesBetween(r.Context(), from, to)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	estimator, err := s.estimator(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	type matchWithInsights struct {
		Match    models.Match    `json:"match"`
		Insights []stats.Insight `json:"insights"`
	}

	out := make([]matchWithInsights, 0, len(matches))
	for _, m := range matches {
		insights, err := estimator.MatchInsights(r.Context(), m)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		out = append(out, matchWithInsights{Match: m, Insights: insights})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": out})
}

func (s *Server) handleMatchByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	match, err := s.store.MatchByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	odds, err := s.store.OddsForMatch(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	events, err := s.store.EventsForMatch(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	statistics, err := s.store.StatisticsForMatch(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match":      match,
		"odds":       odds,
		"events":     events,
		"statistics": statistics,
	})
}

// handleTrending returns, for each insight type, the today fixture where it
// scores highest.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	from, to := todayRange()
	matches, err := s.store.MatchesBetween(r.Context(), from, to)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	estimator, err := s.estimator(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	trending, err := estimator.BestFixturePerInsight(r.Context(), matches)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if trending == nil {
		trending = []stats.MatchInsight{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trending": trending})
}

func (s *Server) handleValueBets(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, s.cfg.Analyzer.Limit, 100)

	from, _ := todayRange()
	recs, err := s.store.RecommendationsFrom(r.Context(), from, limit)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if recs == nil {
		recs = []models.BetRecommendation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"limit":           limit,
	})
}

// handleBookmakers lists stored bookmakers. With sport_key it narrows to
// bookmakers that have quoted odds for fixtures in leagues mapped to that
// provider sport key.
func (s *Server) handleBookmakers(w http.ResponseWriter, r *http.Request) {
	var bookmakers []models.Bookmaker
	var err error

	if sportKey := r.URL.Query().Get("sport_key"); sportKey != "" {
		bookmakers, err = s.bookmakersForSport(r, sportKey)
	} else {
		bookmakers, err = s.store.Bookmakers(r.Context())
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if bookmakers == nil {
		bookmakers = []models.Bookmaker{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookmakers": bookmakers})
}

func (s *Server) bookmakersForSport(r *http.Request, sportKey string) ([]models.Bookmaker, error) {
	names := odds.LeagueNamesForSportKey(sportKey)
	if len(names) == 0 {
		return nil, nil
	}
	leagues, err := s.store.LeaguesByNames(r.Context(), names)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(leagues))
	for _, l := range leagues {
		ids = append(ids, l.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.store.BookmakersForLeagues(r.Context(), ids)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	matches, err := s.store.CountMatches(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	teams, err := s.store.CountTeams(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"teams":   teams,
	})
}
