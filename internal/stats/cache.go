package stats

import (
	"context"
	"log/slog"

	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

// DefaultRecentMatches is how many completed matches per team the form
// estimators look at.
const DefaultRecentMatches = 5

// RecentMatchCache indexes the most recent completed matches per team. It is
// built once per analysis run from a single date-descending scan, so a run
// over N fixtures costs one query instead of 2N.
type RecentMatchCache struct {
	recent     map[int64][]models.Match
	maxPerTeam int
}

// NewRecentMatchCache builds the index from completed matches ordered by
// date descending. Each match is filed under both teams; a team's slice
// stops growing at maxPerTeam, so the slices stay newest-first.
func NewRecentMatchCache(completed []models.Match, maxPerTeam int) *RecentMatchCache {
	if maxPerTeam <= 0 {
		maxPerTeam = DefaultRecentMatches
	}

	recent := make(map[int64][]models.Match)
	for _, m := range completed {
		if !m.Completed() {
			continue
		}
		if len(recent[m.HomeTeamID]) < maxPerTeam {
			recent[m.HomeTeamID] = append(recent[m.HomeTeamID], m)
		}
		if len(recent[m.AwayTeamID]) < maxPerTeam {
			recent[m.AwayTeamID] = append(recent[m.AwayTeamID], m)
		}
	}

	return &RecentMatchCache{recent: recent, maxPerTeam: maxPerTeam}
}

// LoadRecentMatchCache fetches all completed matches and builds the cache.
func LoadRecentMatchCache(ctx context.Context, store storage.Store, maxPerTeam int) (*RecentMatchCache, error) {
	completed, err := store.CompletedMatchesByDateDesc(ctx)
	if err != nil {
		return nil, err
	}
	cache := NewRecentMatchCache(completed, maxPerTeam)
	slog.Info("recent match cache built", "teams", len(cache.recent), "completed_matches", len(completed))
	return cache, nil
}

// Recent returns up to maxPerTeam most recent completed matches for the
// team, newest first. Unknown teams get an empty slice.
func (c *RecentMatchCache) Recent(teamID int64) []models.Match {
	return c.recent[teamID]
}

// Teams returns how many teams have at least one completed match cached.
func (c *RecentMatchCache) Teams() int {
	return len(c.recent)
}
