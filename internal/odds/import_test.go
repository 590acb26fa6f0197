package odds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

// importFakeStore covers the calls ImportUpcoming makes before any provider
// request goes out. The embedded interface panics on anything else, which is
// exactly what we want from these tests.
type importFakeStore struct {
	storage.Store

	leagues        []models.League
	fresh          map[int64]bool
	freshnessCalls int
	fixtureCalls   int
}

func (f *importFakeStore) Leagues(context.Context) ([]models.League, error) {
	return f.leagues, nil
}

func (f *importFakeStore) LeagueOddsFresh(_ context.Context, leagueID int64, _, _ time.Time, _ time.Duration) (bool, error) {
	f.freshnessCalls++
	return f.fresh[leagueID], nil
}

func (f *importFakeStore) MatchesBetweenForLeague(context.Context, int64, time.Time, time.Time) ([]models.Match, error) {
	f.fixtureCalls++
	return nil, nil
}

func TestImportUpcomingSkipsFreshLeagues(t *testing.T) {
	store := &importFakeStore{
		leagues: []models.League{
			{ID: 1, Name: "Premier League"},
			{ID: 2, Name: "Série A"},
		},
		fresh: map[int64]bool{1: true, 2: false},
	}
	im := NewImporter(store, nil, config.OddsConfig{})

	report, err := im.ImportUpcoming(context.Background(), 3, false)
	require.NoError(t, err)

	// League 1 is skipped before its fixtures are even loaded; league 2
	// proceeds but has no upcoming fixtures.
	assert.Equal(t, 1, report.LeaguesSkipped)
	assert.Equal(t, 1, report.LeaguesProcessed)
	assert.Equal(t, 2, store.freshnessCalls)
	assert.Equal(t, 1, store.fixtureCalls)
	assert.Equal(t, 0, report.OddsUpserted)
}

func TestImportUpcomingForceBypassesFreshness(t *testing.T) {
	store := &importFakeStore{
		leagues: []models.League{
			{ID: 1, Name: "Premier League"},
			{ID: 2, Name: "Série A"},
		},
		fresh: map[int64]bool{1: true, 2: true},
	}
	im := NewImporter(store, nil, config.OddsConfig{})

	report, err := im.ImportUpcoming(context.Background(), 3, true)
	require.NoError(t, err)

	assert.Equal(t, 0, report.LeaguesSkipped)
	assert.Equal(t, 2, report.LeaguesProcessed)
	assert.Equal(t, 0, store.freshnessCalls, "force must not consult freshness")
	assert.Equal(t, 2, store.fixtureCalls)
}
