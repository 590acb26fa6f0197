package odds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LHenrique2502/futstats/internal/pkg/models"
)

func fixture(id int64, home, away string, kickoff time.Time) models.Match {
	return models.Match{
		ID:       id,
		HomeTeam: models.Team{Name: home},
		AwayTeam: models.Team{Name: away},
		Date:     kickoff,
	}
}

func TestNormalizeTeamName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Arsenal FC", "arsenal"},
		{"  Arsenal  ", "arsenal"},
		{"Real Madrid CF", "real madrid"},
		{"FC Porto", "fc porto"}, // only trailing suffixes are stripped
		{"Santos", "santos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTeamName(tt.in))
	}
}

func TestMatchScore(t *testing.T) {
	kickoff := time.Now()
	m := fixture(1, "Arsenal FC", "Chelsea FC", kickoff)

	// Both exact after normalization.
	ev := Event{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}
	assert.Equal(t, 2.0, MatchScore(ev, m))

	// One exact, one substring.
	ev = Event{HomeTeam: "Arsenal", AwayTeam: "Chelsea London"}
	assert.Equal(t, 1.5, MatchScore(ev, m))

	// Flipped orientation still scores.
	ev = Event{HomeTeam: "Chelsea", AwayTeam: "Arsenal"}
	assert.Equal(t, 2.0, MatchScore(ev, m))

	// Unrelated teams.
	ev = Event{HomeTeam: "Liverpool", AwayTeam: "Everton"}
	assert.Equal(t, 0.0, MatchScore(ev, m))
}

func TestFindFixture(t *testing.T) {
	kickoff := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)
	matches := []models.Match{
		fixture(1, "Arsenal FC", "Chelsea FC", kickoff),
		fixture(2, "Liverpool FC", "Everton FC", kickoff),
	}

	ev := Event{HomeTeam: "Arsenal", AwayTeam: "Chelsea", CommenceTime: kickoff.Add(3 * time.Hour)}
	m, ok := FindFixture(ev, matches)
	require.True(t, ok)
	assert.Equal(t, int64(1), m.ID)

	// Same names but kickoff a week off: no match.
	ev.CommenceTime = kickoff.AddDate(0, 0, 7)
	_, ok = FindFixture(ev, matches)
	assert.False(t, ok)

	// One substring side alone (0.5 + 1.0 = 1.5) is just enough.
	ev = Event{HomeTeam: "Arsenal London", AwayTeam: "Chelsea", CommenceTime: kickoff}
	m, ok = FindFixture(ev, matches)
	require.True(t, ok)
	assert.Equal(t, int64(1), m.ID)

	// Two weak substring hits (0.5 + 0.5) stay below the threshold.
	ev = Event{HomeTeam: "Arsenal Reserves", AwayTeam: "Chelsea Women", CommenceTime: kickoff}
	_, ok = FindFixture(ev, matches)
	assert.False(t, ok)
}

func TestFindFixtureTieKeepsFirst(t *testing.T) {
	kickoff := time.Now()
	matches := []models.Match{
		fixture(1, "Arsenal", "Chelsea", kickoff),
		fixture(2, "Arsenal", "Chelsea", kickoff.Add(time.Hour)),
	}

	ev := Event{HomeTeam: "Arsenal", AwayTeam: "Chelsea", CommenceTime: kickoff}
	m, ok := FindFixture(ev, matches)
	require.True(t, ok)
	assert.Equal(t, int64(1), m.ID)
}

func point(v float64) *float64 { return &v }

func TestExtractOdds(t *testing.T) {
	m := fixture(7, "Arsenal FC", "Chelsea FC", time.Now())
	bm := BookmakerData{
		Key: "bet365",
		Markets: []Market{
			{Key: "h2h", Outcomes: []Outcome{
				{Name: "Arsenal", Price: 2.10},
				{Name: "Chelsea", Price: 3.40},
				{Name: "Draw", Price: 3.25},
			}},
			{Key: "totals", Outcomes: []Outcome{
				{Name: "Over", Price: 1.85, Point: point(2.5)},
				{Name: "Under", Price: 1.95, Point: point(2.5)},
				{Name: "Over", Price: 1.30, Point: point(1.5)}, // wrong line, ignored
			}},
			{Key: "btts", Outcomes: []Outcome{
				{Name: "Yes", Price: 1.72},
				{Name: "No", Price: 2.05},
			}},
		},
	}

	odds := ExtractOdds(bm, m)

	require.NotNil(t, odds.HomeWinOdd)
	assert.Equal(t, 2.10, *odds.HomeWinOdd)
	require.NotNil(t, odds.AwayWinOdd)
	assert.Equal(t, 3.40, *odds.AwayWinOdd)
	require.NotNil(t, odds.DrawOdd)
	assert.Equal(t, 3.25, *odds.DrawOdd)
	require.NotNil(t, odds.Over25Odd)
	assert.Equal(t, 1.85, *odds.Over25Odd)
	require.NotNil(t, odds.Under25Odd)
	assert.Equal(t, 1.95, *odds.Under25Odd)
	require.NotNil(t, odds.BTTSYesOdd)
	assert.Equal(t, 1.72, *odds.BTTSYesOdd)
	require.NotNil(t, odds.BTTSNoOdd)
	assert.Equal(t, 2.05, *odds.BTTSNoOdd)
	assert.Equal(t, int64(7), odds.MatchID)
}

func TestExtractOddsEmptyMarkets(t *testing.T) {
	m := fixture(7, "Arsenal", "Chelsea", time.Now())
	odds := ExtractOdds(BookmakerData{Key: "bet365"}, m)
	assert.False(t, odds.HasAnyOdd())
}

func TestExtractEventOdds(t *testing.T) {
	m := fixture(7, "Arsenal FC", "Chelsea FC", time.Now())
	h2h := []Market{{Key: "h2h", Outcomes: []Outcome{
		{Name: "Arsenal", Price: 2.10},
		{Name: "Chelsea", Price: 3.40},
	}}}
	event := Event{
		ID: "ev-1",
		Bookmakers: []BookmakerData{
			{Key: "Bet365", Title: "Bet365", Markets: h2h},
			{Key: "betway", Title: "Betway", Markets: h2h},
			{Key: "draftkings", Title: "DraftKings", Markets: h2h},
			{Key: "fanduel", Title: "FanDuel"}, // no priced markets
		},
	}

	tests := []struct {
		name     string
		allowed  map[string]bool
		wantKeys []string
	}{
		{"empty list allows all priced bookmakers", nil, []string{"Bet365", "betway", "draftkings"}},
		{"disallowed key yields nothing", map[string]bool{"pinnacle": true}, nil},
		{"mixed-case key matches lowercased entry", map[string]bool{"bet365": true}, []string{"Bet365"}},
		{"allow-list keeps only listed keys", map[string]bool{"betway": true, "draftkings": true}, []string{"betway", "draftkings"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ExtractEventOdds(event, m, tt.allowed)
			var keys []string
			for _, eo := range out {
				keys = append(keys, eo.Key)
				assert.Equal(t, "ev-1", eo.Odds.APIEventID)
				assert.Equal(t, int64(7), eo.Odds.MatchID)
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestExtractEventOddsLocalFlag(t *testing.T) {
	m := fixture(1, "Arsenal", "Chelsea", time.Now())
	event := Event{Bookmakers: []BookmakerData{
		{Key: "betano_br", Title: "Betano", Markets: []Market{{Key: "h2h", Outcomes: []Outcome{{Name: "Arsenal", Price: 1.90}}}}},
		{Key: "draftkings", Title: "DraftKings", Markets: []Market{{Key: "h2h", Outcomes: []Outcome{{Name: "Arsenal", Price: 1.91}}}}},
	}}

	out := ExtractEventOdds(event, m, nil)
	require.Len(t, out, 2)
	assert.True(t, out[0].IsLocal)
	assert.False(t, out[1].IsLocal)
}

func TestIsLocalBookmaker(t *testing.T) {
	assert.True(t, IsLocalBookmaker("bet365"))
	assert.True(t, IsLocalBookmaker("Betano_BR"))
	assert.True(t, IsLocalBookmaker("pixbet"))
	assert.False(t, IsLocalBookmaker("draftkings"))
	assert.False(t, IsLocalBookmaker("fanduel"))
}

func TestSportKeyForLeague(t *testing.T) {
	assert.Equal(t, "soccer_epl", SportKeyForLeague("Premier League"))
	assert.Equal(t, "soccer_brazil_campeonato", SportKeyForLeague("Série A"))
	assert.Equal(t, "soccer_epl", SportKeyForLeague("Unknown League"))
}
