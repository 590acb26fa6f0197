package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LHenrique2502/futstats/internal/pkg/models"
)

func TestMatchInsightsAveragesBothTeams(t *testing.T) {
	// Team 1 always over 2.5 and BTTS; team 2 never.
	matches := []models.Match{
		completedMatch(1, 1, 10, 2, 1, 1),
		completedMatch(2, 1, 11, 3, 1, 2),
		completedMatch(3, 12, 1, 1, 3, 3),
		completedMatch(4, 2, 20, 0, 0, 1),
		completedMatch(5, 2, 21, 1, 0, 2),
		completedMatch(6, 22, 2, 0, 0, 3),
	}
	src := &fakeStatsSource{
		cards:   map[int64]int{1: 9, 2: 3},
		corners: map[int64][2]int{1: {18, 3}, 2: {6, 3}},
	}
	e := NewEstimator(src, NewRecentMatchCache(matches, 5))

	insights, err := e.MatchInsights(context.Background(), models.Match{HomeTeamID: 1, AwayTeamID: 2})
	require.NoError(t, err)
	require.Len(t, insights, 4)

	// Team 1: 3 hits of 3 -> 80. Team 2: 0 of 3 -> 20. Average 50.
	assert.Equal(t, InsightOver25, insights[0].Type)
	assert.Equal(t, 50.0, insights[0].Probability)
	assert.Equal(t, "50% chance of over 2.5 goals", insights[0].Label)

	assert.Equal(t, InsightBTTS, insights[1].Type)
	assert.Equal(t, 50.0, insights[1].Probability)

	// Cards: (9/3 + 3/3)/2 = 2.0. Corners: (6.0 + 2.0)/2 = 4.0.
	assert.Equal(t, InsightCards, insights[2].Type)
	assert.Equal(t, 2.0, insights[2].Probability)
	assert.Equal(t, InsightCorners, insights[3].Type)
	assert.Equal(t, 4.0, insights[3].Probability)
}

func TestBestInsightTieKeepsDisplayOrder(t *testing.T) {
	insights := []Insight{
		{Type: InsightOver25, Probability: 60},
		{Type: InsightBTTS, Probability: 60},
		{Type: InsightCards, Probability: 3.5},
	}

	best, ok := BestInsight(insights)
	require.True(t, ok)
	assert.Equal(t, InsightOver25, best.Type)

	_, ok = BestInsight(nil)
	assert.False(t, ok)
}

func TestBestFixturePerInsight(t *testing.T) {
	// Team 1's matches are high scoring, team 3's are not.
	matches := []models.Match{
		completedMatch(1, 1, 10, 3, 2, 1),
		completedMatch(2, 1, 11, 2, 2, 2),
		completedMatch(3, 3, 30, 0, 0, 1),
		completedMatch(4, 3, 31, 1, 0, 2),
	}
	src := &fakeStatsSource{
		cards:   map[int64]int{1: 4, 3: 10},
		corners: map[int64][2]int{1: {10, 2}, 3: {4, 2}},
	}
	e := NewEstimator(src, NewRecentMatchCache(matches, 5))

	fixtureA := models.Match{ID: 100, HomeTeamID: 1, AwayTeamID: 1}
	fixtureB := models.Match{ID: 200, HomeTeamID: 3, AwayTeamID: 3}

	out, err := e.BestFixturePerInsight(context.Background(), []models.Match{fixtureA, fixtureB})
	require.NoError(t, err)
	require.Len(t, out, 4)

	byType := make(map[string]MatchInsight)
	for _, mi := range out {
		byType[mi.Insight.Type] = mi
	}

	assert.Equal(t, int64(100), byType[InsightOver25].Match.ID)
	assert.Equal(t, int64(100), byType[InsightBTTS].Match.ID)
	assert.Equal(t, int64(100), byType[InsightCorners].Match.ID)
	// Team 3 carries the higher card average.
	assert.Equal(t, int64(200), byType[InsightCards].Match.ID)
}
