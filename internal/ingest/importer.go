package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

// Importer syncs leagues, teams, fixtures, events, and statistics from the
// football API into the store.
type Importer struct {
	store  storage.Store
	client *Client
	cfg    config.FootballConfig
}

func NewImporter(store storage.Store, client *Client, cfg config.FootballConfig) *Importer {
	return &Importer{store: store, client: client, cfg: cfg}
}

// Report counts what one import run touched. Failures on individual items
// are logged and counted, they never abort the run.
type Report struct {
	mu sync.Mutex

	Leagues    int
	Teams      int
	Players    int
	Matches    int
	Events     int
	Statistics int
	Errors     int
}

func (r *Report) add(field *int, n int) {
	r.mu.Lock()
	*field += n
	r.mu.Unlock()
}

// ImportLeagues upserts every configured league for the configured season.
func (im *Importer) ImportLeagues(ctx context.Context, report *Report) error {
	for _, leagueID := range im.cfg.Leagues {
		payload, err := im.client.league(ctx, leagueID, im.cfg.Season)
		if err != nil {
			slog.Error("failed to fetch league", "league_id", leagueID, "error", err)
			report.add(&report.Errors, 1)
			continue
		}

		for _, item := range payload.Response {
			league := models.League{
				APIID:   item.League.ID,
				Name:    item.League.Name,
				Type:    item.League.Type,
				Country: item.Country.Name,
				Logo:    item.League.Logo,
				Season:  im.cfg.Season,
			}
			if err := im.store.UpsertLeague(ctx, &league); err != nil {
				return err
			}
			report.add(&report.Leagues, 1)
		}
	}
	return nil
}

// ImportTeams fans out one request per stored league, bounded by the
// configured concurrency.
func (im *Importer) ImportTeams(ctx context.Context, report *Report) error {
	leagues, err := im.store.Leagues(ctx)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(int64(im.cfg.Concurrency))
	var wg sync.WaitGroup
	for _, league := range leagues {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(league models.League) {
			defer sem.Release(1)
			defer wg.Done()

			payload, err := im.client.teams(ctx, league.APIID, im.cfg.Season)
			if err != nil {
				slog.Error("failed to fetch teams", "league", league.Name, "error", err)
				report.add(&report.Errors, 1)
				return
			}

			for _, item := range payload.Response {
				team := models.Team{
					APIID:    item.Team.ID,
					Name:     item.Team.Name,
					Code:     item.Team.Code,
					Country:  item.Team.Country,
					Logo:     item.Team.Logo,
					LeagueID: league.ID,
				}
				if err := im.store.UpsertTeam(ctx, &team); err != nil {
					slog.Error("failed to upsert team", "team", team.Name, "error", err)
					report.add(&report.Errors, 1)
					continue
				}
				report.add(&report.Teams, 1)
			}
		}(league)
	}
	wg.Wait()
	return ctx.Err()
}

// ImportPlayers syncs squads for every stored team, one request per team
// bounded by the configured concurrency.
func (im *Importer) ImportPlayers(ctx context.Context, report *Report) error {
	teams, err := im.store.Teams(ctx)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(int64(im.cfg.Concurrency))
	var wg sync.WaitGroup
	for _, team := range teams {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(team models.Team) {
			defer sem.Release(1)
			defer wg.Done()

			payload, err := im.client.squad(ctx, team.APIID)
			if err != nil {
				slog.Error("failed to fetch squad", "team", team.Name, "error", err)
				report.add(&report.Errors, 1)
				return
			}

			for _, item := range payload.Response {
				for _, p := range item.Players {
					player := models.Player{
						APIID:    p.ID,
						Name:     p.Name,
						Position: p.Position,
						TeamID:   team.ID,
					}
					if err := im.store.UpsertPlayer(ctx, &player); err != nil {
						slog.Error("failed to upsert player", "player", player.Name, "error", err)
						report.add(&report.Errors, 1)
						continue
					}
					report.add(&report.Players, 1)
				}
			}
		}(team)
	}
	wg.Wait()
	return ctx.Err()
}

// ImportFixtures syncs the full fixture list of every stored league.
// Completed fixtures get their scores; future ones stay scoreless.
func (im *Importer) ImportFixtures(ctx context.Context, report *Report) error {
	leagues, err := im.store.Leagues(ctx)
	if err != nil {
		return err
	}

	teamIDs, err := im.teamIDsByAPIID(ctx)
	if err != nil {
		return err
	}

	for _, league := range leagues {
		payload, err := im.client.fixtures(ctx, league.APIID, im.cfg.Season)
		if err != nil {
			slog.Error("failed to fetch fixtures", "league", league.Name, "error", err)
			report.add(&report.Errors, 1)
			continue
		}

		for _, item := range payload.Response {
			homeID, homeOK := teamIDs[item.Teams.Home.ID]
			awayID, awayOK := teamIDs[item.Teams.Away.ID]
			if !homeOK || !awayOK {
				// Cup fixtures can involve teams outside tracked leagues.
				continue
			}

			match := models.Match{
				APIID:      item.Fixture.ID,
				LeagueID:   league.ID,
				HomeTeamID: homeID,
				AwayTeamID: awayID,
				Date:       item.Fixture.Date,
				HomeScore:  item.Goals.Home,
				AwayScore:  item.Goals.Away,
				Venue:      item.Fixture.Venue.Name,
				Referee:    item.Fixture.Referee,
			}
			if err := im.store.UpsertMatch(ctx, &match); err != nil {
				slog.Error("failed to upsert match", "api_id", match.APIID, "error", err)
				report.add(&report.Errors, 1)
				continue
			}
			report.add(&report.Matches, 1)
		}
	}
	return nil
}

// ImportEvents backfills event timelines for completed matches that have
// none yet. Matches are processed in batches with a cooldown in between to
// stay inside the API quota.
func (im *Importer) ImportEvents(ctx context.Context, report *Report) error {
	matches, err := im.store.CompletedMatchesNeedingEvents(ctx)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}
	slog.Info("importing match events", "pending", len(matches), "batch_size", im.cfg.BatchSize)

	teamIDs, err := im.teamIDsByAPIID(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(matches); start += im.cfg.BatchSize {
		end := start + im.cfg.BatchSize
		if end > len(matches) {
			end = len(matches)
		}

		if err := im.importEventBatch(ctx, matches[start:end], teamIDs, report); err != nil {
			return err
		}

		if end < len(matches) {
			slog.Info("event batch done, cooling down", "done", end, "total", len(matches))
			if err := sleepCtx(ctx, im.cfg.BatchCooldown); err != nil {
				return err
			}
		}
	}
	return nil
}

func (im *Importer) importEventBatch(ctx context.Context, batch []models.Match, teamIDs map[int64]int64, report *Report) error {
	sem := semaphore.NewWeighted(int64(im.cfg.Concurrency))
	var wg sync.WaitGroup
	for _, match := range batch {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(match models.Match) {
			defer sem.Release(1)
			defer wg.Done()

			payload, err := im.client.fixtureEvents(ctx, match.APIID)
			if err != nil {
				slog.Error("failed to fetch events", "match_id", match.ID, "error", err)
				report.add(&report.Errors, 1)
				return
			}

			var events []models.MatchEvent
			for _, item := range payload.Response {
				teamID, ok := teamIDs[item.Team.ID]
				if !ok {
					continue
				}
				events = append(events, models.MatchEvent{
					MatchID: match.ID,
					TeamID:  teamID,
					Type:    item.Type,
					Minute:  item.Time.Elapsed,
					Player:  item.Player.Name,
					Assist:  item.Assist.Name,
				})
			}

			if err := im.store.ReplaceMatchEvents(ctx, match.ID, events); err != nil {
				slog.Error("failed to store events", "match_id", match.ID, "error", err)
				report.add(&report.Errors, 1)
				return
			}
			report.add(&report.Events, len(events))
		}(match)
	}
	wg.Wait()
	return ctx.Err()
}

// ImportStatistics backfills per-team statistics for completed matches that
// have none yet. The statistics endpoint is the flakiest, so it runs at a
// lower concurrency.
func (im *Importer) ImportStatistics(ctx context.Context, report *Report) error {
	matches, err := im.store.CompletedMatchesNeedingStats(ctx)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}
	slog.Info("importing team statistics", "pending", len(matches))

	teamIDs, err := im.teamIDsByAPIID(ctx)
	if err != nil {
		return err
	}

	sem := semaphore.NewWeighted(int64(im.cfg.StatsConcurrency))
	var wg sync.WaitGroup
	for _, match := range matches {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func(match models.Match) {
			defer sem.Release(1)
			defer wg.Done()

			payload, err := im.client.fixtureStatistics(ctx, match.APIID)
			if err != nil {
				slog.Error("failed to fetch statistics", "match_id", match.ID, "error", err)
				report.add(&report.Errors, 1)
				return
			}

			for _, item := range payload.Response {
				teamID, ok := teamIDs[item.Team.ID]
				if !ok {
					continue
				}

				stats := models.TeamStatistics{MatchID: match.ID, TeamID: teamID}
				for _, s := range item.Statistics {
					v := statValue(s.Value)
					switch s.Type {
					case "Total Shots":
						stats.Shots = int(v)
					case "Shots on Goal":
						stats.ShotsOnTarget = int(v)
					case "Ball Possession":
						stats.Possession = v
					case "Corner Kicks":
						stats.CornerKicks = int(v)
					case "Fouls":
						stats.Fouls = int(v)
					case "Yellow Cards":
						stats.YellowCards = int(v)
					case "Red Cards":
						stats.RedCards = int(v)
					case "Offsides":
						stats.Offsides = int(v)
					}
				}

				if err := im.store.UpsertTeamStatistics(ctx, &stats); err != nil {
					slog.Error("failed to store statistics", "match_id", match.ID, "team_id", teamID, "error", err)
					report.add(&report.Errors, 1)
					continue
				}
				report.add(&report.Statistics, 1)
			}
		}(match)
	}
	wg.Wait()
	return ctx.Err()
}

// ImportAll runs the full pipeline in dependency order.
func (im *Importer) ImportAll(ctx context.Context) (*Report, error) {
	report := &Report{}
	started := time.Now()

	steps := []struct {
		name string
		fn   func(context.Context, *Report) error
	}{
		{"leagues", im.ImportLeagues},
		{"teams", im.ImportTeams},
		{"players", im.ImportPlayers},
		{"fixtures", im.ImportFixtures},
		{"events", im.ImportEvents},
		{"statistics", im.ImportStatistics},
	}
	for _, step := range steps {
		slog.Info("import step starting", "step", step.name)
		if err := step.fn(ctx, report); err != nil {
			return report, err
		}
	}

	slog.Info("import finished",
		"leagues", report.Leagues,
		"teams", report.Teams,
		"players", report.Players,
		"matches", report.Matches,
		"events", report.Events,
		"statistics", report.Statistics,
		"errors", report.Errors,
		"took", time.Since(started).Round(time.Second))
	return report, nil
}

func (im *Importer) teamIDsByAPIID(ctx context.Context) (map[int64]int64, error) {
	teams, err := im.store.Teams(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]int64, len(teams))
	for _, t := range teams {
		ids[t.APIID] = t.ID
	}
	return ids, nil
}
