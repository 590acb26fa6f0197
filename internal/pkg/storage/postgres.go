package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/models"
)

// Ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)

// PostgresStore persists all entities in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the connection, verifies it and runs migrations.
func NewPostgresStore(cfg *config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("PostgreSQL store initialized")
	return store, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS leagues (
			id BIGSERIAL PRIMARY KEY,
			api_id BIGINT UNIQUE NOT NULL,
			name VARCHAR(200) NOT NULL,
			type VARCHAR(50) NOT NULL DEFAULT '',
			country VARCHAR(100) NOT NULL DEFAULT '',
			logo TEXT NOT NULL DEFAULT '',
			season VARCHAR(20) NOT NULL DEFAULT '',
			last_fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS teams (
			id BIGSERIAL PRIMARY KEY,
			api_id BIGINT UNIQUE NOT NULL,
			name VARCHAR(200) NOT NULL,
			code VARCHAR(20) NOT NULL DEFAULT '',
			country VARCHAR(100) NOT NULL DEFAULT '',
			logo TEXT NOT NULL DEFAULT '',
			league_id BIGINT REFERENCES leagues(id),
			last_fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_teams_league_id ON teams(league_id)`,

		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			api_id BIGINT UNIQUE NOT NULL,
			name VARCHAR(200) NOT NULL,
			position VARCHAR(50) NOT NULL DEFAULT '',
			team_id BIGINT REFERENCES teams(id)
		)`,

		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			api_id BIGINT UNIQUE NOT NULL,
			league_id BIGINT NOT NULL REFERENCES leagues(id),
			home_team_id BIGINT NOT NULL REFERENCES teams(id),
			away_team_id BIGINT NOT NULL REFERENCES teams(id),
			date TIMESTAMPTZ NOT NULL,
			home_score INTEGER,
			away_score INTEGER,
			venue VARCHAR(200) NOT NULL DEFAULT '',
			referee VARCHAR(200) NOT NULL DEFAULT '',
			events_fetched_at TIMESTAMPTZ,
			stats_fetched_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_date ON matches(date)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_league_id ON matches(league_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_home_team_id ON matches(home_team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_away_team_id ON matches(away_team_id)`,

		`CREATE TABLE IF NOT EXISTS match_events (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			team_id BIGINT NOT NULL REFERENCES teams(id),
			type VARCHAR(50) NOT NULL,
			minute INTEGER NOT NULL DEFAULT 0,
			player VARCHAR(200) NOT NULL DEFAULT '',
			assist VARCHAR(200) NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_events_match_id ON match_events(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_match_events_team_type ON match_events(team_id, type)`,

		`CREATE TABLE IF NOT EXISTS team_statistics (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			team_id BIGINT NOT NULL REFERENCES teams(id),
			shots INTEGER NOT NULL DEFAULT 0,
			shots_on_target INTEGER NOT NULL DEFAULT 0,
			possession DECIMAL(5, 2) NOT NULL DEFAULT 0,
			corner_kicks INTEGER NOT NULL DEFAULT 0,
			fouls INTEGER NOT NULL DEFAULT 0,
			yellow_cards INTEGER NOT NULL DEFAULT 0,
			red_cards INTEGER NOT NULL DEFAULT 0,
			offsides INTEGER NOT NULL DEFAULT 0,
			UNIQUE(match_id, team_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_statistics_team_id ON team_statistics(team_id)`,

		`CREATE TABLE IF NOT EXISTS bookmakers (
			id BIGSERIAL PRIMARY KEY,
			key VARCHAR(100) UNIQUE NOT NULL,
			name VARCHAR(200) NOT NULL,
			is_local BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		`CREATE TABLE IF NOT EXISTS match_odds (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			bookmaker_id BIGINT NOT NULL REFERENCES bookmakers(id),
			home_win_odd DECIMAL(10, 4),
			draw_odd DECIMAL(10, 4),
			away_win_odd DECIMAL(10, 4),
			over_25_odd DECIMAL(10, 4),
			under_25_odd DECIMAL(10, 4),
			btts_yes_odd DECIMAL(10, 4),
			btts_no_odd DECIMAL(10, 4),
			api_event_id VARCHAR(100) NOT NULL DEFAULT '',
			last_api_fetch TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(match_id, bookmaker_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_odds_match_id ON match_odds(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_match_odds_last_api_fetch ON match_odds(last_api_fetch)`,

		`CREATE TABLE IF NOT EXISTS bet_recommendations (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			bookmaker_id BIGINT NOT NULL REFERENCES bookmakers(id),
			bet_type VARCHAR(50) NOT NULL,
			calculated_probability DECIMAL(10, 4) NOT NULL,
			implied_probability DECIMAL(10, 4) NOT NULL,
			odd_value DECIMAL(10, 4) NOT NULL,
			expected_value DECIMAL(10, 4) NOT NULL,
			value_percentage DECIMAL(10, 4) NOT NULL,
			confidence VARCHAR(20) NOT NULL,
			is_value_bet BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bet_recommendations_match_id ON bet_recommendations(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bet_recommendations_calculated_probability ON bet_recommendations(calculated_probability DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reference data

func (s *PostgresStore) UpsertLeague(ctx context.Context, league *models.League) error {
	query := `
	INSERT INTO leagues (api_id, name, type, country, logo, season, last_fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (api_id) DO UPDATE SET
		name = EXCLUDED.name,
		type = EXCLUDED.type,
		country = EXCLUDED.country,
		logo = EXCLUDED.logo,
		season = EXCLUDED.season,
		last_fetched_at = EXCLUDED.last_fetched_at
	RETURNING id`

	if league.LastFetchedAt.IsZero() {
		league.LastFetchedAt = time.Now()
	}
	err := s.db.QueryRowContext(ctx, query,
		league.APIID, league.Name, league.Type, league.Country, league.Logo, league.Season, league.LastFetchedAt,
	).Scan(&league.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert league: %w", err)
	}
	return nil
}

func (s *PostgresStore) Leagues(ctx context.Context) ([]models.League, error) {
	return s.queryLeagues(ctx, `SELECT id, api_id, name, type, country, logo, season, last_fetched_at FROM leagues ORDER BY name`)
}

func (s *PostgresStore) LeaguesByNames(ctx context.Context, names []string) ([]models.League, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := `SELECT id, api_id, name, type, country, logo, season, last_fetched_at FROM leagues WHERE name = ANY($1) ORDER BY name`
	return s.queryLeagues(ctx, query, pq.Array(names))
}

func (s *PostgresStore) queryLeagues(ctx context.Context, query string, args ...interface{}) ([]models.League, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer rows.Close()

	var leagues []models.League
	for rows.Next() {
		var l models.League
		if err := rows.Scan(&l.ID, &l.APIID, &l.Name, &l.Type, &l.Country, &l.Logo, &l.Season, &l.LastFetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, l)
	}
	return leagues, rows.Err()
}

func (s *PostgresStore) UpsertTeam(ctx context.Context, team *models.Team) error {
	query := `
	INSERT INTO teams (api_id, name, code, country, logo, league_id, last_fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (api_id) DO UPDATE SET
		name = EXCLUDED.name,
		code = EXCLUDED.code,
		country = EXCLUDED.country,
		logo = EXCLUDED.logo,
		league_id = EXCLUDED.league_id,
		last_fetched_at = EXCLUDED.last_fetched_at
	RETURNING id`

	if team.LastFetchedAt.IsZero() {
		team.LastFetchedAt = time.Now()
	}
	err := s.db.QueryRowContext(ctx, query,
		team.APIID, team.Name, team.Code, team.Country, team.Logo, team.LeagueID, team.LastFetchedAt,
	).Scan(&team.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert team: %w", err)
	}
	return nil
}

func (s *PostgresStore) Teams(ctx context.Context) ([]models.Team, error) {
	return s.queryTeams(ctx, `SELECT id, api_id, name, code, country, logo, COALESCE(league_id, 0), last_fetched_at FROM teams ORDER BY name`)
}

func (s *PostgresStore) TeamsForLeague(ctx context.Context, leagueID int64) ([]models.Team, error) {
	query := `SELECT id, api_id, name, code, country, logo, COALESCE(league_id, 0), last_fetched_at FROM teams WHERE league_id = $1 ORDER BY name`
	return s.queryTeams(ctx, query, leagueID)
}

func (s *PostgresStore) queryTeams(ctx context.Context, query string, args ...interface{}) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.APIID, &t.Name, &t.Code, &t.Country, &t.Logo, &t.LeagueID, &t.LastFetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *PostgresStore) UpsertPlayer(ctx context.Context, player *models.Player) error {
	query := `
	INSERT INTO players (api_id, name, position, team_id)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (api_id) DO UPDATE SET
		name = EXCLUDED.name,
		position = EXCLUDED.position,
		team_id = EXCLUDED.team_id
	RETURNING id`

	err := s.db.QueryRowContext(ctx, query, player.APIID, player.Name, player.Position, player.TeamID).Scan(&player.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Fixtures

const matchColumns = `
	m.id, m.api_id, m.league_id, l.name,
	m.home_team_id, m.away_team_id,
	ht.id, ht.api_id, ht.name, ht.code, ht.country, ht.logo,
	aw.id, aw.api_id, aw.name, aw.code, aw.country, aw.logo,
	m.date, m.home_score, m.away_score, m.venue, m.referee,
	m.events_fetched_at, m.stats_fetched_at`

const matchJoins = `
	FROM matches m
	JOIN leagues l ON l.id = m.league_id
	JOIN teams ht ON ht.id = m.home_team_id
	JOIN teams aw ON aw.id = m.away_team_id`

func scanMatch(scanner interface{ Scan(...interface{}) error }) (models.Match, error) {
	var m models.Match
	var homeScore, awayScore sql.NullInt64
	var eventsFetched, statsFetched sql.NullTime

	err := scanner.Scan(
		&m.ID, &m.APIID, &m.LeagueID, &m.LeagueName,
		&m.HomeTeamID, &m.AwayTeamID,
		&m.HomeTeam.ID, &m.HomeTeam.APIID, &m.HomeTeam.Name, &m.HomeTeam.Code, &m.HomeTeam.Country, &m.HomeTeam.Logo,
		&m.AwayTeam.ID, &m.AwayTeam.APIID, &m.AwayTeam.Name, &m.AwayTeam.Code, &m.AwayTeam.Country, &m.AwayTeam.Logo,
		&m.Date, &homeScore, &awayScore, &m.Venue, &m.Referee,
		&eventsFetched, &statsFetched,
	)
	if err != nil {
		return m, err
	}

	if homeScore.Valid {
		v := int(homeScore.Int64)
		m.HomeScore = &v
	}
	if awayScore.Valid {
		v := int(awayScore.Int64)
		m.AwayScore = &v
	}
	if eventsFetched.Valid {
		m.EventsFetchedAt = &eventsFetched.Time
	}
	if statsFetched.Valid {
		m.StatsFetchedAt = &statsFetched.Time
	}
	return m, nil
}

func (s *PostgresStore) queryMatches(ctx context.Context, where string, args ...interface{}) ([]models.Match, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT"+matchColumns+matchJoins+" "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PostgresStore) UpsertMatch(ctx context.Context, match *models.Match) error {
	query := `
	INSERT INTO matches (api_id, league_id, home_team_id, away_team_id, date, home_score, away_score, venue, referee)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (api_id) DO UPDATE SET
		league_id = EXCLUDED.league_id,
		home_team_id = EXCLUDED.home_team_id,
		away_team_id = EXCLUDED.away_team_id,
		date = EXCLUDED.date,
		home_score = EXCLUDED.home_score,
		away_score = EXCLUDED.away_score,
		venue = EXCLUDED.venue,
		referee = EXCLUDED.referee
	RETURNING id`

	var homeScore, awayScore interface{}
	if match.HomeScore != nil {
		homeScore = *match.HomeScore
	}
	if match.AwayScore != nil {
		awayScore = *match.AwayScore
	}

	err := s.db.QueryRowContext(ctx, query,
		match.APIID, match.LeagueID, match.HomeTeamID, match.AwayTeamID,
		match.Date, homeScore, awayScore, match.Venue, match.Referee,
	).Scan(&match.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert match: %w", err)
	}
	return nil
}

func (s *PostgresStore) MatchByID(ctx context.Context, id int64) (*models.Match, error) {
	row := s.db.QueryRowContext(ctx, "SELECT"+matchColumns+matchJoins+" WHERE m.id = $1", id)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match %d: %w", id, err)
	}
	return &m, nil
}

func (s *PostgresStore) MatchesPage(ctx context.Context, limit, offset int) ([]models.Match, error) {
	return s.queryMatches(ctx, "ORDER BY m.date DESC LIMIT $1 OFFSET $2", limit, offset)
}

func (s *PostgresStore) MatchesBetween(ctx context.Context, from, to time.Time) ([]models.Match, error) {
	return s.queryMatches(ctx, "WHERE m.date >= $1 AND m.date < $2 ORDER BY m.date", from, to)
}

func (s *PostgresStore) MatchesBetweenForLeague(ctx context.Context, leagueID int64, from, to time.Time) ([]models.Match, error) {
	return s.queryMatches(ctx, "WHERE m.league_id = $1 AND m.date >= $2 AND m.date < $3 ORDER BY m.date", leagueID, from, to)
}

func (s *PostgresStore) CompletedMatchesByDateDesc(ctx context.Context) ([]models.Match, error) {
	return s.queryMatches(ctx, "WHERE m.home_score IS NOT NULL AND m.away_score IS NOT NULL ORDER BY m.date DESC")
}

func (s *PostgresStore) CompletedMatchesNeedingEvents(ctx context.Context) ([]models.Match, error) {
	return s.queryMatches(ctx, "WHERE m.home_score IS NOT NULL AND m.away_score IS NOT NULL AND m.events_fetched_at IS NULL ORDER BY m.date DESC")
}

func (s *PostgresStore) CompletedMatchesNeedingStats(ctx context.Context) ([]models.Match, error) {
	return s.queryMatches(ctx, "WHERE m.home_score IS NOT NULL AND m.away_score IS NOT NULL AND m.stats_fetched_at IS NULL ORDER BY m.date DESC")
}

func (s *PostgresStore) CountMatches(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountTeams(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) LeagueAggregates(ctx context.Context) ([]LeagueAggregate, error) {
	query := `
	SELECT l.name,
		COUNT(m.id),
		COUNT(m.id) FILTER (WHERE m.home_score IS NOT NULL AND m.away_score IS NOT NULL),
		COALESCE(AVG(m.home_score + m.away_score), 0)
	FROM leagues l
	LEFT JOIN matches m ON m.league_id = l.id
	GROUP BY l.name
	ORDER BY l.name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query league aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []LeagueAggregate
	for rows.Next() {
		var a LeagueAggregate
		if err := rows.Scan(&a.League, &a.TotalMatches, &a.CompletedMatches, &a.AverageGoals); err != nil {
			return nil, fmt.Errorf("failed to scan league aggregate: %w", err)
		}
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

// ---------------------------------------------------------------------------
// Events and statistics

// ReplaceMatchEvents rewrites the event timeline for one fixture and stamps
// events_fetched_at. Replacing keeps re-fetches idempotent.
func (s *PostgresStore) ReplaceMatchEvents(ctx context.Context, matchID int64, events []models.MatchEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM match_events WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to clear match events: %w", err)
	}

	for _, ev := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO match_events (match_id, team_id, type, minute, player, assist) VALUES ($1, $2, $3, $4, $5, $6)`,
			matchID, ev.TeamID, ev.Type, ev.Minute, ev.Player, ev.Assist,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match event: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE matches SET events_fetched_at = NOW() WHERE id = $1`, matchID); err != nil {
		return fmt.Errorf("failed to stamp events_fetched_at: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) EventsForMatch(ctx context.Context, matchID int64) ([]models.MatchEvent, error) {
	query := `SELECT id, match_id, team_id, type, minute, player, assist FROM match_events WHERE match_id = $1 ORDER BY minute`
	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match events: %w", err)
	}
	defer rows.Close()

	var events []models.MatchEvent
	for rows.Next() {
		var ev models.MatchEvent
		if err := rows.Scan(&ev.ID, &ev.MatchID, &ev.TeamID, &ev.Type, &ev.Minute, &ev.Player, &ev.Assist); err != nil {
			return nil, fmt.Errorf("failed to scan match event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountCardEvents counts Card events for the team over the FULL event
// history, not just the recent-match window. The estimators divide this by
// the cached match count; see the discrepancy note in internal/stats.
func (s *PostgresStore) CountCardEvents(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM match_events WHERE team_id = $1 AND type = 'Card'`, teamID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count card events: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) UpsertTeamStatistics(ctx context.Context, stats *models.TeamStatistics) error {
	query := `
	INSERT INTO team_statistics (match_id, team_id, shots, shots_on_target, possession, corner_kicks, fouls, yellow_cards, red_cards, offsides)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (match_id, team_id) DO UPDATE SET
		shots = EXCLUDED.shots,
		shots_on_target = EXCLUDED.shots_on_target,
		possession = EXCLUDED.possession,
		corner_kicks = EXCLUDED.corner_kicks,
		fouls = EXCLUDED.fouls,
		yellow_cards = EXCLUDED.yellow_cards,
		red_cards = EXCLUDED.red_cards,
		offsides = EXCLUDED.offsides
	RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		stats.MatchID, stats.TeamID, stats.Shots, stats.ShotsOnTarget, stats.Possession,
		stats.CornerKicks, stats.Fouls, stats.YellowCards, stats.RedCards, stats.Offsides,
	).Scan(&stats.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert team statistics: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE matches SET stats_fetched_at = NOW() WHERE id = $1`, stats.MatchID); err != nil {
		return fmt.Errorf("failed to stamp stats_fetched_at: %w", err)
	}
	return nil
}

func (s *PostgresStore) StatisticsForMatch(ctx context.Context, matchID int64) ([]models.TeamStatistics, error) {
	query := `
	SELECT id, match_id, team_id, shots, shots_on_target, possession, corner_kicks, fouls, yellow_cards, red_cards, offsides
	FROM team_statistics WHERE match_id = $1`
	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team statistics: %w", err)
	}
	defer rows.Close()

	var stats []models.TeamStatistics
	for rows.Next() {
		var st models.TeamStatistics
		if err := rows.Scan(&st.ID, &st.MatchID, &st.TeamID, &st.Shots, &st.ShotsOnTarget, &st.Possession,
			&st.CornerKicks, &st.Fouls, &st.YellowCards, &st.RedCards, &st.Offsides); err != nil {
			return nil, fmt.Errorf("failed to scan team statistics: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// CornerTotals sums corner kicks over ALL statistics rows for the team.
// Same scoping caveat as CountCardEvents.
func (s *PostgresStore) CornerTotals(ctx context.Context, teamID int64) (int, int, error) {
	var total, records int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(corner_kicks), 0), COUNT(*) FROM team_statistics WHERE team_id = $1`, teamID,
	).Scan(&total, &records)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query corner totals: %w", err)
	}
	return total, records, nil
}

// ---------------------------------------------------------------------------
// Bookmakers and odds

func (s *PostgresStore) GetOrCreateBookmaker(ctx context.Context, key, name string, isLocal bool) (*models.Bookmaker, error) {
	query := `
	INSERT INTO bookmakers (key, name, is_local)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET is_local = EXCLUDED.is_local
	RETURNING id, key, name, is_local`

	var b models.Bookmaker
	err := s.db.QueryRowContext(ctx, query, key, name, isLocal).Scan(&b.ID, &b.Key, &b.Name, &b.IsLocal)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create bookmaker %q: %w", key, err)
	}
	return &b, nil
}

func (s *PostgresStore) Bookmakers(ctx context.Context) ([]models.Bookmaker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, key, name, is_local FROM bookmakers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmakers: %w", err)
	}
	defer rows.Close()

	var bookmakers []models.Bookmaker
	for rows.Next() {
		var b models.Bookmaker
		if err := rows.Scan(&b.ID, &b.Key, &b.Name, &b.IsLocal); err != nil {
			return nil, fmt.Errorf("failed to scan bookmaker: %w", err)
		}
		bookmakers = append(bookmakers, b)
	}
	return bookmakers, rows.Err()
}

// BookmakersForLeagues returns bookmakers that quoted odds for at least one
// fixture in the given leagues.
func (s *PostgresStore) BookmakersForLeagues(ctx context.Context, leagueIDs []int64) ([]models.Bookmaker, error) {
	if len(leagueIDs) == 0 {
		return nil, nil
	}

	query := `
	SELECT DISTINCT b.id, b.key, b.name, b.is_local
	FROM bookmakers b
	JOIN match_odds o ON o.bookmaker_id = b.id
	JOIN matches m ON m.id = o.match_id
	WHERE m.league_id = ANY($1)
	ORDER BY b.name`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(leagueIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmakers for leagues: %w", err)
	}
	defer rows.Close()

	var bookmakers []models.Bookmaker
	for rows.Next() {
		var b models.Bookmaker
		if err := rows.Scan(&b.ID, &b.Key, &b.Name, &b.IsLocal); err != nil {
			return nil, fmt.Errorf("failed to scan bookmaker: %w", err)
		}
		bookmakers = append(bookmakers, b)
	}
	return bookmakers, rows.Err()
}

func (s *PostgresStore) UpsertMatchOdds(ctx context.Context, odds *models.MatchOdds) error {
	query := `
	INSERT INTO match_odds (match_id, bookmaker_id, home_win_odd, draw_odd, away_win_odd, over_25_odd, under_25_odd, btts_yes_odd, btts_no_odd, api_event_id, last_api_fetch, last_updated)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (match_id, bookmaker_id) DO UPDATE SET
		home_win_odd = EXCLUDED.home_win_odd,
		draw_odd = EXCLUDED.draw_odd,
		away_win_odd = EXCLUDED.away_win_odd,
		over_25_odd = EXCLUDED.over_25_odd,
		under_25_odd = EXCLUDED.under_25_odd,
		btts_yes_odd = EXCLUDED.btts_yes_odd,
		btts_no_odd = EXCLUDED.btts_no_odd,
		api_event_id = EXCLUDED.api_event_id,
		last_api_fetch = EXCLUDED.last_api_fetch,
		last_updated = EXCLUDED.last_updated
	RETURNING id`

	now := time.Now()
	if odds.LastAPIFetch.IsZero() {
		odds.LastAPIFetch = now
	}
	odds.LastUpdated = now

	err := s.db.QueryRowContext(ctx, query,
		odds.MatchID, odds.BookmakerID,
		nullFloat(odds.HomeWinOdd), nullFloat(odds.DrawOdd), nullFloat(odds.AwayWinOdd),
		nullFloat(odds.Over25Odd), nullFloat(odds.Under25Odd),
		nullFloat(odds.BTTSYesOdd), nullFloat(odds.BTTSNoOdd),
		odds.APIEventID, odds.LastAPIFetch, odds.LastUpdated,
	).Scan(&odds.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert match odds: %w", err)
	}
	return nil
}

func (s *PostgresStore) OddsForMatch(ctx context.Context, matchID int64) ([]models.MatchOdds, error) {
	query := `
	SELECT o.id, o.match_id, o.bookmaker_id,
		o.home_win_odd, o.draw_odd, o.away_win_odd,
		o.over_25_odd, o.under_25_odd, o.btts_yes_odd, o.btts_no_odd,
		o.api_event_id, o.last_api_fetch, o.last_updated,
		b.id, b.key, b.name, b.is_local
	FROM match_odds o
	JOIN bookmakers b ON b.id = o.bookmaker_id
	WHERE o.match_id = $1`

	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query match odds: %w", err)
	}
	defer rows.Close()

	var oddsList []models.MatchOdds
	for rows.Next() {
		var o models.MatchOdds
		var homeWin, draw, awayWin, over25, under25, bttsYes, bttsNo sql.NullFloat64
		err := rows.Scan(
			&o.ID, &o.MatchID, &o.BookmakerID,
			&homeWin, &draw, &awayWin, &over25, &under25, &bttsYes, &bttsNo,
			&o.APIEventID, &o.LastAPIFetch, &o.LastUpdated,
			&o.Bookmaker.ID, &o.Bookmaker.Key, &o.Bookmaker.Name, &o.Bookmaker.IsLocal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match odds: %w", err)
		}
		o.HomeWinOdd = floatPtr(homeWin)
		o.DrawOdd = floatPtr(draw)
		o.AwayWinOdd = floatPtr(awayWin)
		o.Over25Odd = floatPtr(over25)
		o.Under25Odd = floatPtr(under25)
		o.BTTSYesOdd = floatPtr(bttsYes)
		o.BTTSNoOdd = floatPtr(bttsNo)
		oddsList = append(oddsList, o)
	}
	return oddsList, rows.Err()
}

// LeagueOddsFresh reports whether every fixture of the league in the window
// already has an odds row fetched within maxAge. A league with no fixtures
// in the window is never considered fresh; the caller decides what to fetch.
func (s *PostgresStore) LeagueOddsFresh(ctx context.Context, leagueID int64, from, to time.Time, maxAge time.Duration) (bool, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE league_id = $1 AND date >= $2 AND date < $3`,
		leagueID, from, to,
	).Scan(&total)
	if err != nil {
		return false, fmt.Errorf("failed to count league matches: %w", err)
	}
	if total == 0 {
		return false, nil
	}

	cutoff := time.Now().Add(-maxAge)
	var stale int
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM matches m
		WHERE m.league_id = $1 AND m.date >= $2 AND m.date < $3
		  AND NOT EXISTS (
			SELECT 1 FROM match_odds o WHERE o.match_id = m.id AND o.last_api_fetch >= $4
		  )`,
		leagueID, from, to, cutoff,
	).Scan(&stale)
	if err != nil {
		return false, fmt.Errorf("failed to count stale matches: %w", err)
	}
	return stale == 0, nil
}

// ---------------------------------------------------------------------------
// Recommendations

func (s *PostgresStore) DeleteRecommendationsFrom(ctx context.Context, from time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM bet_recommendations
		WHERE match_id IN (SELECT id FROM matches WHERE date >= $1)`, from)
	if err != nil {
		return 0, fmt.Errorf("failed to delete recommendations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *PostgresStore) InsertRecommendations(ctx context.Context, recs []models.BetRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bet_recommendations (match_id, bookmaker_id, bet_type, calculated_probability, implied_probability, odd_value, expected_value, value_percentage, confidence, is_value_bet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range recs {
		createdAt := r.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			r.MatchID, r.BookmakerID, r.BetType,
			r.CalculatedProbability, r.ImpliedProbability, r.OddValue,
			r.ExpectedValue, r.ValuePercentage, r.Confidence, r.IsValueBet, createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) RecommendationsFrom(ctx context.Context, from time.Time, limit int) ([]models.BetRecommendation, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT r.id, r.match_id, r.bookmaker_id, r.bet_type,
		r.calculated_probability, r.implied_probability, r.odd_value,
		r.expected_value, r.value_percentage, r.confidence, r.is_value_bet, r.created_at,
		b.id, b.key, b.name, b.is_local
	FROM bet_recommendations r
	JOIN matches m ON m.id = r.match_id
	JOIN bookmakers b ON b.id = r.bookmaker_id
	WHERE m.date >= $1
	ORDER BY r.calculated_probability DESC
	LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.BetRecommendation
	for rows.Next() {
		var r models.BetRecommendation
		err := rows.Scan(
			&r.ID, &r.MatchID, &r.BookmakerID, &r.BetType,
			&r.CalculatedProbability, &r.ImpliedProbability, &r.OddValue,
			&r.ExpectedValue, &r.ValuePercentage, &r.Confidence, &r.IsValueBet, &r.CreatedAt,
			&r.Bookmaker.ID, &r.Bookmaker.Key, &r.Bookmaker.Name, &r.Bookmaker.IsLocal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// helpers

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
