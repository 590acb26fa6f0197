package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: "postgres://localhost/futstats"
football:
  api_key: "fk"
  season: "2025"
  leagues: [39, 71]
  concurrency: 4
odds:
  api_key: "ok"
  allowed_bookmakers: [bet365, betano]
analyzer:
  days_ahead: 7
telegram:
  bot_token: "token"
  chat_id: 123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/futstats", cfg.Postgres.DSN)
	assert.Equal(t, "fk", cfg.Football.APIKey)
	assert.Equal(t, []int64{39, 71}, cfg.Football.Leagues)
	assert.Equal(t, 4, cfg.Football.Concurrency)
	assert.Equal(t, []string{"bet365", "betano"}, cfg.Odds.AllowedBookmakers)
	assert.Equal(t, 7, cfg.Analyzer.DaysAhead)
	assert.Equal(t, int64(123), cfg.Telegram.ChatID)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: "postgres://localhost/futstats"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v3.football.api-sports.io", cfg.Football.Host)
	assert.Equal(t, 20*time.Second, cfg.Football.Timeout)
	assert.Equal(t, 10, cfg.Football.Concurrency)
	assert.Equal(t, 5, cfg.Football.StatsConcurrency)
	assert.Equal(t, 30, cfg.Football.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.Football.BatchCooldown)
	assert.Equal(t, "https://api.the-odds-api.com/v4", cfg.Odds.BaseURL)
	assert.Equal(t, "us,uk", cfg.Odds.Regions)
	assert.Equal(t, "h2h,totals", cfg.Odds.Markets)
	assert.Equal(t, 3, cfg.Analyzer.DaysAhead)
	assert.Equal(t, 10, cfg.Analyzer.Limit)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
