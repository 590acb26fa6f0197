package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Football FootballConfig `yaml:"football"`
	Odds     OddsConfig     `yaml:"odds"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// FootballConfig configures the upstream football-data provider and the
// throttling applied to bulk imports.
type FootballConfig struct {
	Host    string        `yaml:"host"` // host only, without https://
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`

	Season  string  `yaml:"season"`
	Leagues []int64 `yaml:"leagues"` // upstream league IDs to track

	Concurrency      int           `yaml:"concurrency"`       // in-flight requests for fan-out imports
	StatsConcurrency int           `yaml:"stats_concurrency"` // statistics endpoint is flakier, keep lower
	BatchSize        int           `yaml:"batch_size"`        // fixtures per batch when importing events
	BatchCooldown    time.Duration `yaml:"batch_cooldown"`    // sleep between batches, quota throttle
}

type OddsConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Regions string        `yaml:"regions"`
	Markets string        `yaml:"markets"`
	Timeout time.Duration `yaml:"timeout"`

	AllowedBookmakers []string `yaml:"allowed_bookmakers"` // case-insensitive key allow-list
}

type AnalyzerConfig struct {
	DaysAhead int `yaml:"days_ahead"` // analysis window from start of today
	Limit     int `yaml:"limit"`      // default top-N for rankings
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Football.Host == "" {
		c.Football.Host = "v3.football.api-sports.io"
	}
	if c.Football.Timeout == 0 {
		c.Football.Timeout = 20 * time.Second
	}
	if c.Football.Season == "" {
		c.Football.Season = "2026"
	}
	if c.Football.Concurrency <= 0 {
		c.Football.Concurrency = 10
	}
	if c.Football.StatsConcurrency <= 0 {
		c.Football.StatsConcurrency = 5
	}
	if c.Football.BatchSize <= 0 {
		c.Football.BatchSize = 30
	}
	if c.Football.BatchCooldown == 0 {
		c.Football.BatchCooldown = 60 * time.Second
	}
	if c.Odds.BaseURL == "" {
		c.Odds.BaseURL = "https://api.the-odds-api.com/v4"
	}
	if c.Odds.Regions == "" {
		c.Odds.Regions = "us,uk"
	}
	if c.Odds.Markets == "" {
		c.Odds.Markets = "h2h,totals"
	}
	if c.Odds.Timeout == 0 {
		c.Odds.Timeout = 30 * time.Second
	}
	if c.Analyzer.DaysAhead <= 0 {
		c.Analyzer.DaysAhead = 3
	}
	if c.Analyzer.Limit <= 0 {
		c.Analyzer.Limit = 10
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
}
