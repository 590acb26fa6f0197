package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LHenrique2502/futstats/internal/ingest"
	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/logging"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

const defaultConfigPath = "configs/local.yaml"

func main() {
	var configPath, step string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&step, "step", "all", "Import step: all, leagues, teams, players, fixtures, events, statistics")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.Setup("importdata")

	if envDSN := os.Getenv("POSTGRES_DSN"); envDSN != "" {
		cfg.Postgres.DSN = envDSN
	}
	if envKey := os.Getenv("FOOTBALL_API_KEY"); envKey != "" {
		cfg.Football.APIKey = envKey
	}
	if cfg.Football.APIKey == "" {
		log.Fatalf("football API key is required (config or FOOTBALL_API_KEY env var)")
	}

	store, err := storage.NewPostgresStore(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping import...")
		cancel()
	}()

	client := ingest.NewClient(&cfg.Football)
	importer := ingest.NewImporter(store, client, cfg.Football)

	if step == "all" {
		if _, err := importer.ImportAll(ctx); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	report := &ingest.Report{}
	switch step {
	case "leagues":
		err = importer.ImportLeagues(ctx, report)
	case "teams":
		err = importer.ImportTeams(ctx, report)
	case "players":
		err = importer.ImportPlayers(ctx, report)
	case "fixtures":
		err = importer.ImportFixtures(ctx, report)
	case "events":
		err = importer.ImportEvents(ctx, report)
	case "statistics":
		err = importer.ImportStatistics(ctx, report)
	default:
		log.Fatalf("Unknown step: %s", step)
	}
	if err != nil {
		log.Fatalf("Import step %s failed: %v", step, err)
	}

	slog.Info("import step finished", "step", step,
		"leagues", report.Leagues, "teams", report.Teams, "players", report.Players,
		"matches", report.Matches, "events", report.Events,
		"statistics", report.Statistics, "errors", report.Errors)
}
