package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LHenrique2502/futstats/internal/analyzer"
	"github.com/LHenrique2502/futstats/internal/odds"
	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/logging"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

const defaultConfigPath = "configs/local.yaml"

func main() {
	var configPath string
	var daysAhead int
	var force bool

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.IntVar(&daysAhead, "days", 0, "Days ahead to fetch odds for (default: analyzer window)")
	flag.BoolVar(&force, "force", false, "Fetch even when stored odds are still fresh")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.Setup("importodds")

	if envDSN := os.Getenv("POSTGRES_DSN"); envDSN != "" {
		cfg.Postgres.DSN = envDSN
	}
	if envKey := os.Getenv("ODDS_API_KEY"); envKey != "" {
		cfg.Odds.APIKey = envKey
	}
	if cfg.Odds.APIKey == "" {
		log.Fatalf("odds API key is required (config or ODDS_API_KEY env var)")
	}
	if daysAhead <= 0 {
		daysAhead = cfg.Analyzer.DaysAhead
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
		slog.Info("Received shutdown signal, stopping odds import...")
		cancel()
	}()

	client := odds.NewClient(&cfg.Odds)
	importer := odds.NewImporter(store, client, cfg.Odds)

	if _, err := importer.ImportUpcoming(ctx, daysAhead, force); err != nil {
		log.Fatalf("Odds import failed: %v", err)
	}

	// Fresh odds are in; recompute recommendations and show the ranking.
	if _, err := analyzer.New(store, cfg.Analyzer).Run(ctx); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	recs, err := store.RecommendationsFrom(ctx, from, cfg.Analyzer.Limit)
	if err != nil {
		log.Fatalf("Failed to load recommendations: %v", err)
	}
	for i, r := range recs {
		marker := " "
		if r.IsValueBet {
			marker = "*"
		}
		fmt.Printf("%2d.%s %-10s @ %.2f  model %.1f%%  implied %.1f%%  EV %+.1f%%  [%s]\n",
			i+1, marker, r.BetType, r.OddValue, r.CalculatedProbability,
			r.ImpliedProbability, r.ExpectedValue, r.Confidence)
	}
}
