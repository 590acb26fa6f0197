package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/LHenrique2502/futstats/internal/analyzer"
	"github.com/LHenrique2502/futstats/internal/notify"
	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/logging"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
	"github.com/LHenrique2502/futstats/internal/stats"
)

const defaultConfigPath = "configs/local.yaml"

// suggest recomputes recommendations and sends the daily Telegram digest.
// Intended to run from cron after the odds import.
func main() {
	var configPath string
	var skipAnalysis bool

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.BoolVar(&skipAnalysis, "skip-analysis", false, "Send digest from stored recommendations without recomputing")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.Setup("suggest")

	if envDSN := os.Getenv("POSTGRES_DSN"); envDSN != "" {
		cfg.Postgres.DSN = envDSN
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
		slog.Info("Using Telegram bot token from environment")
	}
	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		if chatID, err := strconv.ParseInt(chatIDStr, 10, 64); err == nil {
			cfg.Telegram.ChatID = chatID
		}
	}

	store, err := storage.NewPostgresStore(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if !skipAnalysis {
		if _, err := analyzer.New(store, cfg.Analyzer).Run(ctx); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
	}

	var notifier *notify.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		notifier = notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	if notifier == nil {
		slog.Warn("Telegram not configured, digest will only be logged")
	}
	defer notifier.Stop()

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	// Daily suggestions from recent scoring form.
	matches, err := store.MatchesBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		log.Fatalf("Failed to load today's fixtures: %v", err)
	}
	cache, err := stats.LoadRecentMatchCache(ctx, store, stats.DefaultRecentMatches)
	if err != nil {
		log.Fatalf("Failed to build match cache: %v", err)
	}
	estimator := stats.NewEstimator(store, cache)

	suggestions := notify.BuildSuggestions(estimator, matches)
	if msg := notify.FormatSuggestions(from, suggestions); msg != "" {
		slog.Info("daily suggestions ready", "count", len(suggestions))
		if err := notifier.SendText(ctx, msg); err != nil {
			slog.Error("failed to queue suggestions digest", "error", err)
		}
	} else {
		slog.Info("no suggestions for today")
	}

	// Top value bets from the analysis window.
	recs, err := store.RecommendationsFrom(ctx, from, cfg.Analyzer.Limit)
	if err != nil {
		log.Fatalf("Failed to load recommendations: %v", err)
	}

	valueBets := recs[:0:0]
	for _, r := range recs {
		if r.IsValueBet {
			valueBets = append(valueBets, r)
		}
	}
	if msg := notify.FormatValueBets(valueBets); msg != "" {
		slog.Info("value bet digest ready", "count", len(valueBets))
		if err := notifier.SendText(ctx, msg); err != nil {
			slog.Error("failed to queue value bet digest", "error", err)
		}
	} else {
		slog.Info("no value bets in the window")
	}

	slog.Info("digests queued", "pending", notifier.QueueLen())
}
