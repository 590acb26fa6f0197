package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/LHenrique2502/futstats/internal/pkg/config"
	"github.com/LHenrique2502/futstats/internal/pkg/storage"
)

// Server exposes the read-only JSON API over the stored data.
type Server struct {
	store      storage.Store
	cfg        *config.Config
	httpServer *http.Server
}

func NewServer(cfg *config.Config, store storage.Store) *Server {
	return &Server{cfg: cfg, store: store}
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/leagues", s.handleLeagues).Methods("GET")
	api.HandleFunc("/leagues/stats", s.handleLeagueStats).Methods("GET")
	api.HandleFunc("/teams", s.handleTeams).Methods("GET")
	api.HandleFunc("/featured-teams", s.handleFeaturedTeams).Methods("GET")
	api.HandleFunc("/matches", s.handleMatches).Methods("GET")
	api.HandleFunc("/matches/today", s.handleMatchesToday).Methods("GET")
	api.HandleFunc("/matches/{id:[0-9]+}", s.handleMatchByID).Methods("GET")
	api.HandleFunc("/trending", s.handleTrending).Methods("GET")
	api.HandleFunc("/value-bets", s.handleValueBets).Methods("GET")
	api.HandleFunc("/bookmakers", s.handleBookmakers).Methods("GET")
	api.HandleFunc("/counts", s.handleCounts).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	s.httpServer = &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("HTTP server starting", "port", s.cfg.Server.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}
