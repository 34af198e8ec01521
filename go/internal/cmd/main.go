package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/player"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	repo, database, err := setupRepository()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up repository")
	}
	if database != nil {
		defer database.Close()
	}

	catalog, err := player.Load(ctx, config.Players.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", config.Players.Path).Msg("failed to load player catalog")
	}
	log.Info().Int("players", catalog.Len()).Str("path", config.Players.Path).Msg("player catalog loaded")

	services := setupServices(repo, catalog, config)
	server := setupServer(services, config)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := services.Orchestrator.Start(ctx); err != nil {
			log.Error().Err(err).Msg("orchestrator failed")
		}
	}()
	go func() {
		defer wg.Done()
		if err := services.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("draft server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	wg.Wait()
	log.Info().Msg("draft server stopped")
}
